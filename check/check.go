package check

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/eastgenomics/eggd-sex-check/config"
	"github.com/eastgenomics/eggd-sex-check/idxstats"
	"github.com/eastgenomics/eggd-sex-check/predict"
)

var (
	infile string
	prefix string
)

var CheckCmd cli.Command = cli.Command{
	Name:      "check",
	Usage:     "Check the reported sex of a sample against the sex inferred from read coverage",
	UsageText: "sexcheck check [options] <input.bam> <prefix>",
	ArgsUsage: "<input.bam> <prefix>",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:        "input.bam",
			UsageText:   "Input BAM file. A .bai or .csi index must sit next to it unless --native is used.",
			Destination: &infile,
		},
		&cli.StringArg{
			Name:        "prefix",
			UsageText:   "Prefix for output files. The outputs are <prefix>_idxstat.tsv and <prefix>_mqc.json.",
			Destination: &prefix,
		},
	},
	Flags: []cli.Flag{
		&cli.FloatFlag{
			Name:        "male-threshold",
			Aliases:     []string{"m"},
			Usage:       "Score at or below which the sample is called male",
			Value:       4.45,
			DefaultText: "4.45",
		},
		&cli.FloatFlag{
			Name:        "female-threshold",
			Aliases:     []string{"f"},
			Usage:       "Score at or above which the sample is called female",
			Value:       5.40,
			DefaultText: "5.40",
		},
		&cli.StringFlag{
			Name:  "sample",
			Usage: "Sample identifier carrying the reported sex. Defaults to the BAM file name without extension.",
		},
		&cli.StringFlag{
			Name:  "samtools",
			Usage: "samtools executable used to run idxstats",
			Value: "samtools",
		},
		&cli.BoolFlag{
			Name:  "native",
			Usage: "Count mapped reads in-process instead of shelling out to samtools",
			Value: false,
		},
		&cli.BoolFlag{
			Name:  "npz",
			Usage: "With --native, also write per-chromosome mapped counts to <prefix>.npz",
			Value: false,
		},
		&cli.StringFlag{
			Name:        "exclude-contigs",
			Aliases:     []string{"e"},
			Usage:       "Glob pattern of contigs to skip during a native scan",
			DefaultText: idxstats.DefaultExcludeContigs,
		},
		&cli.StringFlag{
			Name:      "config",
			Aliases:   []string{"c"},
			Usage:     "TOML config file with thresholds and chromosome labels. Explicitly set flags win over config values.",
			TakesFile: true,
			Action: func(ctx context.Context, cmd *cli.Command, v string) error {
				if _, err := os.Stat(v); os.IsNotExist(err) {
					return cli.Exit("Error: Config file does not exist", 1)
				}
				return nil
			},
		},
	},
	Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		// Check if the correct number of arguments is provided
		if cmd.Args().Len() != 2 {
			cli.ShowSubcommandHelp(cmd)
			return nil, cli.Exit("Error: Incorrect number of arguments. Expected 2 arguments while "+strconv.Itoa(cmd.Args().Len())+" were given", 1)
		}

		// Check if the input file exists
		if _, err := os.Stat(infile); os.IsNotExist(err) {
			return nil, cli.Exit("Error: Input file does not exist", 1)
		}

		// samtools idxstats needs a bai or csi index next to the BAM
		if !cmd.Bool("native") {
			if _, err := os.Stat(infile + ".bai"); os.IsNotExist(err) {
				if _, err := os.Stat(infile + ".csi"); os.IsNotExist(err) {
					return nil, cli.Exit("Error: BAM file index does not exist. Please provide a .bai or .csi file", 1)
				}
			}
		}
		return nil, nil
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return cli.Exit("Error: "+err.Error(), 1)
		}

		var indexer idxstats.Indexer
		if cmd.Bool("native") {
			indexer = idxstats.Scanner{
				ExcludeContigs: cfg.ExcludeContigs,
				WriteNpz:       cmd.Bool("npz"),
			}
		} else {
			indexer = idxstats.Samtools{Executable: cfg.Samtools}
		}

		checker := Checker{
			Indexer:    indexer,
			Thresholds: predict.Thresholds{Male: cfg.MaleThreshold, Female: cfg.FemaleThreshold},
			Chr1Labels: cfg.Chr1Labels,
			ChrYLabels: cfg.ChrYLabels,
		}

		sample := cmd.String("sample")
		if sample == "" {
			sample = SampleName(infile)
		}

		if _, err := checker.Run(infile, sample, prefix); err != nil {
			return cli.Exit("Error: "+err.Error(), 1)
		}
		return nil
	},
}

// resolveConfig layers the run configuration: built-in defaults, then the
// config file, then explicitly set flags.
func resolveConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if cmd.IsSet("male-threshold") {
		cfg.MaleThreshold = cmd.Float("male-threshold")
	}
	if cmd.IsSet("female-threshold") {
		cfg.FemaleThreshold = cmd.Float("female-threshold")
	}
	if cmd.IsSet("samtools") {
		cfg.Samtools = cmd.String("samtools")
	}
	if cmd.IsSet("exclude-contigs") {
		cfg.ExcludeContigs = cmd.String("exclude-contigs")
	}
	return cfg, nil
}

// SampleName derives the sample identifier from a BAM path, dropping the
// extension and the _markdup suffix pipelines append.
func SampleName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".bam")
	return strings.TrimSuffix(name, "_markdup")
}
