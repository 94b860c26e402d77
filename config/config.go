package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/eastgenomics/eggd-sex-check/idxstats"
)

// Config carries the tunables of a sex check run.
type Config struct {
	MaleThreshold   float64  `toml:"male_threshold"`
	FemaleThreshold float64  `toml:"female_threshold"`
	Samtools        string   `toml:"samtools"`
	Chr1Labels      []string `toml:"chr1_labels"`
	ChrYLabels      []string `toml:"chry_labels"`
	ExcludeContigs  string   `toml:"exclude_contigs"`
}

// Default returns the built-in configuration. The thresholds are the
// validated CEN run defaults.
func Default() Config {
	return Config{
		MaleThreshold:   4.45,
		FemaleThreshold: 5.40,
		Samtools:        "samtools",
		Chr1Labels:      idxstats.DefaultChr1Labels,
		ChrYLabels:      idxstats.DefaultChrYLabels,
		ExcludeContigs:  idxstats.DefaultExcludeContigs,
	}
}

// Load decodes a TOML file over the defaults, so a partial file only
// overrides the keys it names.
func Load(path string) (Config, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("unable to decode config %s: %w", path, err)
	}
	return c, nil
}
