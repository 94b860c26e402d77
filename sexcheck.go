package main

import (
	"context"
	"net/mail"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/eastgenomics/eggd-sex-check/check"
	"github.com/eastgenomics/eggd-sex-check/docs"
)

func main() {
	Cmd := &cli.Command{
		Name:    "sexcheck",
		Version: "1.1.0",
		Authors: []any{
			&mail.Address{
				Name:    "East Genomics Bioinformatics",
				Address: "eastglh-bioinformatics@addenbrookes.nhs.uk",
			},
		},
		Copyright: "Copyright (c) " + time.Now().Format("2006") + " East Genomics",
		Usage:     "compare the sex reported in a sample name with the sex inferred from BAM read coverage",
		UsageText: "sexcheck [global options] command [command options] [arguments...]",
		ArgsUsage: "",
		Commands: []*cli.Command{
			&check.CheckCmd,
			&docs.BuildCmd,
		},
		EnableShellCompletion: true,
		HideHelp:              false,
		HideVersion:           false,
		ShellComplete: func(ctx context.Context, cmd *cli.Command) {
			cli.DefaultAppComplete(ctx, cmd)
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cli.ShowAppHelp(cmd)
			return nil
		},
	}

	Cmd.Run(context.Background(), os.Args)
}
