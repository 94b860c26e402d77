package check

import (
	"log/slog"

	"github.com/eastgenomics/eggd-sex-check/idxstats"
	"github.com/eastgenomics/eggd-sex-check/predict"
	"github.com/eastgenomics/eggd-sex-check/report"
)

// Checker wires the sex check pipeline together: index the BAM, extract the
// chromosome 1 and Y mapped read counts, normalise and classify the score,
// reconcile against the sample name, render the MultiQC report.
type Checker struct {
	Indexer    idxstats.Indexer
	Thresholds predict.Thresholds
	Chr1Labels []string
	ChrYLabels []string
	// Log receives diagnostics; slog.Default() when nil.
	Log *slog.Logger
}

// Run performs one sex check and returns the finished report. Fatal errors
// abort the run before any report file is written.
func (c Checker) Run(bamfile, sample, prefix string) (report.SampleReport, error) {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	if err := c.Thresholds.Validate(); err != nil {
		return report.SampleReport{}, err
	}

	tsv, err := c.Indexer.Idxstats(bamfile, prefix)
	if err != nil {
		return report.SampleReport{}, err
	}
	log.Info("Wrote mapped read counts to " + tsv)

	counts, err := idxstats.MappedReads(tsv, c.Chr1Labels, c.ChrYLabels, log)
	if err != nil {
		return report.SampleReport{}, err
	}

	score := predict.Score(counts.Chr1, counts.ChrY)
	predicted, err := predict.Classify(score, c.Thresholds)
	if err != nil {
		return report.SampleReport{}, err
	}
	reported := predict.ReportedSex(sample, log)

	r := report.SampleReport{
		Sample:       sample,
		Matched:      predict.Match(reported, predicted),
		ReportedSex:  reported,
		PredictedSex: predicted,
		Score:        score,
		MappedChrY:   counts.ChrY,
		MappedChr1:   counts.Chr1,
		YFraction:    predict.YFraction(float64(counts.ChrY), counts.Mapped),
		TotalMapped:  counts.Total(),
	}

	outfile, err := report.MultiQC(r, prefix)
	if err != nil {
		return report.SampleReport{}, err
	}
	log.Info("Wrote sex check report to " + outfile)
	return r, nil
}
