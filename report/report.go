package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/eastgenomics/eggd-sex-check/predict"
)

// SampleReport is the per-sample outcome of a sex check run.
type SampleReport struct {
	Sample       string
	Matched      predict.MatchResult
	ReportedSex  predict.SexLabel
	PredictedSex predict.SexLabel
	Score        float64
	MappedChrY   int64
	MappedChr1   int64
	YFraction    float64
	TotalMapped  int64
}

type sampleRow struct {
	Matched      predict.MatchResult `json:"matched"`
	ReportedSex  predict.SexLabel    `json:"reported_sex"`
	PredictedSex predict.SexLabel    `json:"predicted_sex"`
	Score        float64             `json:"score"`
	MappedChrY   int64               `json:"mapped_chrY"`
	MappedChr1   int64               `json:"mapped_chr1"`
	YFraction    float64             `json:"chrY_fraction"`
	TotalMapped  int64               `json:"total_mapped"`
}

// multiqcConfig is the MultiQC custom content envelope. The header layout and
// conditional formatting rules drive the pass/warn/fail colouring of the Sex
// Check table.
type multiqcConfig struct {
	ID          string               `json:"id"`
	SectionName string               `json:"section_name"`
	Description string               `json:"description"`
	PlotType    string               `json:"plot_type"`
	Pconfig     pconfig              `json:"pconfig"`
	Headers     map[string]header    `json:"headers"`
	Data        map[string]sampleRow `json:"data"`
}

type pconfig struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Format string `json:"format"`
}

type header struct {
	Title       string                         `json:"title"`
	Description string                         `json:"description"`
	Format      string                         `json:"format,omitempty"`
	Hidden      bool                           `json:"hidden,omitempty"`
	CondRules   map[string][]map[string]string `json:"cond_formatting_rules,omitempty"`
}

func headers() map[string]header {
	return map[string]header{
		"matched": {
			Title:       "Matched",
			Description: "Whether reported sex is same as predicted sex",
			CondRules: map[string][]map[string]string{
				"pass": {{"s_eq": "True"}},
				"warn": {{"s_eq": "NA"}},
				"fail": {{"s_eq": "False"}},
			},
		},
		"reported_sex": {
			Title:       "Reported Sex",
			Description: "Expected sex reported in sample name",
			CondRules: map[string][]map[string]string{
				"warn": {{"s_eq": "N"}, {"s_eq": "U"}},
			},
		},
		"predicted_sex": {
			Title:       "Predicted Sex",
			Description: "Sex inferred from normalised score",
			CondRules: map[string][]map[string]string{
				"warn": {{"s_eq": "U"}},
			},
		},
		"score": {
			Title:       "Normalised ChrY Reads",
			Description: "Negative log of mapped_chrY/mapped_chr1",
			Format:      "{:.4f}",
		},
		"mapped_chrY": {
			Title:       "Mapped Reads ChrY",
			Description: "Number of reads mapped to chromosome Y",
		},
		"mapped_chr1": {
			Title:       "Mapped Reads Chr1",
			Description: "Number of reads mapped to chromosome 1",
		},
		"chrY_fraction": {
			Title:       "ChrY Fraction",
			Description: "Fraction of all mapped reads on chromosome Y",
			Format:      "{:.6f}",
			Hidden:      true,
		},
		"total_mapped": {
			Title:       "Total Mapped Reads",
			Description: "Number of mapped reads across all references",
			Hidden:      true,
		},
	}
}

// MultiQC writes the report as <prefix>_mqc.json and returns the path of the
// written file.
func MultiQC(r SampleReport, prefix string) (string, error) {
	cfg := multiqcConfig{
		ID:          "sex_check",
		SectionName: "Sex Check",
		Description: "Table comparing reported and predicted sex",
		PlotType:    "table",
		Pconfig: pconfig{
			ID:     "sex_check_table",
			Title:  "Sex Check Table",
			Format: "{:.0f}",
		},
		Headers: headers(),
		Data: map[string]sampleRow{
			r.Sample: {
				Matched:      r.Matched,
				ReportedSex:  r.ReportedSex,
				PredictedSex: r.PredictedSex,
				Score:        r.Score,
				MappedChrY:   r.MappedChrY,
				MappedChr1:   r.MappedChr1,
				YFraction:    r.YFraction,
				TotalMapped:  r.TotalMapped,
			},
		},
	}

	buf, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("unable to render report for %s: %w", r.Sample, err)
	}

	outfile := prefix + "_mqc.json"
	if err := os.WriteFile(outfile, buf, 0o644); err != nil {
		return "", fmt.Errorf("unable to write %s: %w", outfile, err)
	}
	return outfile, nil
}
