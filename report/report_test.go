package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eastgenomics/eggd-sex-check/predict"
)

func testReport() SampleReport {
	return SampleReport{
		Sample:       "X12345-GM1234567-23xxxx4-1234-F-12345678",
		Matched:      predict.MatchTrue,
		ReportedSex:  predict.Female,
		PredictedSex: predict.Female,
		Score:        6.2146,
		MappedChrY:   12,
		MappedChr1:   6000,
		YFraction:    0.0002,
		TotalMapped:  60000,
	}
}

func TestMultiQC(t *testing.T) {
	r := testReport()
	prefix := filepath.Join(t.TempDir(), "sample")

	outfile, err := MultiQC(r, prefix)
	require.NoError(t, err)
	assert.Equal(t, prefix+"_mqc.json", outfile)

	raw, err := os.ReadFile(outfile)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, "sex_check", got["id"])
	assert.Equal(t, "Sex Check", got["section_name"])
	assert.Equal(t, "table", got["plot_type"])

	data, ok := got["data"].(map[string]any)
	require.True(t, ok)
	row, ok := data[r.Sample].(map[string]any)
	require.True(t, ok, "data is not keyed by sample identifier")
	assert.Equal(t, "True", row["matched"])
	assert.Equal(t, "F", row["reported_sex"])
	assert.Equal(t, "F", row["predicted_sex"])
	assert.InDelta(t, 6.2146, row["score"], 1e-9)
	assert.EqualValues(t, 12, row["mapped_chrY"])
	assert.EqualValues(t, 6000, row["mapped_chr1"])
}

func TestMultiQCFormattingRules(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "sample")
	outfile, err := MultiQC(testReport(), prefix)
	require.NoError(t, err)

	raw, err := os.ReadFile(outfile)
	require.NoError(t, err)

	var got struct {
		Headers map[string]struct {
			CondRules map[string][]map[string]string `json:"cond_formatting_rules"`
		} `json:"headers"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))

	matched := got.Headers["matched"].CondRules
	assert.Equal(t, []map[string]string{{"s_eq": "True"}}, matched["pass"])
	assert.Equal(t, []map[string]string{{"s_eq": "NA"}}, matched["warn"])
	assert.Equal(t, []map[string]string{{"s_eq": "False"}}, matched["fail"])

	reported := got.Headers["reported_sex"].CondRules
	assert.Equal(t, []map[string]string{{"s_eq": "N"}, {"s_eq": "U"}}, reported["warn"])
}

func TestMultiQCUnwritableDir(t *testing.T) {
	_, err := MultiQC(testReport(), filepath.Join(t.TempDir(), "missing", "sample"))
	assert.Error(t, err)
}
