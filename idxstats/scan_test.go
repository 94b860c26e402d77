package idxstats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/sbinet/npyio/npz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mappedRecord(t *testing.T, name string, ref *sam.Reference, pos int) *sam.Record {
	t.Helper()
	rec, err := sam.NewRecord(name, ref, nil, pos, -1, 0, 30,
		[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 4)},
		[]byte("ACGT"), []byte{30, 30, 30, 30}, nil)
	require.NoError(t, err)
	return rec
}

func writeBAM(t *testing.T) string {
	t.Helper()

	ref1, err := sam.NewReference("1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	refY, err := sam.NewReference("Y", "", "", 500, nil, nil)
	require.NoError(t, err)
	refM, err := sam.NewReference("chrM", "", "", 16000, nil, nil)
	require.NoError(t, err)

	h, err := sam.NewHeader(nil, []*sam.Reference{ref1, refY, refM})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "test.bam")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := bam.NewWriter(f, h, 1)
	require.NoError(t, err)

	dup := mappedRecord(t, "dup1", ref1, 20)
	dup.Flags |= sam.Duplicate

	for _, rec := range []*sam.Record{
		mappedRecord(t, "read1", ref1, 10),
		dup,
		mappedRecord(t, "ready", refY, 30),
		mappedRecord(t, "readm", refM, 40),
	} {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestScanner(t *testing.T) {
	bamfile := writeBAM(t)
	prefix := filepath.Join(t.TempDir(), "test")

	tsv, err := Scanner{}.Idxstats(bamfile, prefix)
	require.NoError(t, err)
	assert.Equal(t, prefix+"_idxstat.tsv", tsv)

	content, err := os.ReadFile(tsv)
	require.NoError(t, err)
	// chrM is excluded by the default contig glob, the duplicate on chromosome
	// 1 is not counted
	assert.Equal(t, "1\t1000\t1\t0\nY\t500\t1\t0\n", string(content))

	counts, err := MappedReads(tsv, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Chr1)
	assert.Equal(t, int64(1), counts.ChrY)
}

func TestScannerKeepDuplicates(t *testing.T) {
	bamfile := writeBAM(t)
	prefix := filepath.Join(t.TempDir(), "test")

	tsv, err := Scanner{KeepDuplicates: true}.Idxstats(bamfile, prefix)
	require.NoError(t, err)

	counts, err := MappedReads(tsv, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Chr1)
}

func TestScannerWriteNpz(t *testing.T) {
	bamfile := writeBAM(t)
	prefix := filepath.Join(t.TempDir(), "test")

	_, err := Scanner{WriteNpz: true}.Idxstats(bamfile, prefix)
	require.NoError(t, err)
	require.FileExists(t, prefix+".npz")

	f, err := npz.Open(prefix + ".npz")
	require.NoError(t, err)
	defer f.Close()

	var mapped float64
	require.NoError(t, f.Read("Y", &mapped))
	assert.Equal(t, 1.0, mapped)
}

func TestScannerBadGlob(t *testing.T) {
	bamfile := writeBAM(t)
	_, err := Scanner{ExcludeContigs: "{unclosed"}.Idxstats(bamfile, filepath.Join(t.TempDir(), "test"))
	assert.ErrorContains(t, err, "contig exclusion glob")
}

func TestScannerMissingFile(t *testing.T) {
	_, err := Scanner{}.Idxstats(filepath.Join(t.TempDir(), "nope.bam"), "out")
	assert.Error(t, err)
}
