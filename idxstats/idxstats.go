package idxstats

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Default chromosome labels looked up in idxstats output. Exact matches only,
// so a "11" row never satisfies "1".
var (
	DefaultChr1Labels = []string{"1"}
	DefaultChrYLabels = []string{"Y"}
)

// Indexer produces a mapped-read summary for an alignment file: one row per
// reference sequence in samtools idxstats format (name, length, mapped,
// unmapped, tab separated). It returns the path of the written TSV.
type Indexer interface {
	Idxstats(bamfile string, prefix string) (string, error)
}

// Samtools runs `samtools idxstats` as a subprocess and captures its stdout.
type Samtools struct {
	// Executable is the samtools binary to invoke, "samtools" when empty.
	Executable string
}

func (s Samtools) Idxstats(bamfile string, prefix string) (string, error) {
	exe := s.Executable
	if exe == "" {
		exe = "samtools"
	}

	outfile := prefix + "_idxstat.tsv"
	out, err := os.Create(outfile)
	if err != nil {
		return "", fmt.Errorf("unable to create %s: %w", outfile, err)
	}
	defer out.Close()

	cmd := exec.Command(exe, "idxstats", bamfile)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("samtools idxstats on %s: %w", bamfile, err)
	}
	return outfile, nil
}

// Counts holds the mapped-read counts extracted from idxstats output.
type Counts struct {
	Chr1 int64
	ChrY int64
	// Mapped carries the mapped count of every parseable row, for whole
	// sample statistics.
	Mapped []float64
}

// Total returns the number of mapped reads across all references.
func (c Counts) Total() int64 {
	return int64(floats.Sum(c.Mapped))
}

// MappedReads parses an idxstats TSV and extracts the mapped read counts for
// chromosomes 1 and Y. The first row whose leading field exactly equals one
// of the given labels wins; later duplicates are ignored. A missing
// chromosome counts as 0 with a logged warning. The mapped count sits in the
// second-to-last field and must parse as an integer on matched rows.
func MappedReads(path string, chr1Labels, chrYLabels []string, log *slog.Logger) (Counts, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(chr1Labels) == 0 {
		chr1Labels = DefaultChr1Labels
	}
	if len(chrYLabels) == 0 {
		chrYLabels = DefaultChrYLabels
	}

	f, err := os.Open(path)
	if err != nil {
		return Counts{}, fmt.Errorf("unable to open idxstats output: %w", err)
	}
	defer f.Close()

	var c Counts
	found1, foundY := false, false
	line := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		name := fields[0]
		is1 := !found1 && hasLabel(chr1Labels, name)
		isY := !foundY && hasLabel(chrYLabels, name)

		n, err := strconv.ParseInt(fields[len(fields)-2], 10, 64)
		if err != nil {
			if is1 || isY {
				return Counts{}, fmt.Errorf("unable to parse mapped read count on line %d of %s: %w", line, path, err)
			}
			// malformed row for a chromosome we do not use
			continue
		}
		c.Mapped = append(c.Mapped, float64(n))

		switch {
		case is1:
			c.Chr1 = n
			found1 = true
		case isY:
			c.ChrY = n
			foundY = true
		}
	}
	if err := scanner.Err(); err != nil {
		return Counts{}, fmt.Errorf("unable to read %s: %w", path, err)
	}

	if !found1 {
		log.Warn("No mapped reads for chromosome 1. Using 0 instead.")
	}
	if !foundY {
		log.Warn("No mapped reads for chromosome Y. Using 0 instead.")
	}
	return c, nil
}

func hasLabel(labels []string, name string) bool {
	for _, l := range labels {
		if name == l {
			return true
		}
	}
	return false
}
