package idxstats

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/sbinet/npyio/npz"

	"v.io/v23/glob"
)

// DefaultExcludeContigs matches the decoy and alt contigs that carry no
// useful signal for sex determination.
const DefaultExcludeContigs = "{*_alt,*_decoy,*_random,chrUn*,HLA*,chrM,chrEBV}"

// Scanner is an Indexer that counts mapped reads per reference straight from
// the BAM, without shelling out to samtools. Secondary and supplementary
// alignments are not counted, duplicates optionally so.
type Scanner struct {
	ExcludeContigs string
	KeepDuplicates bool
	// WriteNpz additionally persists the per-chromosome mapped counts as
	// <prefix>.npz.
	WriteNpz bool
}

func (s Scanner) Idxstats(bamfile string, prefix string) (string, error) {
	f, err := os.Open(bamfile)
	if err != nil {
		return "", fmt.Errorf("unable to open bam file %s: %w", bamfile, err)
	}
	defer f.Close()

	b, err := bam.NewReader(f, 0)
	if err != nil {
		return "", fmt.Errorf("unable to read bam file %s: %w", bamfile, err)
	}
	defer b.Close()

	pattern := s.ExcludeContigs
	if pattern == "" {
		pattern = DefaultExcludeContigs
	}
	excludeContigsGlob, err := glob.Parse(pattern)
	if err != nil {
		return "", fmt.Errorf("unable to parse contig exclusion glob: %w", err)
	}

	type row struct {
		name             string
		length           int64
		mapped, unmapped int64
	}
	rows := make([]row, 0, len(b.Header().Refs()))
	index := make(map[string]int)
	for _, ref := range b.Header().Refs() {
		if excludeContigsGlob.Head().Match(ref.Name()) {
			continue
		}
		index[ref.Name()] = len(rows)
		rows = append(rows, row{name: ref.Name(), length: int64(ref.Len())})
	}

	currentChromosome := ""
	for {
		samRecord, err := b.Read()
		if err != nil {
			break
		}
		if samRecord.Ref == nil {
			continue
		}
		i, ok := index[samRecord.Ref.Name()]
		if !ok {
			continue
		}

		if currentChromosome != samRecord.Ref.Name() {
			slog.Info("Processing chromosome: " + samRecord.Ref.Name())
			currentChromosome = samRecord.Ref.Name()
		}

		if samRecord.Flags&sam.Duplicate != 0 && !s.KeepDuplicates {
			continue
		}
		if samRecord.Flags&sam.Unmapped != 0 {
			rows[i].unmapped++
			continue
		}
		if samRecord.Flags&sam.Secondary != 0 || samRecord.Flags&sam.Supplementary != 0 {
			continue
		}
		rows[i].mapped++
	}

	outfile := prefix + "_idxstat.tsv"
	out, err := os.Create(outfile)
	if err != nil {
		return "", fmt.Errorf("unable to create %s: %w", outfile, err)
	}
	for _, r := range rows {
		fmt.Fprintf(out, "%s\t%d\t%d\t%d\n", r.name, r.length, r.mapped, r.unmapped)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("unable to write %s: %w", outfile, err)
	}

	if s.WriteNpz {
		counts := make(map[string]float64, len(rows))
		for _, r := range rows {
			counts[r.name] = float64(r.mapped)
		}
		if err := writeNpz(prefix+".npz", counts); err != nil {
			return "", err
		}
	}
	return outfile, nil
}

func writeNpz(path string, counts map[string]float64) error {
	f, err := npz.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create file %s: %w", path, err)
	}
	defer f.Close()

	for chromosome, mapped := range counts {
		if err := f.Write(chromosome, mapped); err != nil {
			return fmt.Errorf("unable to write to file %s: %w", path, err)
		}
	}
	return f.Close()
}
