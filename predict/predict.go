package predict

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Epsilon keeps the log defined when there is no chrY signal. A ratio of
// exactly zero maps to -ln(1e-9), roughly 20.7233.
const Epsilon = 1e-9

// SexLabel represents a sex call.
type SexLabel string

const (
	Male         SexLabel = "M"
	Female       SexLabel = "F"
	Undetermined SexLabel = "U"
	// NotReported is only ever produced while parsing sample names; the
	// classifier never emits it.
	NotReported SexLabel = "N"
)

// MatchResult compares a reported sex against a predicted one. MultiQC
// conditional formatting matches on these exact strings, so they are tags
// rather than booleans.
type MatchResult string

const (
	MatchTrue  MatchResult = "True"
	MatchFalse MatchResult = "False"
	MatchNA    MatchResult = "NA"
)

// ErrThresholdOrder is returned when the male threshold is not strictly below
// the female threshold.
var ErrThresholdOrder = errors.New("male threshold must be less than female threshold")

// Thresholds delimit the three score regions: male at or below Male, female
// at or above Female, undetermined in between.
type Thresholds struct {
	Male   float64
	Female float64
}

func (t Thresholds) Validate() error {
	if t.Male >= t.Female {
		return fmt.Errorf("invalid thresholds (male %g, female %g): %w", t.Male, t.Female, ErrThresholdOrder)
	}
	return nil
}

// Score converts chromosome 1 and Y mapped read counts into a normalised
// score, -ln(chrY/chr1 + epsilon). Higher score means relatively fewer chrY
// reads. A zero chr1 count is treated as a zero ratio, not a division error,
// so the result is always finite.
func Score(chr1, chrY int64) float64 {
	ratio := 0.0
	if chr1 != 0 {
		ratio = float64(chrY) / float64(chr1)
	}
	return -math.Log(ratio + Epsilon)
}

// Classify maps a score to a sex call. Ties at either threshold resolve to
// the determinate call, never to Undetermined.
func Classify(score float64, t Thresholds) (SexLabel, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	switch {
	case score <= t.Male:
		return Male, nil
	case score >= t.Female:
		return Female, nil
	default:
		return Undetermined, nil
	}
}

// ReportedSex extracts the sex encoded in a sample name. The naming
// convention joins fields with "-" and carries the sex in the second-to-last
// field. Names too short to carry a sex field, or carrying an unrecognised
// token, resolve to NotReported with a logged warning.
func ReportedSex(sample string, log *slog.Logger) SexLabel {
	if log == nil {
		log = slog.Default()
	}
	parts := strings.Split(sample, "-")
	if len(parts) < 3 {
		log.Warn(sample + " is too short to determine sex. Returning N")
		return NotReported
	}
	sex := SexLabel(strings.ToUpper(parts[len(parts)-2]))
	switch sex {
	case Male, Female, Undetermined:
		return sex
	}
	log.Warn("Extracted " + string(sex) + " from " + sample + " is invalid. Returning N")
	return NotReported
}

// Match compares the reported sex against the predicted one. A reported N or
// U carries no determinate claim to check, so the result is NA.
func Match(reported, predicted SexLabel) MatchResult {
	if reported == NotReported || reported == Undetermined {
		return MatchNA
	}
	if reported == predicted {
		return MatchTrue
	}
	return MatchFalse
}

// YFraction returns the share of all mapped reads that landed on chrY, or 0
// when nothing mapped at all.
func YFraction(chrY float64, mapped []float64) float64 {
	total := floats.Sum(mapped)
	if total == 0 {
		return 0
	}
	return chrY / total
}
