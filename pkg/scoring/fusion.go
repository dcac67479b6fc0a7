package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/MrWong99/enunciate/pkg/types"
)

// weightSumTolerance is how far the sum of [Weights] may drift from 1.0.
const weightSumTolerance = 1e-6

// Weights are the fusion coefficients of the three signals.
type Weights struct {
	Speech   float64 `yaml:"speech" json:"speech"`
	Audio    float64 `yaml:"audio" json:"audio"`
	Phonetic float64 `yaml:"phonetic" json:"phonetic"`
}

// DefaultWeights returns the standard 0.5 / 0.3 / 0.2 split.
func DefaultWeights() Weights {
	return Weights{Speech: 0.5, Audio: 0.3, Phonetic: 0.2}
}

// Sum returns the total of all three weights.
func (w Weights) Sum() float64 { return w.Speech + w.Audio + w.Phonetic }

// Validate rejects negative weights and weights that do not sum to 1.0.
func (w Weights) Validate() error {
	var errs []error
	if w.Speech < 0 {
		errs = append(errs, fmt.Errorf("speech weight %.3f is negative", w.Speech))
	}
	if w.Audio < 0 {
		errs = append(errs, fmt.Errorf("audio weight %.3f is negative", w.Audio))
	}
	if w.Phonetic < 0 {
		errs = append(errs, fmt.Errorf("phonetic weight %.3f is negative", w.Phonetic))
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		errs = append(errs, fmt.Errorf("weights sum to %.6f, want 1.0", sum))
	}
	return errors.Join(errs...)
}

// Normalize rescales w so the weights sum to 1.0. It fails for negative
// weights or an all-zero set.
func (w Weights) Normalize() (Weights, error) {
	if w.Speech < 0 || w.Audio < 0 || w.Phonetic < 0 {
		return Weights{}, errors.New("scoring: cannot normalize negative weights")
	}
	sum := w.Sum()
	if sum == 0 {
		return Weights{}, errors.New("scoring: cannot normalize all-zero weights")
	}
	return Weights{Speech: w.Speech / sum, Audio: w.Audio / sum, Phonetic: w.Phonetic / sum}, nil
}

// Thresholds map the final accuracy onto feedback tiers.
type Thresholds struct {
	Excellent int `yaml:"excellent" json:"excellent"`
	Good      int `yaml:"good" json:"good"`

	// NeedsImprovement does not change the tier; it marks the level below
	// which an attempt is treated as not matching at all.
	NeedsImprovement int `yaml:"needs_improvement" json:"needs_improvement"`
}

// DefaultThresholds returns {85, 70, 50}.
func DefaultThresholds() Thresholds {
	return Thresholds{Excellent: 85, Good: 70, NeedsImprovement: 50}
}

// Validate requires 0 <= NeedsImprovement <= Good <= Excellent <= 100.
func (t Thresholds) Validate() error {
	if t.NeedsImprovement < 0 || t.NeedsImprovement > t.Good || t.Good > t.Excellent || t.Excellent > 100 {
		return fmt.Errorf("thresholds must satisfy 0 <= needs_improvement (%d) <= good (%d) <= excellent (%d) <= 100",
			t.NeedsImprovement, t.Good, t.Excellent)
	}
	return nil
}

// Tier returns the feedback tier for a final accuracy score.
func (t Thresholds) Tier(final int) types.Tier {
	switch {
	case final >= t.Excellent:
		return types.TierExcellent
	case final >= t.Good:
		return types.TierGood
	default:
		return types.TierNeedsImprovement
	}
}

// Fuse merges the three signals with w and clamps the result to [0, 100].
func Fuse(speech, audio, phonetic int, w Weights) int {
	total := float64(speech)*w.Speech + float64(audio)*w.Audio + float64(phonetic)*w.Phonetic
	return clamp(int(math.Round(total)), 0, 100)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
