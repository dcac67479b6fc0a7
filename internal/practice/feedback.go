package practice

import (
	"github.com/MrWong99/enunciate/internal/config"
	"github.com/MrWong99/enunciate/pkg/scoring"
	"github.com/MrWong99/enunciate/pkg/types"
)

// Compose builds the feedback for a breakdown. The message follows the
// breakdown's tier, except that a final accuracy below the needs-improvement
// threshold gets the no-match message. Needs-improvement feedback also
// carries the tip returned by pickTip; pickTip may be nil.
func Compose(b types.ScoreBreakdown, th scoring.Thresholds, msgs config.Messages, pickTip func() string) Feedback {
	fb := Feedback{Tier: b.Tier}
	switch b.Tier {
	case types.TierExcellent:
		fb.Message = msgs.Excellent
	case types.TierGood:
		fb.Message = msgs.Good
	default:
		fb.Message = msgs.NeedsImprovement
		if b.FinalAccuracy < th.NeedsImprovement && msgs.NoMatch != "" {
			fb.Message = msgs.NoMatch
		}
		if pickTip != nil {
			fb.Tip = pickTip()
		}
	}
	return fb
}
