// Package scoring turns a learner's spoken attempt into a 0–100 accuracy
// score and a feedback tier.
//
// Three independent signals are computed per attempt:
//
//  1. Speech recognition: token similarity between the expected text and a
//     recognized transcript ([ScoreTranscript]). When no transcript exists a
//     metadata-only estimate is used instead ([FallbackSpeech] or
//     [BasicSpeech]).
//
//  2. Audio analysis: duration, size and byte-rate heuristics over the
//     recording metadata ([ScoreAudio]).
//
//  3. Phonetic baseline: a prior derived from item difficulty, word
//     complexity and recording usability ([ScorePhonetic]).
//
// [Engine.Score] fuses them with configurable [Weights] and maps the result
// onto a tier with [Thresholds]. Every function here is pure: the same input
// always yields the same [types.ScoreBreakdown].
package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrWong99/enunciate/pkg/types"
)

// ErrEmptyText is returned by scorers when the practice item has no text.
var ErrEmptyText = errors.New("scoring: practice item has no text")

// FallbackPolicy selects the speech estimate used when no transcript exists.
type FallbackPolicy string

const (
	// FallbackCoarse uses [FallbackSpeech]. This is the default.
	FallbackCoarse FallbackPolicy = "coarse"

	// FallbackBasic uses [BasicSpeech].
	FallbackBasic FallbackPolicy = "basic"
)

// IsValid reports whether p is a known policy.
func (p FallbackPolicy) IsValid() bool {
	return p == FallbackCoarse || p == FallbackBasic
}

// Observer receives notifications about scoring passes. Implementations must
// be safe for concurrent use and must not block.
type Observer interface {
	// ObserveScore is called once per completed pass.
	ObserveScore(ctx context.Context, b types.ScoreBreakdown)

	// ObserveFault is called when a scorer fails and its fallback value is
	// substituted.
	ObserveFault(ctx context.Context, scorer string, err error)
}

// Input bundles everything one scoring pass needs.
type Input struct {
	Item      types.PracticeItem
	Recording types.RecordingMetadata

	// Recognition is nil when no transcript was produced for the attempt.
	Recognition *types.RecognitionResult
}

// Option is a functional option for [New].
type Option func(*Engine)

// WithWeights overrides the fusion weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithThresholds overrides the tier thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) { e.thresholds = t }
}

// WithFallbackPolicy selects the no-transcript speech estimate.
func WithFallbackPolicy(p FallbackPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithLogger sets the logger used to report scorer faults.
// Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithObserver attaches an [Observer].
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine computes [types.ScoreBreakdown] values. It is immutable after [New]
// and safe for concurrent use.
type Engine struct {
	weights    Weights
	thresholds Thresholds
	policy     FallbackPolicy
	log        *slog.Logger
	observer   Observer
}

// New creates an Engine. Invalid weights, thresholds or policy are reported
// here rather than during scoring.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		weights:    DefaultWeights(),
		thresholds: DefaultThresholds(),
		policy:     FallbackCoarse,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}

	var errs []error
	if err := e.weights.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := e.thresholds.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !e.policy.IsValid() {
		errs = append(errs, fmt.Errorf("unknown fallback policy %q; valid values: coarse, basic", e.policy))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("scoring: invalid configuration: %w", err)
	}
	return e, nil
}

// Weights returns the fusion weights in use.
func (e *Engine) Weights() Weights { return e.weights }

// Thresholds returns the tier thresholds in use.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// Policy returns the no-transcript policy in use.
func (e *Engine) Policy() FallbackPolicy { return e.policy }

// Score runs one scoring pass. It always returns a complete breakdown: a
// scorer that fails is replaced by its fixed fallback value.
func (e *Engine) Score(ctx context.Context, in Input) types.ScoreBreakdown {
	item := in.Item
	meta := in.Recording.Sanitized()

	speech, source := 0, types.SourceFallback
	if rec := in.Recognition; rec != nil && strings.TrimSpace(rec.RecognizedText) != "" {
		s, ok := e.guard(ctx, "transcript", func() (int, error) {
			if strings.TrimSpace(item.Text) == "" {
				return 0, ErrEmptyText
			}
			return ScoreTranscript(item.Text, rec.RecognizedText).Score, nil
		})
		if ok {
			speech, source = s, types.SourceTranscript
		}
	}
	if source == types.SourceFallback {
		speech = e.noTranscript(ctx, item, meta)
	}

	audio, ok := e.guard(ctx, "audio", func() (int, error) { return ScoreAudio(item, meta) })
	if !ok {
		audio = AudioFallbackScore
	}
	phonetic, ok := e.guard(ctx, "phonetic", func() (int, error) { return ScorePhonetic(item, meta) })
	if !ok {
		phonetic = PhoneticFallbackScore
	}

	final := Fuse(speech, audio, phonetic, e.weights)
	b := types.ScoreBreakdown{
		SpeechRecognition: speech,
		AudioAnalysis:     audio,
		Phonetic:          phonetic,
		FinalAccuracy:     final,
		Tier:              e.thresholds.Tier(final),
		SpeechSource:      source,
	}
	if e.observer != nil {
		e.observer.ObserveScore(ctx, b)
	}
	return b
}

// noTranscript computes the speech surrogate with the configured policy.
func (e *Engine) noTranscript(ctx context.Context, item types.PracticeItem, meta types.RecordingMetadata) int {
	estimate := FallbackSpeech
	if e.policy == FallbackBasic {
		estimate = BasicSpeech
	}
	s, ok := e.guard(ctx, "fallback_speech", func() (int, error) { return estimate(item, meta) })
	if !ok {
		return SpeechFallbackFloor
	}
	return s
}

// guard runs fn and reports whether it produced a usable score. Errors and
// panics are logged and forwarded to the observer.
func (e *Engine) guard(ctx context.Context, scorer string, fn func() (int, error)) (score int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.fault(ctx, scorer, fmt.Errorf("scoring: %s scorer panicked: %v", scorer, r))
			score, ok = 0, false
		}
	}()

	s, err := fn()
	if err != nil {
		e.fault(ctx, scorer, err)
		return 0, false
	}
	return s, true
}

func (e *Engine) fault(ctx context.Context, scorer string, err error) {
	e.log.WarnContext(ctx, "scoring: scorer failed, using fallback value", "scorer", scorer, "err", err)
	if e.observer != nil {
		e.observer.ObserveFault(ctx, scorer, err)
	}
}
