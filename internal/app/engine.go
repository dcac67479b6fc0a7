package app

import (
	"context"
	"sync/atomic"

	"github.com/MrWong99/enunciate/internal/config"
	"github.com/MrWong99/enunciate/internal/practice"
	"github.com/MrWong99/enunciate/pkg/scoring"
	"github.com/MrWong99/enunciate/pkg/types"
)

var _ practice.Scorer = (*engineHolder)(nil)

// engineHolder routes every scoring pass to the current engine. Reloads
// swap the engine without disturbing passes already running.
type engineHolder struct {
	current  atomic.Pointer[scoring.Engine]
	observer scoring.Observer
}

func newEngineHolder(cfg config.ScoringConfig, observer scoring.Observer) (*engineHolder, error) {
	h := &engineHolder{observer: observer}
	if err := h.rebuild(cfg); err != nil {
		return nil, err
	}
	return h, nil
}

// rebuild builds an engine from cfg and makes it current. On error the
// previous engine stays in place.
func (h *engineHolder) rebuild(cfg config.ScoringConfig) error {
	opts := cfg.EngineOptions()
	if h.observer != nil {
		opts = append(opts, scoring.WithObserver(h.observer))
	}
	e, err := scoring.New(opts...)
	if err != nil {
		return err
	}
	h.current.Store(e)
	return nil
}

func (h *engineHolder) Score(ctx context.Context, in scoring.Input) types.ScoreBreakdown {
	return h.current.Load().Score(ctx, in)
}

func (h *engineHolder) Thresholds() scoring.Thresholds {
	return h.current.Load().Thresholds()
}
