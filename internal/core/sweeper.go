package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically evicts channels idle beyond a threshold.
type Sweeper struct {
	registry *Registry
	interval time.Duration
	idleTTL  time.Duration
	log      *zerolog.Logger
}

// NewSweeper creates an eviction sweeper. interval controls how often a
// sweep cycle runs; idleTTL is how long a channel may stay inactive before
// eviction.
func NewSweeper(registry *Registry, interval, idleTTL time.Duration, logger *zerolog.Logger) *Sweeper {
	return &Sweeper{
		registry: registry,
		interval: interval,
		idleTTL:  idleTTL,
		log:      logger,
	}
}

// Run executes sweep cycles on the configured period until ctx is
// cancelled. A failing cycle is logged and the next cycle proceeds.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info().
		Dur("interval", s.interval).
		Dur("idle_ttl", s.idleTTL).
		Msg("eviction sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("eviction sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep runs one eviction cycle over every kind namespace.
func (s *Sweeper) sweep(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("sweep cycle failed")
		}
	}()

	for _, kind := range Kinds {
		s.registry.ForEach(kind, func(ch *Channel) {
			if now.Sub(ch.LastActive()) <= s.idleTTL {
				return
			}
			s.registry.Remove(kind, ch.Token)
			ch.destroy("channel evicted")
			s.log.Info().
				Str("kind", string(kind)).
				Str("chat_token", ch.Token).
				Time("last_active", ch.LastActive()).
				Msg("evicted idle channel")
		})
	}
}
