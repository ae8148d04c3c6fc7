package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scorebug/scorebug-server/internal/repository"
)

const pruneTimeout = time.Minute

// HistoryPruner deletes link events older than the retention window.
type HistoryPruner struct {
	events    repository.LinkEventRepository
	retention time.Duration
	interval  time.Duration
	done      chan struct{}
}

func NewHistoryPruner(events repository.LinkEventRepository, retention, interval time.Duration) *HistoryPruner {
	return &HistoryPruner{
		events:    events,
		retention: retention,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

func (j *HistoryPruner) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("history pruner started")
}

func (j *HistoryPruner) Stop() {
	close(j.done)
	log.Info().Msg("history pruner stopped")
}

func (j *HistoryPruner) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.prune()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.prune()
		}
	}
}

func (j *HistoryPruner) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	deleted, err := j.events.DeleteOlderThan(ctx, j.retention)
	if err != nil {
		log.Error().Err(err).Msg("history prune failed")
		return
	}

	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Dur("retention", j.retention).Msg("pruned link events")
	}
}
