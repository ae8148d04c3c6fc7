package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scorebug/scorebug-server/internal/nhl"
	"github.com/scorebug/scorebug-server/internal/repository"
)

const refreshTimeout = 30 * time.Second

// ScheduleRefresher keeps the day's schedule warm in the cache so
// display polls are served locally instead of hitting the stats API.
type ScheduleRefresher struct {
	scores   *nhl.Client
	cache    repository.ScheduleCache
	interval time.Duration
	done     chan struct{}
}

func NewScheduleRefresher(scores *nhl.Client, cache repository.ScheduleCache, interval time.Duration) *ScheduleRefresher {
	return &ScheduleRefresher{
		scores:   scores,
		cache:    cache,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *ScheduleRefresher) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("schedule refresher started")
}

func (j *ScheduleRefresher) Stop() {
	close(j.done)
	log.Info().Msg("schedule refresher stopped")
}

func (j *ScheduleRefresher) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.refresh()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.refresh()
		}
	}
}

func (j *ScheduleRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	date := time.Now().Format("2006-01-02")

	payload, err := j.scores.Schedule(ctx, date)
	if err != nil {
		log.Error().Err(err).Msg("schedule refresh fetch failed")
		return
	}

	if apiErr, isErr := nhl.IsErrorPayload(payload); isErr {
		log.Warn().Int("messageNumber", apiErr.MessageNumber).Str("message", apiErr.Message).
			Msg("schedule refresh got error payload, not caching")
		return
	}

	if err := j.cache.SaveSchedule(ctx, date, payload); err != nil {
		log.Error().Err(err).Msg("schedule refresh cache write failed")
		return
	}

	log.Debug().Str("date", date).Msg("schedule cache refreshed")
}
