package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/maxhub/max-backend/internal/config"
	"github.com/maxhub/max-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	StatsPollTimeout = 1 * time.Second
	// StatsDebounce collapses queue entries that arrive while a group's
	// stats are already being recomputed this cycle.
	StatsDebounce = 500 * time.Millisecond
)

// StatsWorker keeps per-group attendance statistics warm in Redis.
// Every attendance save pushes the affected group ID onto a queue; the
// worker drains it and recomputes that group's stats.
type StatsWorker struct {
	rdb     *redis.Client
	reports *service.ReportService
	log     zerolog.Logger
}

func NewStatsWorker(rdb *redis.Client, reports *service.ReportService, log zerolog.Logger) *StatsWorker {
	return &StatsWorker{
		rdb:     rdb,
		reports: reports,
		log:     log.With().Str("component", "stats_worker").Logger(),
	}
}

func (w *StatsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("StatsWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return

		default:
			item, err := w.rdb.BLPop(ctx, StatsPollTimeout, config.WorkerKey.RefreshStatsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			groupID, err := strconv.Atoi(item[1])
			if err != nil {
				w.log.Error().Str("payload", item[1]).Msg("Invalid group ID payload")
				continue
			}

			w.refresh(ctx, groupID)
			w.drainDuplicates(ctx, groupID)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context, groupID int) {
	if err := w.reports.RefreshGroupStats(ctx, groupID); err != nil {
		w.log.Warn().Err(err).Int("group_id", groupID).Msg("Stats refresh failed — requeueing")
		w.rdb.RPush(ctx, config.WorkerKey.RefreshStatsQueue, strconv.Itoa(groupID))
		// Back off so a broken group doesn't spin the loop.
		select {
		case <-ctx.Done():
		case <-time.After(StatsDebounce):
		}
		return
	}
	w.log.Debug().Int("group_id", groupID).Msg("Group stats refreshed")
}

// drainDuplicates removes immediately following entries for the same
// group so a burst of saves triggers one recomputation, not many.
func (w *StatsWorker) drainDuplicates(ctx context.Context, groupID int) {
	payload := strconv.Itoa(groupID)
	for {
		next, err := w.rdb.LIndex(ctx, config.WorkerKey.RefreshStatsQueue, 0).Result()
		if err != nil || next != payload {
			return
		}
		if err := w.rdb.LPop(ctx, config.WorkerKey.RefreshStatsQueue).Err(); err != nil {
			return
		}
	}
}
