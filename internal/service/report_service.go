package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/maxhub/max-backend/internal/config"
	"github.com/maxhub/max-backend/internal/model"
	"github.com/maxhub/max-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ReportService produces attendance reports and per-group statistics.
// Rendering (xlsx/csv) is left to consumers; this service emits JSON
// shapes only.
type ReportService struct {
	attendanceRepo *repository.AttendanceRepository
	groupRepo      *repository.GroupRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(attendanceRepo *repository.AttendanceRepository, groupRepo *repository.GroupRepository, rdb *redis.Client, log zerolog.Logger) *ReportService {
	return &ReportService{
		attendanceRepo: attendanceRepo,
		groupRepo:      groupRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "report_service").Logger(),
	}
}

// DetailedReport returns filtered attendance records.
func (s *ReportService) DetailedReport(ctx context.Context, filter repository.ReportFilter) ([]model.AttendanceRecord, error) {
	return s.attendanceRepo.DetailedReport(ctx, filter)
}

// GroupsStats computes attendance stats for every group. Unfiltered
// queries read through the Redis cache kept warm by the stats worker;
// date-ranged queries always hit Postgres.
func (s *ReportService) GroupsStats(ctx context.Context, dateFrom, dateTo string) ([]repository.GroupStats, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	cacheable := dateFrom == "" && dateTo == ""

	stats := make([]repository.GroupStats, 0, len(groups))
	for _, g := range groups {
		if cacheable {
			if cached, ok := s.cachedStats(ctx, g.ID); ok {
				stats = append(stats, *cached)
				continue
			}
		}

		st, err := s.attendanceRepo.StatsForGroup(ctx, g.ID, dateFrom, dateTo)
		if err != nil {
			// One failing group should not hide the others' stats.
			s.log.Warn().Err(err).Int("group_id", g.ID).Msg("Group stats query failed")
			continue
		}
		stats = append(stats, *st)

		if cacheable {
			s.storeStats(ctx, st)
		}
	}
	return stats, nil
}

// RefreshGroupStats recomputes and caches one group's stats. Called by
// the stats worker after attendance saves.
func (s *ReportService) RefreshGroupStats(ctx context.Context, groupID int) error {
	st, err := s.attendanceRepo.StatsForGroup(ctx, groupID, "", "")
	if err != nil {
		return err
	}
	s.storeStats(ctx, st)
	return nil
}

func (s *ReportService) cachedStats(ctx context.Context, groupID int) (*repository.GroupStats, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, config.CacheKey.GroupStatsKey(groupID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Debug().Err(err).Msg("Stats cache read failed")
		}
		return nil, false
	}
	st := &repository.GroupStats{}
	if err := json.Unmarshal([]byte(raw), st); err != nil {
		return nil, false
	}
	return st, true
}

func (s *ReportService) storeStats(ctx context.Context, st *repository.GroupStats) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.GroupStatsKey(st.GroupID), raw, 0).Err(); err != nil {
		s.log.Debug().Err(err).Msg("Stats cache write failed")
	}
}
