package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/repository"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
)

type statsProvider interface {
	StudentBillStats(ctx context.Context, userID string) (*models.StudentBillStats, error)
	StudentPaymentStats(ctx context.Context, userID string) (*models.StudentPaymentStats, error)
	AdminDashboardStats(ctx context.Context) (*models.AdminDashboardStats, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// DashboardService serves cached dashboard aggregates. Reads go through
// the cache first and fall back to the stats queries on a miss.
type DashboardService struct {
	stats   statsProvider
	cache   dashboardCache
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(stats statsProvider, cache dashboardCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{stats: stats, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// StudentDashboard returns the billing and payment summary for one student.
func (s *DashboardService) StudentDashboard(ctx context.Context, userID string) (*models.StudentDashboardStats, error) {
	key := repository.StudentDashboardKey(userID)

	var cached models.StudentDashboardStats
	start := time.Now()
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		s.metrics.RecordCacheOperation(true, time.Since(start))
		return &cached, nil
	}
	s.metrics.RecordCacheOperation(false, time.Since(start))
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("student dashboard cache read failed", zap.String("key", key), zap.Error(err))
	}

	billStats, err := s.stats.StudentBillStats(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bill stats")
	}
	paymentStats, err := s.stats.StudentPaymentStats(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment stats")
	}

	dashboard := &models.StudentDashboardStats{
		BillStats:    *billStats,
		PaymentStats: *paymentStats,
	}

	if err := s.cache.Set(ctx, key, dashboard, s.ttl); err != nil {
		s.logger.Warn("student dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return dashboard, nil
}

// AdminDashboard returns the portal-wide billing summary.
func (s *DashboardService) AdminDashboard(ctx context.Context) (*models.AdminDashboardStats, error) {
	key := repository.AdminDashboardKey()

	var cached models.AdminDashboardStats
	start := time.Now()
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		s.metrics.RecordCacheOperation(true, time.Since(start))
		return &cached, nil
	}
	s.metrics.RecordCacheOperation(false, time.Since(start))
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("admin dashboard cache read failed", zap.String("key", key), zap.Error(err))
	}

	stats, err := s.stats.AdminDashboardStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin stats")
	}

	if err := s.cache.Set(ctx, key, stats, s.ttl); err != nil {
		s.logger.Warn("admin dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return stats, nil
}

// InvalidateStudent drops one student's cached dashboard.
func (s *DashboardService) InvalidateStudent(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, repository.StudentDashboardKey(userID)); err != nil {
		s.logger.Warn("student dashboard invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// InvalidateAdmin drops the cached admin dashboard.
func (s *DashboardService) InvalidateAdmin(ctx context.Context) {
	if err := s.cache.Delete(ctx, repository.AdminDashboardKey()); err != nil {
		s.logger.Warn("admin dashboard invalidation failed", zap.Error(err))
	}
}

// InvalidateAllStudents drops every cached student dashboard. Used when a
// change affects balances across the board, such as a new bill assignment.
func (s *DashboardService) InvalidateAllStudents(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, repository.StudentDashboardPattern); err != nil {
		s.logger.Warn("bulk dashboard invalidation failed", zap.Error(err))
	}
}
