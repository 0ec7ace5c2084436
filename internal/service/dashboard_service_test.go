package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fms-portal-api/internal/models"
	"github.com/noah-isme/fms-portal-api/internal/repository"
	appErrors "github.com/noah-isme/fms-portal-api/pkg/errors"
)

type fakeStats struct {
	billCalls    int
	paymentCalls int
	adminCalls   int
}

func (f *fakeStats) StudentBillStats(_ context.Context, _ string) (*models.StudentBillStats, error) {
	f.billCalls++
	return &models.StudentBillStats{BillCount: 3, TotalUnpaid: 150000}, nil
}

func (f *fakeStats) StudentPaymentStats(_ context.Context, _ string) (*models.StudentPaymentStats, error) {
	f.paymentCalls++
	return &models.StudentPaymentStats{PaymentCount: 2, TotalSettled: 100000}, nil
}

func (f *fakeStats) AdminDashboardStats(_ context.Context) (*models.AdminDashboardStats, error) {
	f.adminCalls++
	return &models.AdminDashboardStats{StudentCount: 40, TotalCollected: 900000}, nil
}

type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) DeleteByPattern(_ context.Context, _ string) error {
	for key := range c.entries {
		delete(c.entries, key)
	}
	return nil
}

func TestStudentDashboardCachesAggregates(t *testing.T) {
	stats := &fakeStats{}
	cache := newMemoryCache()
	svc := NewDashboardService(stats, cache, NewMetricsService(), time.Minute, nil)

	first, err := svc.StudentDashboard(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, first.BillStats.BillCount)
	assert.Equal(t, 1, stats.billCalls)

	second, err := svc.StudentDashboard(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, stats.billCalls, "second read should come from cache")
	assert.Equal(t, 1, stats.paymentCalls)
}

func TestStudentDashboardIsKeyedPerStudent(t *testing.T) {
	stats := &fakeStats{}
	cache := newMemoryCache()
	svc := NewDashboardService(stats, cache, NewMetricsService(), time.Minute, nil)

	_, err := svc.StudentDashboard(context.Background(), "u1")
	require.NoError(t, err)
	_, err = svc.StudentDashboard(context.Background(), "u2")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.billCalls)
	assert.Contains(t, cache.entries, repository.StudentDashboardKey("u1"))
	assert.Contains(t, cache.entries, repository.StudentDashboardKey("u2"))
}

func TestAdminDashboardCachesAggregates(t *testing.T) {
	stats := &fakeStats{}
	cache := newMemoryCache()
	svc := NewDashboardService(stats, cache, NewMetricsService(), time.Minute, nil)

	_, err := svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	_, err = svc.AdminDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.adminCalls)
}

func TestInvalidationForcesRecompute(t *testing.T) {
	stats := &fakeStats{}
	cache := newMemoryCache()
	svc := NewDashboardService(stats, cache, NewMetricsService(), time.Minute, nil)

	_, err := svc.StudentDashboard(context.Background(), "u1")
	require.NoError(t, err)
	svc.InvalidateStudent(context.Background(), "u1")

	_, err = svc.StudentDashboard(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.billCalls, "invalidation should drop the cached entry")

	_, err = svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	svc.InvalidateAdmin(context.Background())
	_, err = svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.adminCalls)
}
