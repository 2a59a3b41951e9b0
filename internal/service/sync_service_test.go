package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"neowatch/internal/clients"
	clientmocks "neowatch/internal/clients/mocks"
	"neowatch/internal/metrics"
	"neowatch/internal/models"
	"neowatch/internal/repository"
	repomocks "neowatch/internal/repository/mocks"
)

type countingPacer struct {
	waits  int
	onWait func()
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	if p.onWait != nil {
		p.onWait()
	}
	return ctx.Err()
}

type syncFixture struct {
	client *clientmocks.MockNEOClient
	repo   *repomocks.MockAsteroidRepository
	pacer  *countingPacer
	logs   *bytes.Buffer
	svc    SyncService
}

// "сейчас" - 2025-01-21, значит вчера - 2025-01-20
func fixedNow() time.Time {
	return time.Date(2025, 1, 21, 10, 30, 0, 0, time.UTC)
}

func newSyncFixture(t *testing.T, cacheRepo repository.CacheRepository) *syncFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &syncFixture{
		client: clientmocks.NewMockNEOClient(ctrl),
		repo:   repomocks.NewMockAsteroidRepository(ctrl),
		pacer:  &countingPacer{},
		logs:   &bytes.Buffer{},
	}
	f.svc = NewSyncService(f.repo, cacheRepo, f.client, f.pacer,
		SyncConfig{ChunkDays: 7, Now: fixedNow}, log.New(f.logs, "", 0))
	return f
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func window(t *testing.T, start, end string) models.DateWindow {
	t.Helper()
	return models.NewDateWindow(date(t, start), date(t, end))
}

func batchFor(w models.DateWindow, ids ...string) *models.Batch {
	batch := &models.Batch{Window: w}
	for _, id := range ids {
		batch.Items = append(batch.Items, models.BatchItem{Asteroid: models.Asteroid{ID: id}})
	}
	return batch
}

func TestBackfillProcessesChunksInOrder(t *testing.T) {
	f := newSyncFixture(t, nil)
	ctx := context.Background()

	first := window(t, "2025-01-01", "2025-01-08")
	second := window(t, "2025-01-09", "2025-01-16")
	third := window(t, "2025-01-17", "2025-01-20")
	firstBatch, secondBatch, thirdBatch := batchFor(first, "a"), batchFor(second, "b"), batchFor(third, "c")
	saved := &models.PersistStats{AsteroidsInserted: 1, ApproachesInserted: 1}

	gomock.InOrder(
		f.client.EXPECT().FetchFeed(gomock.Any(), first).Return(firstBatch, nil),
		f.repo.EXPECT().PersistBatch(gomock.Any(), firstBatch).Return(saved, nil),
		f.client.EXPECT().FetchFeed(gomock.Any(), second).Return(secondBatch, nil),
		f.repo.EXPECT().PersistBatch(gomock.Any(), secondBatch).Return(saved, nil),
		f.client.EXPECT().FetchFeed(gomock.Any(), third).Return(thirdBatch, nil),
		f.repo.EXPECT().PersistBatch(gomock.Any(), thirdBatch).Return(saved, nil),
	)

	report, err := f.svc.Backfill(ctx, date(t, "2025-01-01"))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, 3, report.Succeeded)
	assert.Empty(t, report.Failures)
	assert.Equal(t, models.PersistStats{AsteroidsInserted: 3, ApproachesInserted: 3}, report.Stats)
	assert.Equal(t, date(t, "2025-01-20"), report.To)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Cancelled)
	assert.Equal(t, 2, f.pacer.waits)
}

func TestBackfillSkipsFailedChunk(t *testing.T) {
	f := newSyncFixture(t, nil)

	first := window(t, "2025-01-01", "2025-01-08")
	second := window(t, "2025-01-09", "2025-01-16")
	third := window(t, "2025-01-17", "2025-01-20")

	fetchErr := &clients.FetchError{Kind: clients.FetchHTTPStatus, StatusCode: 503, Window: second}

	// счетчики глобальные, сравниваем приращение
	okBefore := testutil.ToFloat64(metrics.ChunksTotal.WithLabelValues(metrics.ModeBackfill, metrics.OutcomeOK))
	failedBefore := testutil.ToFloat64(metrics.ChunksTotal.WithLabelValues(metrics.ModeBackfill, metrics.OutcomeFetchFailed))

	gomock.InOrder(
		f.client.EXPECT().FetchFeed(gomock.Any(), first).Return(batchFor(first, "1"), nil),
		f.repo.EXPECT().PersistBatch(gomock.Any(), gomock.Any()).Return(&models.PersistStats{AsteroidsInserted: 1}, nil),
		f.client.EXPECT().FetchFeed(gomock.Any(), second).Return(nil, fetchErr),
		f.client.EXPECT().FetchFeed(gomock.Any(), third).Return(batchFor(third, "3"), nil),
		f.repo.EXPECT().PersistBatch(gomock.Any(), gomock.Any()).Return(&models.PersistStats{AsteroidsInserted: 1}, nil),
	)

	report, err := f.svc.Backfill(context.Background(), date(t, "2025-01-01"))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, 2, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, second, report.Failures[0].Window)
	assert.Equal(t, models.StageFetch, report.Failures[0].Stage)
	assert.Contains(t, report.Failures[0].Error, "503")
	assert.Equal(t, 2, report.Stats.AsteroidsInserted)
	assert.Equal(t, 2, f.pacer.waits)
	assert.Contains(t, f.logs.String(), "2025-01-09..2025-01-16")

	assert.Equal(t, okBefore+2, testutil.ToFloat64(metrics.ChunksTotal.WithLabelValues(metrics.ModeBackfill, metrics.OutcomeOK)))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(metrics.ChunksTotal.WithLabelValues(metrics.ModeBackfill, metrics.OutcomeFetchFailed)))
}

func TestBackfillSkipsPersistFailure(t *testing.T) {
	f := newSyncFixture(t, nil)

	only := window(t, "2025-01-15", "2025-01-20")
	persistErr := &repository.PersistError{Kind: repository.PersistConnectionLost, Window: only, Err: errors.New("conn reset")}

	f.client.EXPECT().FetchFeed(gomock.Any(), only).Return(batchFor(only, "1"), nil)
	f.repo.EXPECT().PersistBatch(gomock.Any(), gomock.Any()).Return(nil, persistErr)

	report, err := f.svc.Backfill(context.Background(), date(t, "2025-01-15"))
	require.NoError(t, err)

	assert.Equal(t, 0, report.Succeeded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, models.StagePersist, report.Failures[0].Stage)
	assert.Equal(t, only, report.Failures[0].Window)
}

func TestBackfillStartAfterYesterdayIsNoop(t *testing.T) {
	f := newSyncFixture(t, nil)

	for _, start := range []string{"2025-01-21", "2025-03-01"} {
		report, err := f.svc.Backfill(context.Background(), date(t, start))
		require.NoError(t, err)
		assert.Zero(t, report.Chunks)
		assert.Empty(t, report.Failures)
	}
	assert.Zero(t, f.pacer.waits)
}

func TestBackfillYesterdayOnly(t *testing.T) {
	f := newSyncFixture(t, nil)
	yesterday := window(t, "2025-01-20", "2025-01-20")

	f.client.EXPECT().FetchFeed(gomock.Any(), yesterday).Return(batchFor(yesterday), nil)
	f.repo.EXPECT().PersistBatch(gomock.Any(), gomock.Any()).Return(&models.PersistStats{}, nil)

	report, err := f.svc.Backfill(context.Background(), date(t, "2025-01-20"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 1, report.Succeeded)
	assert.Zero(t, f.pacer.waits)
}

func TestBackfillNoPauseAfterLastChunk(t *testing.T) {
	f := newSyncFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := window(t, "2025-01-09", "2025-01-16")
	last := window(t, "2025-01-17", "2025-01-20")

	gomock.InOrder(
		f.client.EXPECT().FetchFeed(gomock.Any(), first).Return(batchFor(first, "1"), nil),
		f.repo.EXPECT().PersistBatch(gomock.Any(), gomock.Any()).Return(&models.PersistStats{AsteroidsInserted: 1}, nil),
		f.client.EXPECT().FetchFeed(gomock.Any(), last).Return(batchFor(last, "2"), nil),
		// отмена сразу после записи последнего окна
		f.repo.EXPECT().PersistBatch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, *models.Batch) (*models.PersistStats, error) {
				cancel()
				return &models.PersistStats{AsteroidsInserted: 1}, nil
			}),
	)

	report, err := f.svc.Backfill(ctx, date(t, "2025-01-09"))
	require.NoError(t, err)
	assert.False(t, report.Cancelled)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, f.pacer.waits)
}

func TestBackfillStopsBetweenChunksOnCancel(t *testing.T) {
	f := newSyncFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.pacer.onWait = cancel

	first := window(t, "2025-01-01", "2025-01-08")
	f.client.EXPECT().FetchFeed(gomock.Any(), first).Return(batchFor(first, "1"), nil)
	f.repo.EXPECT().PersistBatch(gomock.Any(), gomock.Any()).Return(&models.PersistStats{AsteroidsInserted: 1}, nil)

	report, err := f.svc.Backfill(ctx, date(t, "2025-01-01"))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.True(t, report.Cancelled)
	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, 1, report.Succeeded)
}

func TestSyncRangeSingleCallNoPacing(t *testing.T) {
	f := newSyncFixture(t, nil)
	w := window(t, "2025-12-10", "2025-12-10")

	f.client.EXPECT().FetchFeed(gomock.Any(), w).Return(batchFor(w, "1", "2"), nil).Times(1)
	f.repo.EXPECT().PersistBatch(gomock.Any(), gomock.Any()).Return(&models.PersistStats{AsteroidsInserted: 2}, nil).Times(1)

	report, err := f.svc.SyncRange(context.Background(), date(t, "2025-12-10"), date(t, "2025-12-10"))
	require.NoError(t, err)
	assert.Equal(t, w, report.Window)
	assert.Equal(t, 2, report.Stats.AsteroidsInserted)
	assert.Empty(t, report.Error)
	assert.Zero(t, f.pacer.waits)
}

func TestSyncRangeReportsFetchFailure(t *testing.T) {
	f := newSyncFixture(t, nil)
	w := window(t, "2025-12-10", "2025-12-10")

	f.client.EXPECT().FetchFeed(gomock.Any(), w).
		Return(nil, &clients.FetchError{Kind: clients.FetchMalformed, Window: w, Err: errors.New("missing near_earth_objects")})

	report, err := f.svc.SyncRange(context.Background(), date(t, "2025-12-10"), date(t, "2025-12-10"))
	require.Error(t, err)
	assert.Nil(t, report)

	var fetchErr *clients.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, clients.FetchMalformed, fetchErr.Kind)
	assert.Zero(t, f.pacer.waits)
}

func TestSyncRangeReportsPersistFailure(t *testing.T) {
	f := newSyncFixture(t, nil)
	w := window(t, "2025-12-10", "2025-12-11")

	f.client.EXPECT().FetchFeed(gomock.Any(), w).Return(batchFor(w, "1"), nil)
	f.repo.EXPECT().PersistBatch(gomock.Any(), gomock.Any()).
		Return(nil, &repository.PersistError{Kind: repository.PersistConstraintViolation, Window: w, Err: errors.New("fk")})

	_, err := f.svc.SyncRange(context.Background(), date(t, "2025-12-10"), date(t, "2025-12-11"))

	var persistErr *repository.PersistError
	require.True(t, errors.As(err, &persistErr))
	assert.Equal(t, repository.PersistConstraintViolation, persistErr.Kind)
}

func TestSyncRangeRejectsInvertedRange(t *testing.T) {
	f := newSyncFixture(t, nil)

	_, err := f.svc.SyncRange(context.Background(), date(t, "2025-12-11"), date(t, "2025-12-10"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestStatusRecordsLastRuns(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newSyncFixture(t, repository.NewCacheRepository(client))
	ctx := context.Background()

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, status.LastBackfill)
	assert.Nil(t, status.LastIncremental)

	w := window(t, "2025-01-20", "2025-01-20")
	f.client.EXPECT().FetchFeed(gomock.Any(), w).Return(batchFor(w, "1"), nil).Times(2)
	f.repo.EXPECT().PersistBatch(gomock.Any(), gomock.Any()).Return(&models.PersistStats{AsteroidsInserted: 1}, nil).Times(2)

	incremental, err := f.svc.SyncRange(ctx, date(t, "2025-01-20"), date(t, "2025-01-20"))
	require.NoError(t, err)
	backfill, err := f.svc.Backfill(ctx, date(t, "2025-01-20"))
	require.NoError(t, err)

	status, err = f.svc.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.LastIncremental)
	require.NotNil(t, status.LastBackfill)
	assert.Equal(t, incremental.RunID, status.LastIncremental.RunID)
	assert.Equal(t, backfill.RunID, status.LastBackfill.RunID)
	assert.Equal(t, 1, status.LastBackfill.Succeeded)
	assert.Equal(t, "2025-01-20..2025-01-20", status.LastIncremental.Window.String())
}

func TestNewSyncServiceDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewSyncService(repomocks.NewMockAsteroidRepository(ctrl), nil,
		clientmocks.NewMockNEOClient(ctrl), nil, SyncConfig{}, log.New(io.Discard, "", 0))

	impl, ok := svc.(*syncService)
	require.True(t, ok)
	assert.Equal(t, DefaultChunkDays, impl.chunkDays)
	assert.NotNil(t, impl.pacer)
	assert.NotNil(t, impl.now)
}
