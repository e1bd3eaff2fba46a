package worker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hoteldesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeLister struct {
	bookings []models.Booking
	err      error
	calls    int
}

func (f *fakeLister) List(ctx context.Context) ([]models.Booking, error) {
	f.calls++
	return f.bookings, f.err
}

func newTestWorker(t *testing.T, lister *fakeLister) (*ExportWorker, string) {
	t.Helper()
	dir := t.TempDir()
	logger := zerolog.New(io.Discard)
	w := NewExportWorker(lister, dir, time.Hour, RetryPolicy{MaxRetries: 1, InitialDelay: time.Millisecond}, &logger)
	return w, dir
}

func TestWriteSnapshot(t *testing.T) {
	lister := &fakeLister{bookings: []models.Booking{
		{
			Name:        "K. Rao",
			BookingType: "online",
			CheckInDate: "2024-01-01",
			Rooms:       models.RoomCounts{Double: 2},
			SubmittedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
	}}
	w, dir := newTestWorker(t, lister)
	w.now = func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }

	path, err := w.WriteSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bookings-2024-01-02.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Bookings", "A2")
	require.NoError(t, err)
	assert.Equal(t, "K. Rao", name)
}

func TestWriteSnapshotListError(t *testing.T) {
	lister := &fakeLister{err: errors.New("store down")}
	w, dir := newTestWorker(t, lister)

	_, err := w.WriteSnapshot(context.Background())
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunWithRetryStopsAfterMaxRetries(t *testing.T) {
	lister := &fakeLister{err: errors.New("store down")}
	w, _ := newTestWorker(t, lister)

	w.runWithRetry(context.Background())

	// One initial attempt plus one retry.
	assert.Equal(t, 2, lister.calls)
}

func TestStartWritesInitialSnapshot(t *testing.T) {
	lister := &fakeLister{}
	w, dir := newTestWorker(t, lister)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		entries, err := os.ReadDir(dir)
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond, "initial snapshot was not written")

	cancel()
	<-done
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	// Attempt 5 would be 16s unclamped.
	assert.Equal(t, 5*time.Second, policy.NextDelay(5))
}
