package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hoteldesk/internal/export"
	"hoteldesk/internal/models"

	"github.com/rs/zerolog"
)

// BookingLister is the slice of the booking service the worker needs.
type BookingLister interface {
	List(ctx context.Context) ([]models.Booking, error)
}

// ExportWorker periodically writes an xlsx snapshot of the booking table to
// the exports directory. A failed run is retried with backoff before the
// worker goes back to waiting for the next tick.
type ExportWorker struct {
	bookings BookingLister
	dir      string
	interval time.Duration
	retry    RetryPolicy
	logger   *zerolog.Logger

	now func() time.Time
}

// NewExportWorker builds a worker with sane defaults.
func NewExportWorker(bookings BookingLister, dir string, interval time.Duration, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ExportWorker{
		bookings: bookings,
		dir:      dir,
		interval: interval,
		retry:    retry,
		logger:   logger,
		now:      time.Now,
	}
}

// Start blocks until ctx is cancelled. The first snapshot is written
// immediately, subsequent ones on every interval tick.
func (w *ExportWorker) Start(ctx context.Context) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.logger.Error().Err(err).Str("dir", w.dir).Msg("create exports directory")
		return
	}

	w.runWithRetry(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runWithRetry(ctx)
		}
	}
}

func (w *ExportWorker) runWithRetry(ctx context.Context) {
	for attempt := 1; ; attempt++ {
		path, err := w.WriteSnapshot(ctx)
		if err == nil {
			w.logger.Info().Str("path", path).Msg("booking export written")
			return
		}
		if attempt > w.retry.MaxRetries {
			w.logger.Error().Err(err).Int("attempts", attempt).Msg("booking export abandoned")
			return
		}

		w.logger.Warn().Err(err).Int("attempt", attempt).Msg("booking export failed, retrying")
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retry.NextDelay(attempt)):
		}
	}
}

// WriteSnapshot renders the current booking table into a dated workbook and
// returns the written path. Snapshots taken on the same day overwrite each
// other.
func (w *ExportWorker) WriteSnapshot(ctx context.Context) (string, error) {
	bookings, err := w.bookings.List(ctx)
	if err != nil {
		return "", fmt.Errorf("load bookings: %w", err)
	}

	f, err := export.Workbook(bookings)
	if err != nil {
		return "", fmt.Errorf("render workbook: %w", err)
	}
	defer f.Close()

	path := filepath.Join(w.dir, fmt.Sprintf("bookings-%s.xlsx", w.now().Format(models.DateLayout)))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}
