package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"hoteldesk/internal/models"
	"hoteldesk/internal/store"

	"github.com/rs/zerolog"
)

// BuildDailyReport aggregates the bookings checking in on the given date
// into per-room-type occupancy. Counts below zero are treated as zero and
// overbooking is clamped, never reported as negative availability.
func BuildDailyReport(inv models.RoomInventory, date string, bookings []models.Booking) models.DailyReport {
	var booked models.RoomCounts
	count := 0
	for _, b := range bookings {
		if b.CheckInDate != date {
			continue
		}
		count++
		rooms := b.Rooms.Normalized()
		booked.Double += rooms.Double
		booked.Triple += rooms.Triple
		booked.Four += rooms.Four
	}

	rows := []models.RoomAvailability{
		availabilityRow(models.RoomTypeDouble, inv.Double, booked.Double),
		availabilityRow(models.RoomTypeTriple, inv.Triple, booked.Triple),
		availabilityRow(models.RoomTypeFour, inv.Four, booked.Four),
	}

	totalRooms := inv.Total()
	available := 0
	for _, row := range rows {
		available += row.Available
	}

	rate := 0.0
	if totalRooms > 0 {
		rate = math.Round(float64(totalRooms-available)/float64(totalRooms)*1000) / 10
	}

	return models.DailyReport{
		Date:          date,
		TotalBookings: count,
		OccupancyRate: rate,
		Rooms:         rows,
	}
}

func availabilityRow(roomType string, total, booked int) models.RoomAvailability {
	available := total - booked
	if available < 0 {
		available = 0
	}
	return models.RoomAvailability{
		RoomType:  roomType,
		Total:     total,
		Booked:    booked,
		Available: available,
	}
}

// DashboardService serves the occupancy summary for the current date. It
// works in two modes: Start opens a live subscription that refreshes a
// cached report on every snapshot, and BuildReport queries on demand for
// stores without push support.
type DashboardService struct {
	store      store.Store
	collection string
	inventory  models.RoomInventory
	logger     *zerolog.Logger
	today      func() string

	mu     sync.RWMutex
	report models.DailyReport

	live      atomic.Bool
	closeOnce sync.Once

	// subMu guards cancel and subscription swaps on date rollover.
	subMu  sync.Mutex
	subCtx context.Context
	cancel func()
}

func NewDashboardService(st store.Store, collection string, inv models.RoomInventory, logger *zerolog.Logger) *DashboardService {
	s := &DashboardService{
		store:      st,
		collection: collection,
		inventory:  inv,
		logger:     logger,
		today:      func() string { return time.Now().Format(models.DateLayout) },
	}
	s.report = BuildDailyReport(inv, s.today(), nil)
	return s
}

// Start opens the live subscription for today's check-ins. The initial
// snapshot is applied before Start returns.
func (s *DashboardService) Start(ctx context.Context) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.subCtx = ctx
	if err := s.openSubscription(ctx, s.today()); err != nil {
		return err
	}
	s.live.Store(true)
	return nil
}

// openSubscription wires the snapshot callback for one calendar date.
// Callers hold subMu.
func (s *DashboardService) openSubscription(ctx context.Context, date string) error {
	cancel, err := s.store.Subscribe(ctx, s.collection, store.Predicates{"checkInDate": date}, func(docs []store.Document) {
		s.applySnapshot(date, docs)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.collection, err)
	}
	s.cancel = cancel
	s.logger.Info().Str("date", date).Msg("dashboard subscription started")
	return nil
}

// Current returns the report from whichever mode is active: the cached
// live report when the subscription is running, a fresh query otherwise.
// "Today" is re-evaluated on every call; once the calendar date rolls past
// the one the subscription was opened for, the subscription is reissued
// for the new date before answering.
func (s *DashboardService) Current(ctx context.Context) (models.DailyReport, error) {
	if !s.live.Load() {
		return s.BuildReport(ctx)
	}

	if report := s.Report(); report.Date == s.today() {
		return report, nil
	}

	if err := s.rollover(); err != nil {
		s.logger.Warn().Err(err).Msg("dashboard resubscribe failed, serving on-demand report")
		return s.BuildReport(ctx)
	}
	return s.Report(), nil
}

// rollover swaps the live subscription onto the current date. Concurrent
// callers serialize here; whoever loses the race finds the report already
// refreshed and returns without resubscribing again.
func (s *DashboardService) rollover() error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	date := s.today()
	if s.Report().Date == date {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}
	return s.openSubscription(s.subCtx, date)
}

func (s *DashboardService) applySnapshot(date string, docs []store.Document) {
	bookings := make([]models.Booking, 0, len(docs))
	for _, doc := range docs {
		var b models.Booking
		if err := doc.Decode(&b); err != nil {
			s.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("skipping undecodable booking in snapshot")
			continue
		}
		bookings = append(bookings, b)
	}

	report := BuildDailyReport(s.inventory, date, bookings)

	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
}

// Report returns the latest cached report. Valid only after Start.
func (s *DashboardService) Report() models.DailyReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// BuildReport queries the store directly, for pull-only deployments.
func (s *DashboardService) BuildReport(ctx context.Context) (models.DailyReport, error) {
	date := s.today()
	docs, err := s.store.Query(ctx, s.collection, store.Predicates{"checkInDate": date})
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("query %s: %w", s.collection, err)
	}

	bookings := make([]models.Booking, 0, len(docs))
	for _, doc := range docs {
		var b models.Booking
		if err := doc.Decode(&b); err != nil {
			s.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("skipping undecodable booking")
			continue
		}
		bookings = append(bookings, b)
	}
	return BuildDailyReport(s.inventory, date, bookings), nil
}

// Close releases the subscription. Safe to call more than once.
func (s *DashboardService) Close() {
	s.closeOnce.Do(func() {
		s.live.Store(false)
		s.subMu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		s.subMu.Unlock()
	})
}
