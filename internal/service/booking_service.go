package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"hoteldesk/internal/models"
	"hoteldesk/internal/store"

	"github.com/rs/zerolog"
)

// BookingService implements the entry, listing, modify and delete flows on
// top of the document store. All flows read and write the same collection;
// the dashboard subscribes to it too.
type BookingService struct {
	store      store.Store
	collection string
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewBookingService(st store.Store, collection string, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:      st,
		collection: collection,
		logger:     logger,
		now:        time.Now,
	}
}

// Create validates and persists a new booking, stamping submittedAt.
// Nothing is written when validation fails.
func (s *BookingService) Create(ctx context.Context, booking *models.Booking) (string, error) {
	if err := booking.Validate(); err != nil {
		return "", err
	}
	booking.Normalize()
	booking.ID = ""
	booking.SubmittedAt = s.now()

	id, err := s.store.Create(ctx, s.collection, booking)
	if err != nil {
		return "", fmt.Errorf("create booking: %w", err)
	}
	booking.ID = id

	s.logger.Info().Str("booking_id", id).Str("guest", booking.Name).Msg("booking created")
	return id, nil
}

// List loads the full collection. Documents that no longer decode are
// logged and skipped rather than failing the whole listing.
func (s *BookingService) List(ctx context.Context) ([]models.Booking, error) {
	docs, err := s.store.List(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return s.decodeAll(docs), nil
}

// Search applies the listing filter: case-insensitive substring on the
// guest name, exact match of the date against either stay boundary. Both
// conditions are ANDed; an empty value matches everything.
func (s *BookingService) Search(ctx context.Context, name, date string) ([]models.Booking, error) {
	bookings, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterBookings(bookings, name, date), nil
}

// FilterBookings is the pure filter behind Search.
func FilterBookings(bookings []models.Booking, name, date string) []models.Booking {
	needle := strings.ToLower(strings.TrimSpace(name))
	date = strings.TrimSpace(date)

	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if needle != "" && !strings.Contains(strings.ToLower(b.Name), needle) {
			continue
		}
		if date != "" && b.CheckInDate != date && b.CheckOutDate != date {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Find returns one booking by exact (name, checkInDate). The key is not
// unique; when several bookings share it, the earliest-submitted record
// wins, with the document id as tiebreaker. The remaining matches stay
// reachable through Search.
func (s *BookingService) Find(ctx context.Context, name, checkInDate string) (*models.Booking, error) {
	matches, err := s.queryByKey(ctx, name, checkInDate)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].SubmittedAt.Equal(matches[j].SubmittedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].SubmittedAt.Before(matches[j].SubmittedAt)
	})
	first := matches[0]
	return &first, nil
}

// Update overwrites the stored record wholesale. The date invariant is
// re-checked and the derived balance recomputed; submittedAt is carried
// over from the stored record and cannot be changed through this path.
func (s *BookingService) Update(ctx context.Context, id string, booking *models.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}

	existing, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}

	booking.Normalize()
	booking.ID = id
	booking.SubmittedAt = existing.SubmittedAt

	if err := s.store.Update(ctx, s.collection, id, booking); err != nil {
		return fmt.Errorf("update booking %s: %w", id, err)
	}

	s.logger.Info().Str("booking_id", id).Msg("booking updated")
	return nil
}

// DeleteByKey removes every booking matching (name, checkInDate) exactly
// and returns how many were removed. Zero matches is ErrNotFound and
// leaves the collection unchanged.
func (s *BookingService) DeleteByKey(ctx context.Context, name, checkInDate string) (int, error) {
	matches, err := s.queryByKey(ctx, name, checkInDate)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, ErrNotFound
	}

	deleted := 0
	for _, b := range matches {
		if err := s.store.Delete(ctx, s.collection, b.ID); err != nil {
			return deleted, fmt.Errorf("delete booking %s: %w", b.ID, err)
		}
		deleted++
	}

	s.logger.Info().Str("guest", name).Str("check_in", checkInDate).Int("deleted", deleted).Msg("bookings deleted")
	return deleted, nil
}

func (s *BookingService) queryByKey(ctx context.Context, name, checkInDate string) ([]models.Booking, error) {
	docs, err := s.store.Query(ctx, s.collection, store.Predicates{
		"name":        name,
		"checkInDate": checkInDate,
	})
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	return s.decodeAll(docs), nil
}

func (s *BookingService) findByID(ctx context.Context, id string) (*models.Booking, error) {
	docs, err := s.store.List(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	for _, doc := range docs {
		if doc.ID != id {
			continue
		}
		var b models.Booking
		if err := doc.Decode(&b); err != nil {
			return nil, fmt.Errorf("decode booking %s: %w", id, err)
		}
		b.ID = doc.ID
		return &b, nil
	}
	return nil, ErrNotFound
}

func (s *BookingService) decodeAll(docs []store.Document) []models.Booking {
	bookings := make([]models.Booking, 0, len(docs))
	for _, doc := range docs {
		var b models.Booking
		if err := doc.Decode(&b); err != nil {
			s.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("skipping undecodable booking")
			continue
		}
		b.ID = doc.ID
		bookings = append(bookings, b)
	}
	return bookings
}
