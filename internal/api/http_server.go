package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hoteldesk/internal/config"
	"hoteldesk/internal/export"
	"hoteldesk/internal/models"
	"hoteldesk/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the four admin screens as JSON endpoint groups:
// dashboard, booking entry, booking details (list/search/delete) and
// modify booking.
type HTTPServer struct {
	cfg       *config.Config
	bookings  *service.BookingService
	dashboard *service.DashboardService
	logger    *zerolog.Logger
	server    *http.Server
	auth      *HTTPAuth

	// One single-slot gate per mutating action. A second trigger while an
	// operation is outstanding is rejected, not queued.
	entryGate  service.Gate
	updateGate service.Gate
	deleteGate service.Gate
}

func NewHTTPServer(cfg *config.Config, bookings *service.BookingService, dashboard *service.DashboardService, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:       cfg,
		bookings:  bookings,
		dashboard: dashboard,
		logger:    logger,
	}
	srv.auth = NewHTTPAuth(&cfg.API)

	mux.HandleFunc("/api/v1/dashboard", srv.handleDashboard)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/lookup", srv.handleLookup)
	mux.HandleFunc("/api/v1/bookings/export", srv.handleExport)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingByID)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handleDashboard serves the occupancy summary for the current date.
func (s *HTTPServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report, err := s.dashboard.Current(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("dashboard report failed")
		writeError(w, http.StatusBadGateway, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreate(w, r)
	case http.MethodGet:
		s.handleSearch(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreate is the booking-entry submission.
func (s *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !s.entryGate.TryAcquire() {
		writeError(w, http.StatusConflict, service.ErrBusy.Error())
		return
	}
	defer s.entryGate.Release()

	var booking models.Booking
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&booking); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.bookings.Create(r.Context(), &booking)
	if err != nil {
		if isValidation(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("create booking failed")
		writeError(w, http.StatusBadGateway, "failed to submit booking")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleSearch serves the booking-details table. Empty filters return the
// full set.
func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	if date != "" {
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
	}

	bookings, err := s.bookings.Search(r.Context(), name, date)
	if err != nil {
		s.logger.Error().Err(err).Msg("search bookings failed")
		writeError(w, http.StatusBadGateway, "failed to load bookings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// handleDelete removes every booking matching the (name, check_in_date)
// key. Zero matches is reported as not-found, distinct from a store error.
func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.deleteGate.TryAcquire() {
		writeError(w, http.StatusConflict, service.ErrBusy.Error())
		return
	}
	defer s.deleteGate.Release()

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	checkIn := strings.TrimSpace(r.URL.Query().Get("check_in_date"))
	if name == "" || checkIn == "" {
		writeError(w, http.StatusBadRequest, "name and check_in_date are required")
		return
	}

	deleted, err := s.bookings.DeleteByKey(r.Context(), name, checkIn)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no matching bookings found")
			return
		}
		s.logger.Error().Err(err).Msg("delete bookings failed")
		writeError(w, http.StatusBadGateway, "failed to delete booking")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// handleLookup is the modify screen's search action: first match by
// earliest submission wins.
func (s *HTTPServer) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	checkIn := strings.TrimSpace(r.URL.Query().Get("check_in_date"))
	if name == "" || checkIn == "" {
		writeError(w, http.StatusBadRequest, "name and check_in_date are required")
		return
	}

	booking, err := s.bookings.Find(r.Context(), name, checkIn)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no booking found")
			return
		}
		s.logger.Error().Err(err).Msg("lookup booking failed")
		writeError(w, http.StatusBadGateway, "failed to fetch booking")
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// handleBookingByID serves PUT /api/v1/bookings/{id}: the modify screen's
// update action, a full-record overwrite.
func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/bookings/"
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	if !s.updateGate.TryAcquire() {
		writeError(w, http.StatusConflict, service.ErrBusy.Error())
		return
	}
	defer s.updateGate.Release()

	var booking models.Booking
	if err := json.NewDecoder(r.Body).Decode(&booking); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.bookings.Update(r.Context(), id, &booking); err != nil {
		switch {
		case isValidation(err):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, "no booking found")
		default:
			s.logger.Error().Err(err).Msg("update booking failed")
			writeError(w, http.StatusBadGateway, "failed to update booking")
		}
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// handleExport streams the (optionally filtered) booking table as xlsx.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	bookings, err := s.bookings.Search(r.Context(), name, date)
	if err != nil {
		s.logger.Error().Err(err).Msg("export bookings failed")
		writeError(w, http.StatusBadGateway, "failed to load bookings")
		return
	}

	filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().Format(models.DateLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.Write(w, bookings); err != nil {
		s.logger.Error().Err(err).Msg("write export failed")
	}
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func isValidation(err error) bool {
	return errors.Is(err, models.ErrDateOrdering) || errors.Is(err, models.ErrInvalidDate)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
