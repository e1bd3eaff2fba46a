package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hoteldesk/internal/config"
	"hoteldesk/internal/models"
	"hoteldesk/internal/service"
	"hoteldesk/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: 0},
		Store:     config.StoreConfig{Driver: config.DriverMemory, Collection: "bookings"},
		Inventory: models.DefaultInventory(),
		API: config.APIConfig{
			RateLimit: config.APIRateLimitConfig{RPS: 1000, Burst: 1000},
		},
	}
}

func newTestServer(t *testing.T) (*HTTPServer, *service.BookingService) {
	t.Helper()

	logger := zerolog.New(io.Discard)
	st := store.NewMemoryStore(nil)
	cfg := testConfig()

	bookings := service.NewBookingService(st, cfg.Store.Collection, &logger)
	dashboard := service.NewDashboardService(st, cfg.Store.Collection, cfg.Inventory, &logger)

	return NewHTTPServer(cfg, bookings, dashboard, &logger), bookings
}

func doRequest(srv *HTTPServer, method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)
	return rec
}

func entryPayload(name, checkIn, checkOut string) models.Booking {
	return models.Booking{
		Name:          name,
		BookingType:   "online",
		Mobile:        "9000000000",
		CheckInDate:   checkIn,
		CheckOutDate:  checkOut,
		Rooms:         models.RoomCounts{Double: 2, Triple: 1},
		TotalAmount:   5000,
		AdvanceAmount: 1500,
	}
}

func TestCreateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("Created", func(t *testing.T) {
		rec := doRequest(srv, http.MethodPost, "/api/v1/bookings", entryPayload("K. Rao", "2024-01-01", "2024-01-03"))
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["id"])
	})

	t.Run("DateOrderingRejected", func(t *testing.T) {
		rec := doRequest(srv, http.MethodPost, "/api/v1/bookings", entryPayload("Patel", "2024-01-03", "2024-01-01"))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewBufferString("{broken"))
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BusyGate", func(t *testing.T) {
		require.True(t, srv.entryGate.TryAcquire())
		defer srv.entryGate.Release()

		rec := doRequest(srv, http.MethodPost, "/api/v1/bookings", entryPayload("X", "2024-01-01", "2024-01-02"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, p := range []models.Booking{
		entryPayload("K. Rao", "2024-01-01", "2024-01-03"),
		entryPayload("Patel", "2024-02-10", "2024-02-12"),
	} {
		rec := doRequest(srv, http.MethodPost, "/api/v1/bookings", p)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	type listResponse struct {
		Bookings []models.Booking `json:"bookings"`
		Count    int              `json:"count"`
	}

	t.Run("Unfiltered", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/v1/bookings", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("ByNameSubstring", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/v1/bookings?name=rao", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, "K. Rao", resp.Bookings[0].Name)
	})

	t.Run("ByCheckOutDate", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/v1/bookings?date=2024-02-12", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
	})

	t.Run("BadDate", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/v1/bookings?date=12-02-2024", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 2; i++ {
		rec := doRequest(srv, http.MethodPost, "/api/v1/bookings", entryPayload("A", "2024-01-01", "2024-01-05"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("DeletesAllMatches", func(t *testing.T) {
		rec := doRequest(srv, http.MethodDelete, "/api/v1/bookings?name=A&check_in_date=2024-01-01", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]int
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp["deleted"])
	})

	t.Run("NotFoundIsDistinct", func(t *testing.T) {
		rec := doRequest(srv, http.MethodDelete, "/api/v1/bookings?name=A&check_in_date=2024-01-01", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("MissingParams", func(t *testing.T) {
		rec := doRequest(srv, http.MethodDelete, "/api/v1/bookings?name=A", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLookupAndUpdateEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/v1/bookings", entryPayload("K. Rao", "2024-01-01", "2024-01-03"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/v1/bookings/lookup?name=K.+Rao&check_in_date=2024-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var found models.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.NotEmpty(t, found.ID)
	assert.Equal(t, 3500.0, found.BalanceAmount)

	t.Run("LookupMiss", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/v1/bookings/lookup?name=Nobody&check_in_date=2024-01-01", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("FullOverwrite", func(t *testing.T) {
		found.TotalAmount = 9000
		rec := doRequest(srv, http.MethodPut, "/api/v1/bookings/"+found.ID, found)
		require.Equal(t, http.StatusOK, rec.Code)

		var updated models.Booking
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, 7500.0, updated.BalanceAmount)
	})

	t.Run("UpdateUnknownID", func(t *testing.T) {
		rec := doRequest(srv, http.MethodPut, "/api/v1/bookings/missing", found)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("UpdateInvalidDates", func(t *testing.T) {
		bad := found
		bad.CheckOutDate = bad.CheckInDate
		rec := doRequest(srv, http.MethodPut, "/api/v1/bookings/"+found.ID, bad)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestDashboardEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	today := time.Now().Format(models.DateLayout)
	tomorrow := time.Now().AddDate(0, 0, 1).Format(models.DateLayout)

	rec := doRequest(srv, http.MethodPost, "/api/v1/bookings", entryPayload("K. Rao", today, tomorrow))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.DailyReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, today, report.Date)
	assert.Equal(t, 1, report.TotalBookings)
	require.Len(t, report.Rooms, 3)
	assert.Equal(t, 31, report.Rooms[0].Available)
	assert.Equal(t, 6.8, report.OccupancyRate)
}

func TestExportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/v1/bookings", entryPayload("K. Rao", "2024-01-01", "2024-01-03"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/api/v1/bookings/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())
}

func TestAuthAndRateLimit(t *testing.T) {
	logger := zerolog.New(io.Discard)
	st := store.NewMemoryStore(nil)

	cfg := testConfig()
	cfg.API.Auth = config.APIAuthConfig{
		Enabled:      true,
		HeaderAPIKey: "x-api-key",
		APIKeys:      []config.APIClientKey{{Key: "secret", Name: "front-desk"}},
	}
	cfg.API.RateLimit = config.APIRateLimitConfig{RPS: 0.001, Burst: 2}

	bookings := service.NewBookingService(st, "bookings", &logger)
	dashboard := service.NewDashboardService(st, "bookings", cfg.Inventory, &logger)
	srv := NewHTTPServer(cfg, bookings, dashboard, &logger)

	get := func(withKey bool) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
		if withKey {
			req.Header.Set("x-api-key", "secret")
		}
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, get(false))
	assert.Equal(t, http.StatusOK, get(true))
	assert.Equal(t, http.StatusOK, get(true))
	// Burst spent; the third request inside the window is throttled.
	assert.Equal(t, http.StatusTooManyRequests, get(true))

	t.Run("HealthBypassesAuth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/dashboard"},
		{http.MethodPatch, "/api/v1/bookings"},
		{http.MethodPost, "/api/v1/bookings/lookup"},
		{http.MethodGet, "/api/v1/bookings/some-id"},
	} {
		rec := doRequest(srv, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, fmt.Sprintf("%s %s", tc.method, tc.path))
	}
}
