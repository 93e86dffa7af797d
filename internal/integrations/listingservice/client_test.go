package listingservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

const listingJSON = `{
	"id": 10,
	"tenant_id": 7,
	"name": "Turf A",
	"type": "turf",
	"base_price": "500.00",
	"currency": "INR",
	"tax_percent": "18",
	"is_active": true,
	"availability": {
		"open_time": "06:00",
		"close_time": "22:00",
		"working_days": [0, 6],
		"slot_duration_minutes": 60,
		"buffer_minutes": 0,
		"min_notice_minutes": 30,
		"max_advance_days": 30,
		"slot_overrides": [
			{"slot_id": "21:00-22:00", "price_override": "650", "is_active": true}
		]
	}
}`

func TestGetListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/tenants/7/listings/10", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listingJSON))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, logger.NewNop())

	listing, err := client.GetListing(context.Background(), 7, 10)
	require.NoError(t, err)

	assert.Equal(t, money.Amount(50000), listing.BasePrice)
	assert.Equal(t, money.Amount(65000), listing.SlotBasePrice("21:00-22:00"))
	assert.Equal(t, "06:00", listing.Window.OpenTime.String())
	assert.True(t, listing.Window.IsWorkingDay(time.Saturday))
	assert.False(t, listing.Window.IsWorkingDay(time.Monday))
	require.NotNil(t, listing.TaxPercent)
	assert.Equal(t, "18", listing.TaxPercent.String())
}

func TestGetListing_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, logger.NewNop())

	_, err := client.GetListing(context.Background(), 7, 99)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestGetListing_OtherTenant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingJSON))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, logger.NewNop())

	_, err := client.GetListing(context.Background(), 8, 10)
	assert.ErrorIs(t, err, ErrListingNotFound)
}
