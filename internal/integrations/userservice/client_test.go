package userservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SlotBookingService/pkg/logger"
)

func TestGetCustomerWithGracefulDegradation(t *testing.T) {
	t.Run("profile found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/internal/users/42/profile", r.URL.Path)
			_, _ = w.Write([]byte(`{"id":42,"name":"Asha","mobile":"+919800000000","email":"asha@example.com","category":"member"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second, logger.NewNop())
		customer, err := client.GetCustomerWithGracefulDegradation(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, "member", customer.Category)
	})

	t.Run("not found is passed through", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second, logger.NewNop())
		_, err := client.GetCustomerWithGracefulDegradation(context.Background(), 42)
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})

	t.Run("server error degrades", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second, logger.NewNop())
		_, err := client.GetCustomerWithGracefulDegradation(context.Background(), 42)
		assert.ErrorIs(t, err, ErrServiceDegraded)
	})
}
