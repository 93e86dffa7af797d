package create_booking

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/integrations/userservice"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.Principal.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.TenantID <= 0 {
		return fmt.Errorf("%w: tenantID must be positive", ErrInvalidInput)
	}

	if req.ListingID <= 0 {
		return fmt.Errorf("%w: listingID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if len(req.SlotIDs) == 0 {
		return fmt.Errorf("%w: at least one slot is required", ErrInvalidInput)
	}

	if req.Customer.Email != "" {
		if _, err := mail.ParseAddress(req.Customer.Email); err != nil {
			return fmt.Errorf("%w: invalid email", ErrInvalidInput)
		}
	}

	return nil
}

// buildCustomerSnapshot объединяет данные запроса с профилем пользователя.
// Данные из запроса приоритетнее; профиль может отсутствовать.
func buildCustomerSnapshot(info CustomerInfo, profile *userservice.Customer) (domain.CustomerSnapshot, error) {
	snapshot := domain.CustomerSnapshot{
		Name:   strings.TrimSpace(info.Name),
		Mobile: strings.TrimSpace(info.Mobile),
		Email:  strings.TrimSpace(info.Email),
	}

	if profile != nil {
		if snapshot.Name == "" {
			snapshot.Name = profile.Name
		}
		if snapshot.Mobile == "" {
			snapshot.Mobile = profile.Mobile
		}
		if snapshot.Email == "" {
			snapshot.Email = profile.Email
		}
		snapshot.Category = profile.Category
	}

	if snapshot.Name == "" {
		return snapshot, ErrCustomerRequired
	}

	return snapshot, nil
}
