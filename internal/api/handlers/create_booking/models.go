package create_booking

import (
	"strings"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-SlotBookingService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ListingID  int64         `json:"listingId" validate:"required,gt=0"`
	Date       string        `json:"date" validate:"required"` // "2025-10-15"
	SlotIDs    []string      `json:"slotIds" validate:"required,min=1,max=24,dive,required"`
	Customer   CustomerInput `json:"customer"`
	CouponCode *string       `json:"couponCode,omitempty" validate:"omitempty,max=50"`
}

// CustomerInput контакты клиента; пустые поля берутся из профиля
type CustomerInput struct {
	Name   string `json:"name" validate:"max=100"`
	Mobile string `json:"mobile" validate:"max=20"`
	Email  string `json:"email" validate:"omitempty,email,max=100"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	Booking            *models.BookingResponse `json:"booking"`
	PromotionRejection *string                 `json:"promotionRejection,omitempty"`
}

// SlotConflictDetails занятые слоты
type SlotConflictDetails struct {
	SlotIDs []string `json:"slotIds"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(principal domain.Principal, tenantID int64) (*createBooking.Request, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	var coupon *string
	if r.CouponCode != nil {
		if code := strings.TrimSpace(*r.CouponCode); code != "" {
			coupon = &code
		}
	}

	return &createBooking.Request{
		Principal: principal,
		TenantID:  tenantID,
		ListingID: r.ListingID,
		Date:      date,
		SlotIDs:   r.SlotIDs,
		Customer: createBooking.CustomerInfo{
			Name:   r.Customer.Name,
			Mobile: r.Customer.Mobile,
			Email:  r.Customer.Email,
		},
		CouponCode: coupon,
	}, nil
}
