package get_availability

import (
	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/internal/service/bookings/models"
	getAvailability "github.com/m04kA/SMC-SlotBookingService/internal/usecase/get_availability"
)

// AvailabilityResponse слоты листинга на дату; суммы в основных единицах валюты
type AvailabilityResponse struct {
	Date      string         `json:"date"`
	TenantID  int64          `json:"tenantId"`
	ListingID int64          `json:"listingId"`
	Currency  string         `json:"currency"`
	Occupancy int            `json:"occupancy"`
	Slots     []SlotResponse `json:"slots"`
}

type SlotResponse struct {
	ID              string `json:"id"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`
	Available       bool   `json:"available"`
	BasePrice       string `json:"basePrice"`
	Price           string `json:"price"`
}

// FromUseCaseResponse конвертирует ответ usecase в DTO
func FromUseCaseResponse(resp *getAvailability.Response) AvailabilityResponse {
	out := AvailabilityResponse{
		Date:      resp.Date.Format(domain.DateFormat),
		TenantID:  resp.TenantID,
		ListingID: resp.ListingID,
		Currency:  resp.Currency,
		Occupancy: resp.Occupancy,
		Slots:     make([]SlotResponse, 0, len(resp.Slots)),
	}

	for _, s := range resp.Slots {
		out.Slots = append(out.Slots, SlotResponse{
			ID:              s.ID,
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			DurationMinutes: s.DurationMinutes,
			Available:       s.Available,
			BasePrice:       models.FormatAmount(s.BasePrice, resp.Currency),
			Price:           models.FormatAmount(s.Price, resp.Currency),
		})
	}

	return out
}
