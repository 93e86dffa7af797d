package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/money"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrInvalidDate возвращается при некорректной дате фильтра
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)

// Request модели

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	Status *string `json:"status,omitempty"`
	Limit  int     `json:"limit,omitempty"`
}

// GetTenantBookingsRequest запрос на получение бронирований тенанта
type GetTenantBookingsRequest struct {
	TenantID  int64   `json:"tenantId"`
	ListingID *int64  `json:"listingId,omitempty"`
	Date      *string `json:"date,omitempty"`
	Status    *string `json:"status,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetTenantBookingsRequest) ToDomainFilter() (domain.BookingFilter, error) {
	filter := domain.BookingFilter{
		TenantID:  &r.TenantID,
		ListingID: r.ListingID,
	}

	if r.Date != nil {
		date, err := domain.ParseDate(*r.Date)
		if err != nil {
			return filter, fmt.Errorf("%w: %q", ErrInvalidDate, *r.Date)
		}
		filter.Date = &date
	}

	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Statuses = []domain.BookingStatus{status}
	}

	return filter, nil
}

// UpdateAdminNotesRequest запрос на изменение заметок администратора
type UpdateAdminNotesRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID          int64    `json:"id"`
	Reference   string   `json:"reference"`
	TenantID    int64    `json:"tenantId"`
	ListingID   int64    `json:"listingId"`
	UserID      int64    `json:"userId"`
	BookingDate string   `json:"bookingDate"`
	SlotIDs     []string `json:"slotIds"`
	Status      string   `json:"status"`

	Customer  CustomerResponse   `json:"customer"`
	Pricing   PricingResponse    `json:"pricing"`
	Promotion *PromotionResponse `json:"promotion,omitempty"`
	History   []HistoryResponse  `json:"history"`

	HoldExpiresAt     *time.Time `json:"holdExpiresAt,omitempty"`
	PaymentOrderToken *string    `json:"paymentOrderToken,omitempty"`
	PaymentReference  *string    `json:"paymentReference,omitempty"`
	AdminNotes        *string    `json:"adminNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CustomerResponse снимок данных клиента
type CustomerResponse struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile,omitempty"`
	Email    string `json:"email,omitempty"`
	Category string `json:"category,omitempty"`
}

// PricingResponse расчёт стоимости. Суммы в основных единицах валюты ("1100.00").
type PricingResponse struct {
	Currency   string              `json:"currency"`
	Lines      []PriceLineResponse `json:"lines"`
	Subtotal   string              `json:"subtotal"`
	Discount   string              `json:"discount"`
	TaxPercent string              `json:"taxPercent"`
	Tax        string              `json:"tax"`
	Total      string              `json:"total"`
}

// PriceLineResponse цена слота и сработавшие правила
type PriceLineResponse struct {
	SlotID       string                `json:"slotId"`
	BasePrice    string                `json:"basePrice"`
	FinalPrice   string                `json:"finalPrice"`
	AppliedRules []AppliedRuleResponse `json:"appliedRules"`
	Warnings     []string              `json:"warnings,omitempty"`
}

// AppliedRuleResponse объяснение шага расчёта
type AppliedRuleResponse struct {
	RuleID      int64  `json:"ruleId"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Kind        string `json:"kind"`
	Operation   string `json:"operation"`
	Value       string `json:"value"`
	PriceBefore string `json:"priceBefore"`
	PriceAfter  string `json:"priceAfter"`
}

// PromotionResponse применённая акция
type PromotionResponse struct {
	PromotionID int64  `json:"promotionId"`
	Code        string `json:"code,omitempty"`
	Type        string `json:"type"`
	Value       string `json:"value"`
}

// HistoryResponse запись истории статусов
type HistoryResponse struct {
	Status   string            `json:"status"`
	Actor    string            `json:"actor"`
	ActorID  *int64            `json:"actorId,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	At       time.Time         `json:"at"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                b.ID,
		Reference:         b.Reference,
		TenantID:          b.TenantID,
		ListingID:         b.ListingID,
		UserID:            b.UserID,
		BookingDate:       b.BookingDate.Format(domain.DateFormat),
		SlotIDs:           b.SlotIDs,
		Status:            string(b.Status),
		Customer:          CustomerResponse(b.Customer),
		Pricing:           fromDomainPricing(b.Pricing),
		History:           make([]HistoryResponse, 0, len(b.History)),
		HoldExpiresAt:     b.HoldExpiresAt,
		PaymentOrderToken: b.PaymentOrderToken,
		PaymentReference:  b.PaymentReference,
		AdminNotes:        b.AdminNotes,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}

	if p := b.Promotion; p != nil {
		resp.Promotion = &PromotionResponse{
			PromotionID: p.PromotionID,
			Code:        p.Code,
			Type:        string(p.DiscountType),
			Value:       p.Value.String(),
		}
		if p.DiscountType == domain.DiscountFlat {
			currency := money.CurrencyFromCode(b.Pricing.Currency)
			resp.Promotion.Value = money.FromDecimal(p.Value).Major(currency).StringFixed(currency.Exponent)
		}
	}

	for _, h := range b.History {
		resp.History = append(resp.History, HistoryResponse{
			Status:   string(h.Status),
			Actor:    string(h.Actor),
			ActorID:  h.ActorID,
			Reason:   h.Reason,
			Metadata: h.Metadata,
			At:       h.At,
		})
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

func fromDomainPricing(p domain.PricingBreakdown) PricingResponse {
	currency := money.CurrencyFromCode(p.Currency)
	format := func(a money.Amount) string {
		return a.Major(currency).StringFixed(currency.Exponent)
	}

	resp := PricingResponse{
		Currency:   currency.Code,
		Lines:      make([]PriceLineResponse, 0, len(p.Lines)),
		Subtotal:   format(p.Subtotal),
		Discount:   format(p.Discount),
		TaxPercent: p.TaxPercent.String(),
		Tax:        format(p.Tax),
		Total:      format(p.Total),
	}

	for _, l := range p.Lines {
		line := PriceLineResponse{
			SlotID:       l.SlotID,
			BasePrice:    format(l.BasePrice),
			FinalPrice:   format(l.FinalPrice),
			AppliedRules: make([]AppliedRuleResponse, 0, len(l.AppliedRules)),
			Warnings:     l.Warnings,
		}
		for _, r := range l.AppliedRules {
			line.AppliedRules = append(line.AppliedRules, AppliedRuleResponse{
				RuleID:      r.RuleID,
				Name:        r.Name,
				Type:        string(r.Type),
				Kind:        string(r.Kind),
				Operation:   string(r.Operation),
				Value:       r.Value.String(),
				PriceBefore: format(r.PriceBefore),
				PriceAfter:  format(r.PriceAfter),
			})
		}
		resp.Lines = append(resp.Lines, line)
	}

	return resp
}

// FormatAmount сумма в основных единицах валюты
func FormatAmount(a money.Amount, currencyCode string) string {
	currency := money.CurrencyFromCode(currencyCode)
	return a.Major(currency).StringFixed(currency.Exponent)
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)

	validStatuses := []domain.BookingStatus{
		domain.StatusPending,
		domain.StatusConfirmed,
		domain.StatusCompleted,
		domain.StatusCancelled,
	}

	for _, valid := range validStatuses {
		if s == valid {
			return s, nil
		}
	}

	return "", ErrInvalidStatus
}
