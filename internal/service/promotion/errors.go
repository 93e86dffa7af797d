package promotion

import (
	"errors"
	"fmt"
)

var (
	// ErrIneligible промокод не подходит к заказу, причина в *IneligibleError
	ErrIneligible = errors.New("promotion: ineligible")

	// ErrUsageLimitReached исчерпан общий лимит или лимит пользователя
	ErrUsageLimitReached = errors.New("promotion: usage limit reached")

	// ErrPromotionNotFound акция не найдена
	ErrPromotionNotFound = errors.New("promotion: not found")

	// ErrInvalidInput некорректные параметры запроса
	ErrInvalidInput = errors.New("promotion: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("promotion: internal error")
)

// Причины отказа. Текст показывается пользователю как есть.
const (
	ReasonNotFound          = "promotion code not found"
	ReasonInactive          = "promotion is not active"
	ReasonNotStarted        = "promotion has not started yet"
	ReasonExpired           = "promotion has expired"
	ReasonScopeMismatch     = "promotion is not valid for this venue"
	ReasonListing           = "promotion does not apply to this listing"
	ReasonListingType       = "promotion does not apply to this listing type"
	ReasonUserCategory      = "promotion is not available for your customer category"
	ReasonMinSlotCount      = "not enough slots in the order for this promotion"
	ReasonMinOrderValue     = "order value is below the promotion minimum"
	ReasonMaxOrderValue     = "order value exceeds the promotion maximum"
	ReasonUsageLimit        = "usage limit reached"
	ReasonPerUserUsageLimit = "per-user usage limit reached"
)

// IneligibleError промокод не прошёл проверку
type IneligibleError struct {
	Code   string
	Reason string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("promotion %q ineligible: %s", e.Code, e.Reason)
}

func (e *IneligibleError) Unwrap() error {
	return ErrIneligible
}
