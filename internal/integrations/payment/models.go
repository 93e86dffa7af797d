package payment

// authorizeRequest запрос на создание платёжного заказа. Сумма в минорных единицах.
type authorizeRequest struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
}

type authorizeResponse struct {
	OrderToken string `json:"order_token"`
}

type verifyResponse struct {
	Valid            bool   `json:"valid"`
	Status           string `json:"status"` // "success" | "failed"
	BookingReference string `json:"booking_reference"`
	PaymentReference string `json:"payment_reference"`
	Reason           string `json:"reason,omitempty"`
}

// CallbackResult проверенный результат оплаты
type CallbackResult struct {
	Success          bool
	BookingReference string
	PaymentReference string
	Reason           string
}
