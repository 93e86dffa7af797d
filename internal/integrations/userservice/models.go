package userservice

// Customer профиль клиента из UserService
type Customer struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
	Category string `json:"category"` // "regular", "member", "corporate"
}
