package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-SlotBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderTenantID = "X-Tenant-ID"
	HeaderUserRole = "X-User-Role"

	msgMissingUserID   = "отсутствует ID пользователя"
	msgInvalidUserID   = "некорректный ID пользователя"
	msgInvalidTenantID = "некорректный ID тенанта"
	msgInvalidRole     = "некорректная роль пользователя"
)

type principalKey struct{}

// Auth собирает Principal из заголовков, проставленных шлюзом.
// Без X-User-ID запрос отклоняется с 401.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawUserID := r.Header.Get(HeaderUserID)
		if rawUserID == "" {
			handlers.RespondUnauthorized(w, msgMissingUserID)
			return
		}

		userID, err := strconv.ParseInt(rawUserID, 10, 64)
		if err != nil || userID <= 0 {
			handlers.RespondUnauthorized(w, msgInvalidUserID)
			return
		}

		principal := domain.Principal{UserID: userID, Role: domain.RoleCustomer}

		if rawTenantID := r.Header.Get(HeaderTenantID); rawTenantID != "" {
			tenantID, err := strconv.ParseInt(rawTenantID, 10, 64)
			if err != nil || tenantID <= 0 {
				handlers.RespondBadRequest(w, msgInvalidTenantID)
				return
			}
			principal.TenantID = &tenantID
		}

		if rawRole := r.Header.Get(HeaderUserRole); rawRole != "" {
			role := domain.Role(rawRole)
			switch role {
			case domain.RoleCustomer, domain.RoleTenantAdmin, domain.RolePlatformAdmin:
				principal.Role = role
			default:
				handlers.RespondForbidden(w, msgInvalidRole)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// WithPrincipal кладёт Principal в контекст
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal достаёт Principal, проставленный Auth
func GetPrincipal(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// GetUserID ID пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	p, ok := GetPrincipal(ctx)
	if !ok {
		return 0, false
	}
	return p.UserID, true
}
