package common

import (
	"context"
	"strings"
)

// UserContext holds the authenticated user resolved by the auth middleware.
// When absent (nil), handlers treat the request as unauthenticated.
type UserContext struct {
	UserID          string
	Role            string
	DisplayCurrency string
	PushEnabled     bool
}

type contextKey int

const userContextKey contextKey = iota

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// ResolveUserID returns the UserID from context, or "" when no user context
// is present. Handlers reject unauthenticated requests before service calls,
// so services may assume a non-empty scope.
func ResolveUserID(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil {
		return uc.UserID
	}
	return ""
}

// ResolveDisplayCurrency returns the user's display currency, defaulting to INR.
func ResolveDisplayCurrency(ctx context.Context) string {
	if uc := UserContextFromContext(ctx); uc != nil && uc.DisplayCurrency != "" {
		dc := strings.ToUpper(uc.DisplayCurrency)
		if dc == "INR" || dc == "USD" {
			return dc
		}
	}
	return "INR"
}
