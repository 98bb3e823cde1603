package auth

import (
	"context"

	"github.com/onurmutlu/flirtmarket/pkg/user"
)

// Context keys for authentication data
type contextKey string

const (
	// ContextKeyUserID is the context key for the user's database ID
	ContextKeyUserID contextKey = "user_id"
	// ContextKeyRole is the context key for the role claimed by the token
	ContextKeyRole contextKey = "role"
)

// WithUserID adds the user ID to the context
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// UserIDFromContext retrieves the user ID from the context
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(int64)
	return id, ok
}

// WithRole adds the role to the context
func WithRole(ctx context.Context, role user.Role) context.Context {
	return context.WithValue(ctx, ContextKeyRole, role)
}

// RoleFromContext retrieves the role from the context
func RoleFromContext(ctx context.Context) (user.Role, bool) {
	role, ok := ctx.Value(ContextKeyRole).(user.Role)
	return role, ok
}

// AuthInfo contains all authentication information for a request
type AuthInfo struct {
	UserID int64
	Role   user.Role
}

// WithAuthInfo adds all authentication info to the context
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	ctx = WithUserID(ctx, info.UserID)
	ctx = WithRole(ctx, info.Role)
	return ctx
}

// AuthInfoFromContext retrieves all authentication info from the context
func AuthInfoFromContext(ctx context.Context) *AuthInfo {
	info := &AuthInfo{}
	info.UserID, _ = UserIDFromContext(ctx)
	info.Role, _ = RoleFromContext(ctx)
	return info
}
