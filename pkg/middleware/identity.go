package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fkhayef/pantryledger/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// MemberIDKey is the context key for the acting household member
	MemberIDKey ContextKey = "member_id"

	// MemberIDHeader carries the acting member's id. Identity is issued by the
	// surrounding household app; this service only trusts and forwards it.
	MemberIDHeader = "X-Member-ID"
)

// MemberIdentity copies the X-Member-ID header into the request context
func MemberIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		memberID := strings.TrimSpace(r.Header.Get(MemberIDHeader))
		if memberID != "" {
			r = r.WithContext(WithMemberID(r.Context(), memberID))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMember rejects requests that carry no member identity
func RequireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetMemberID(r.Context()); !ok {
			response.Unauthorized(w, MemberIDHeader+" header required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithMemberID returns a copy of ctx carrying memberID
func WithMemberID(ctx context.Context, memberID string) context.Context {
	return context.WithValue(ctx, MemberIDKey, memberID)
}

// GetMemberID extracts the member ID from the request context
func GetMemberID(ctx context.Context) (string, bool) {
	memberID, ok := ctx.Value(MemberIDKey).(string)
	return memberID, ok && memberID != ""
}
