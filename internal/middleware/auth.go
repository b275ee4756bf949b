package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/zhouzirui/workcity-chat/backend/pkg/utils"
)

// Capabilities checked by the API.
const (
	CapEditSessions = "edit_sessions"
	CapManageOrders = "manage_orders"
)

// Principal is the authenticated caller.
type Principal struct {
	Token        string
	Capabilities map[string]bool
}

// Can reports whether the principal holds capability.
func (p Principal) Can(capability string) bool {
	return p.Capabilities[capability]
}

type principalKey struct{}

// PrincipalFrom returns the caller set by Authenticator.Require.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authenticator resolves bearer tokens to capabilities.
type Authenticator struct {
	principals map[string]Principal
}

// NewAuthenticator builds an Authenticator from token -> capabilities.
func NewAuthenticator(tokens map[string][]string) *Authenticator {
	a := &Authenticator{principals: make(map[string]Principal, len(tokens))}
	for token, caps := range tokens {
		p := Principal{Token: token, Capabilities: make(map[string]bool, len(caps))}
		for _, c := range caps {
			p.Capabilities[c] = true
		}
		a.principals[token] = p
	}
	return a
}

// Require rejects requests without a known bearer token (401) or without any
// of the listed capabilities (403).
func (a *Authenticator) Require(capabilities ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			principal, ok := a.principals[token]
			if token == "" || !ok {
				utils.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			allowed := len(capabilities) == 0
			for _, c := range capabilities {
				if principal.Can(c) {
					allowed = true
					break
				}
			}
			if !allowed {
				utils.RespondError(w, http.StatusForbidden, "insufficient capability")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, principal)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
