package middleware

import (
	"context"
	"net/http"
	"strings"

	goFlags "github.com/MrEthical07/goFlags"
	"github.com/MrEthical07/goFlags/claims"
)

type tokenContextKey struct{}

// TokenFromContext returns the token verified by a guard.
func TokenFromContext(ctx context.Context) (*claims.Token, bool) {
	tok, ok := ctx.Value(tokenContextKey{}).(*claims.Token)
	return tok, ok
}

// Guard admits requests whose token carries every flag in need. A missing or
// invalid token yields 401; insufficient flags yield 403. Guard panics with
// [goFlags.ErrRegistryMismatch] when need is bound to another registry than m.
func Guard(m *claims.Manager, need goFlags.Set) func(http.Handler) http.Handler {
	mustMatch(m, need.Registry())
	return guard(m, func(_ *http.Request, tok *claims.Token) (bool, error) {
		return tok.Flags.Has(need), nil
	})
}

// mustMatch panics at construction so a wiring mistake does not surface as a
// panic on every request. A nil manager or Set{} matches anything.
func mustMatch(m *claims.Manager, reg *goFlags.Registry) {
	if m == nil || reg == nil {
		return
	}
	if m.Registry() != reg {
		panic(goFlags.ErrRegistryMismatch)
	}
}

type checkFunc func(r *http.Request, tok *claims.Token) (bool, error)

func guard(m *claims.Manager, allow checkFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			tok, err := m.Parse(raw)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			allowed, err := allow(r, tok)
			if err != nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
			if !allowed {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), tokenContextKey{}, tok)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
