package middleware

import (
	"net/http"

	goFlags "github.com/MrEthical07/goFlags"
	"github.com/MrEthical07/goFlags/claims"
)

// RequireAny admits requests whose token carries at least one flag of anyOf.
// An empty anyOf admits every valid token. Like [Guard], it panics when anyOf
// belongs to another registry.
func RequireAny(m *claims.Manager, anyOf goFlags.Set) func(http.Handler) http.Handler {
	mustMatch(m, anyOf.Registry())
	return guard(m, func(_ *http.Request, tok *claims.Token) (bool, error) {
		return anyOf.IsZero() || tok.Flags.HasAny(anyOf), nil
	})
}
