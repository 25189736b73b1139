package middleware

import (
	"errors"
	"net/http"

	goFlags "github.com/MrEthical07/goFlags"
	"github.com/MrEthical07/goFlags/claims"
	"github.com/MrEthical07/goFlags/store"
)

// RequireStrict is like [Guard] and additionally requires need to be present
// in the set stored under the token subject. A missing entry is treated as
// the empty set; store failures yield 503. It panics when need or the store
// belong to another registry than m.
func RequireStrict(m *claims.Manager, s *store.Store, need goFlags.Set) func(http.Handler) http.Handler {
	mustMatch(m, need.Registry())
	if s != nil {
		mustMatch(m, s.Registry())
	}
	return guard(m, func(r *http.Request, tok *claims.Token) (bool, error) {
		if !tok.Flags.Has(need) {
			return false, nil
		}
		if s == nil {
			return false, errors.New("nil store")
		}
		live, err := s.Load(r.Context(), tok.Subject)
		if errors.Is(err, store.ErrNotFound) {
			return need.IsZero(), nil
		}
		if err != nil {
			return false, err
		}
		return live.Has(need), nil
	})
}
