// Package internal holds code private to goFlags.
//
// # Sub-packages
//
//   - cli — the flagctl command tree (cobra + viper + zap)
//   - fold — pooled case folding for name lookup
//
// # What this package must NOT do
//
//   - Export types that appear in the public goFlags API.
//   - Be imported by any package outside the goFlags module.
package internal
