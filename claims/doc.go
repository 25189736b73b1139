// Package claims carries a flag set inside a signed JWT.
//
// The set travels as its canonical name list in the "flags" claim, so tokens
// stay readable and survive declaration reordering as long as names are
// stable. With Config.BindFingerprint the registry fingerprint is also
// embedded and checked on parse.
//
// # What this package must NOT do
//
//   - Put bit positions or raw integers on the wire.
//   - Accept a token whose flags claim names an undeclared flag.
package claims
