// Package middleware exposes HTTP guards that admit requests by the flag set
// carried in a bearer token.
//
// # Guards
//
//   - [Guard]: the token must carry every flag in the required set.
//   - [RequireAny]: the token must carry at least one flag of the set.
//   - [RequireStrict]: like Guard, but the required flags must also still be
//     present in the store, so revocations apply before tokens expire.
//
// Each guard reads the Authorization header, verifies it with a
// claims.Manager, and injects the verified token into the request context.
//
// # What this package must NOT do
//
//   - Parse JWTs itself. Verification is delegated to claims.Manager.
//   - Write to the store.
package middleware
