// Package users implements a small account and role registry: registration
// with soft-delete reconciliation, role lookups, bearer-token issuance, and
// the HTTP surface that exposes them.
//
// Soft delete:
//   - Users are never physically removed. RemoveUser flips the active flag
//     and the unique username/email claims stay in place, so a removed
//     identity keeps blocking new registrations under the same name.
//   - Register reconciles new submissions against inactive rows: when one
//     inactive row holds both the submitted username and email, that row is
//     reactivated instead of inserting a duplicate. The whole
//     lookup-and-write sequence runs in a single transaction.
//
// Auth gate:
//   - Every endpoint except token issuance sits behind middleware/jwtware,
//     which verifies an HS256 bearer token against the shared signing
//     secret before any repository is touched.
package users
