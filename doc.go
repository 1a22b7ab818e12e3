// Package sqlauth provides a framework-independent authentication engine backed
// by a relational database: registration, credential verification, persistent
// "remember me" sessions, email confirmation and password reset workflows,
// role/status-based authorization, and token-bucket request throttling.
//
// The package is designed for synchronous server workloads: one [Engine] is
// bound to a single request's session and cookie state through [Builder.Build],
// and all cross-request consistency is arbitrated by the shared database.
//
// # Architecture boundaries
//
// sqlauth is the public surface. It exposes [Engine], [Admin], [Builder],
// [Config], and value types (Status, Roles, LoginOptions, etc.). All internal
// coordination — repositories, throttle buckets, token generation — lives
// under internal/ and is never exported. HTTP cookie serialization, session
// persistence, and the database connection are consumed through the
// [github.com/MrEthical07/sqlauth/cookie] and
// [github.com/MrEthical07/sqlauth/session] abstractions and *gorm.DB.
//
// # What this package must NOT do
//
//   - Send email or render anything user-facing; confirmation and reset
//     secrets are handed to caller-supplied delivery callbacks.
//   - Store any password or second-factor secret in plaintext.
//   - Hold in-process locks for cross-request state; the force-logout counter
//     and throttle buckets are reconciled through atomic database updates so
//     that multiple server processes can share one store.
package sqlauth
