// Package services defines the [Backend] and [Identity] interfaces the reading tracker consumes and
// implements them for the embedded SQLite database and the hosted backend.
//
// # Local Implementation
//
// [LocalBackend] and [LocalIdentity] wrap the repositories package. The local reader is the account whose
// email is configured under [local]; it is created on first use.
//
// # Remote Implementation
//
// [RemoteClient] speaks the hosted backend's REST and auth APIs:
//   - range reads send Range/Range-Unit headers with Prefer: count=exact and read the total from Content-Range
//   - inserts send Prefer: return=representation to get the stored row back
//   - single aggregate rows are requested as application/vnd.pgrst.object+json (406 means no row)
//   - sign-in uses the password grant; expired access tokens are refreshed through an [oauth2.TokenSource]
//     and rotated tokens are written back to the [TokenStore]
//
// All remote requests share one [rate.Limiter].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no saved session, or the backend rejected the token
//   - [shared.ErrAPIRequest] : transport failure or non-2xx response ([*APIError] carries the body)
//   - [shared.ErrMalformedResponse] : the response did not have the expected shape
//   - [shared.ErrNotFound] : a reader without aggregate row
package services
