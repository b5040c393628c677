// Package services implements the HTTP client for the remote record-store.
//
// # Raw Access
//
// [APIService] sends requests relative to the configured base URL and returns
// the raw status, headers and body. It applies the optional request rate limit
// and, when built from config, traces every call through an otelhttp transport.
//
// # Record Endpoints
//
// [RecordClient] implements [RecordService] once for every record type:
//
//	GET    /api/{plural}?page=&<filters>&sort=&sort_order=&page_size=
//	GET    /api/{plural}/{id}
//	DELETE /api/{plural}/{id}
//	POST   /api/{plural}/add
//	POST   /api/{plural}/{id}/edit
//	GET    /api/{plural}/{id}/edit/form
//
// # Error Handling
//
// Every failure is an [*APIError] whose Kind is a sentinel from the shared package:
//   - [shared.ErrNetworkFailure] : the request could not be sent or read
//   - [shared.ErrServerError] : non-2xx status; message from the body's error or message field
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrMalformedResponse] : a 2xx body that does not decode
//   - [shared.ErrValidationFailure] : a mutation answered with a field-level errors map
//
// Nothing here retries.
package services
