// Package errs defines the application's error shapes.
//
// Two families live here:
//   - *Error, the domain taxonomy (transport, decode, storage, validation)
//     produced by the fetcher, store, and query builder.
//   - *HTTPError, the consistent JSON error body returned to API clients.
//
// FromError bridges the two so handlers can return domain errors directly and
// let the global error handler pick the status code.
package errs
