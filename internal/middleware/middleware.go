// Package middleware holds the Echo middleware shared by every route:
// request ids, New Relic transactions, request-scoped loggers, request
// logging, CORS, secure headers, panic recovery, and the error handler that
// turns application errors into JSON responses.
package middleware
