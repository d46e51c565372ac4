// Package service contains the business logic.
//
// It sits between the handler and repository layers: it receives validated
// input from handlers or commands, talks to the builds endpoint, and calls
// repository methods to persist and query builds.
package service
