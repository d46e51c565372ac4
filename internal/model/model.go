// Package model defines the records that flow through the application:
// a Build as delivered by the remote endpoint and as stored locally, and the
// SetCounts tag map it carries.
package model
