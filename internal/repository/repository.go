// Package repository runs the application's statements against the store.
//
// It renders search filters for the store's dialect and converts driver
// failures into storage errors, keeping SQL away from the service layer.
package repository

import (
	"github.com/deppfellow/buildsearch/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Builds *BuildRepository
}

// NewRepositories constructs the repository container on the server's store.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Builds: NewBuildRepository(s),
	}
}
