package processor

import "github.com/rotisserie/eris"

var (
	// ErrHierarchyCycle is returned when a reparent would make an entity its own ancestor.
	ErrHierarchyCycle = eris.New("hierarchy cycle")
)
