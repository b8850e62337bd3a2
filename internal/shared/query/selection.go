// Package query builds and parses the catalog dimension expressions used to
// select candidate files.
package query

import (
	"fmt"
	"strings"
)

const (
	AvailabilityAnyLocation = "anylocation,anystatus"
	AvailabilityPhysical    = "physical,anystatus"
)

// Selection picks the candidate files of a driver run: a single file, the
// files of a definition, or everything, optionally capped per iteration.
type Selection struct {
	FileName   string
	Definition string
	Limit      int
	Iterations int
}

type SelectionOption func(*Selection)

func WithFile(name string) SelectionOption {
	return func(s *Selection) {
		s.FileName = name
	}
}

func WithDefinition(name string) SelectionOption {
	return func(s *Selection) {
		s.Definition = name
	}
}

func WithLimit(n int) SelectionOption {
	return func(s *Selection) {
		s.Limit = n
	}
}

func WithIterations(n int) SelectionOption {
	return func(s *Selection) {
		s.Iterations = n
	}
}

func NewSelection(opts ...SelectionOption) Selection {
	s := Selection{Iterations: 1}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Rounds returns the iteration budget, at least one.
func (s Selection) Rounds() int {
	if s.Iterations <= 0 {
		return 1
	}
	return s.Iterations
}

// Base returns the selector clause. A single file wins over a definition.
func (s Selection) Base() string {
	switch {
	case s.FileName != "":
		return "file_name " + s.FileName
	case s.Definition != "":
		return "defname: " + s.Definition
	default:
		return "file_id > 0"
	}
}

// FileDimensions selects files whose migration flag (stored under flagKey) is
// neither done nor invalid.
func (s Selection) FileDimensions(flagKey string) string {
	var b strings.Builder
	b.WriteString(s.Base())
	fmt.Fprintf(&b, " minus %s 0,2", flagKey)
	b.WriteString(" with availability " + AvailabilityAnyLocation)
	s.writeLimit(&b)
	return b.String()
}

// LocationDimensions selects files with at least one physical location.
func (s Selection) LocationDimensions() string {
	var b strings.Builder
	b.WriteString(s.Base())
	b.WriteString(" with availability " + AvailabilityPhysical)
	s.writeLimit(&b)
	return b.String()
}

func (s Selection) writeLimit(b *strings.Builder) {
	if s.Limit > 0 {
		fmt.Fprintf(b, " with limit %d", s.Limit)
	}
}
