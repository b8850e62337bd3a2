package migration

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type FileStats struct {
	Queried  int `json:"queried" yaml:"queried"`
	Declared int `json:"declared" yaml:"declared"`
	Modified int `json:"modified" yaml:"modified"`
	Migrated int `json:"migrated" yaml:"migrated"`
	Invalid  int `json:"invalid" yaml:"invalid"`
	Failed   int `json:"failed" yaml:"failed"`
}

type LocationStats struct {
	Queried     int `json:"queried" yaml:"queried"`
	Added       int `json:"added" yaml:"added"`
	NotDeclared int `json:"not_declared" yaml:"not_declared"`
	Failed      int `json:"failed" yaml:"failed"`
}

type DefinitionStats struct {
	Source     int `json:"source" yaml:"source"`
	Target     int `json:"target" yaml:"target"`
	Candidates int `json:"candidates" yaml:"candidates"`
	Added      int `json:"added" yaml:"added"`
	Skipped    int `json:"skipped" yaml:"skipped"`
	Failed     int `json:"failed" yaml:"failed"`
}

type UserStats struct {
	Source  int `json:"source" yaml:"source"`
	Target  int `json:"target" yaml:"target"`
	Missing int `json:"missing" yaml:"missing"`
	Added   int `json:"added" yaml:"added"`
	Updated int `json:"updated" yaml:"updated"`
	Failed  int `json:"failed" yaml:"failed"`
}

// Stats are the counters of one run.
type Stats struct {
	Files       FileStats       `json:"files" yaml:"files"`
	Locations   LocationStats   `json:"locations" yaml:"locations"`
	Definitions DefinitionStats `json:"definitions" yaml:"definitions"`
	Users       UserStats       `json:"users" yaml:"users"`
}

// Kind names the entity class a run migrated.
type Kind string

const (
	KindFiles       Kind = "files"
	KindLocations   Kind = "locations"
	KindDefinitions Kind = "definitions"
	KindUsers       Kind = "users"
)

type SummaryLine struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// Summary is the run-end report of one kind of run.
type Summary struct {
	Kind       Kind          `json:"kind" yaml:"kind"`
	Experiment string        `json:"experiment" yaml:"experiment"`
	Lines      []SummaryLine `json:"lines" yaml:"lines"`
}

// Summary selects the counters relevant to kind, in report order.
func (s Stats) Summary(kind Kind, experiment string) Summary {
	sum := Summary{Kind: kind, Experiment: experiment}
	add := func(label string, n int) {
		sum.Lines = append(sum.Lines, SummaryLine{Label: label, Count: n})
	}

	switch kind {
	case KindFiles:
		add("files queried", s.Files.Queried)
		add("files declared", s.Files.Declared)
		add("files modified", s.Files.Modified)
		add("locations added", s.Locations.Added)
		add("files migrated", s.Files.Migrated)
		add("files marked invalid", s.Files.Invalid)
		add("files failed", s.Files.Failed)
	case KindLocations:
		add("files queried", s.Locations.Queried)
		add("locations added", s.Locations.Added)
		add("files not declared in target", s.Locations.NotDeclared)
		add("files failed", s.Locations.Failed)
	case KindDefinitions:
		add("definitions in source database", s.Definitions.Source)
		add("definitions migrated", s.Definitions.Added)
		add("definitions skipped", s.Definitions.Skipped)
		add("definitions failed", s.Definitions.Failed)
		add("definitions in target database", s.Definitions.Target)
	case KindUsers:
		add("users in source database", s.Users.Source)
		add("users added in target database", s.Users.Added)
		add("users updated in target database", s.Users.Updated)
		add("users failed", s.Users.Failed)
		add("users in target database", s.Users.Target)
	}
	return sum
}

// WriteText prints one "<count> <label>." line per counter, with digit
// grouping for the printer's language.
func (s Summary) WriteText(w io.Writer, tag language.Tag) error {
	p := message.NewPrinter(tag)
	if _, err := p.Fprintln(w); err != nil {
		return err
	}
	for _, l := range s.Lines {
		if _, err := p.Fprintf(w, "%d %s.\n", l.Count, l.Label); err != nil {
			return err
		}
	}
	return nil
}

// WriteMarkdown renders the summary as a markdown table, the body of the
// run report mail.
func (s Summary) WriteMarkdown(w io.Writer, tag language.Tag) error {
	p := message.NewPrinter(tag)
	if _, err := p.Fprintf(w, "## %s migration for %s\n\n| Count | Counter |\n| ---: | --- |\n", s.Kind, s.Experiment); err != nil {
		return err
	}
	for _, l := range s.Lines {
		if _, err := p.Fprintf(w, "| %d | %s |\n", l.Count, l.Label); err != nil {
			return err
		}
	}
	return nil
}
