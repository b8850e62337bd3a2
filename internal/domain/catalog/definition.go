package catalog

import (
	"regexp"
	"strings"

	"github.com/sbn-software/samsync/internal/shared/errors"
)

// Definition is a named dataset definition: a dimension expression plus
// ownership and a description.
type Definition struct {
	Name        string `json:"defname"`
	Dimensions  string `json:"dimensions"`
	Username    string `json:"username,omitempty"`
	Group       string `json:"group,omitempty"`
	Description string `json:"description,omitempty"`
}

func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.NewValidationError("definition name is required")
	}
	if strings.TrimSpace(d.Dimensions) == "" {
		return errors.NewValidationError("definition dimensions are required", d.Name)
	}
	return nil
}

// disallowedTokens are dimension identifiers scoped to one catalog (process,
// project, snapshot and definition ids). A definition using any of them cannot
// mean the same thing in another catalog.
var disallowedTokens = []string{
	"consumer_process_id",
	"consumed_status",
	"dataset_def_id",
	"file_id",
	"project_id",
	"project_name",
	"dataset_def_name",
	"dataset_def_name_newest_snapshot",
	"def_snapshot",
	"snapshot_id",
	"snapshot_file_number",
	"snapshot_for_project_id",
	"snapshot_for_project_name",
	"snapshot_version",
}

// DisallowedTokens returns the catalog-internal identifiers present in dims.
func DisallowedTokens(dims string) []string {
	var found []string
	for _, token := range disallowedTokens {
		if strings.Contains(dims, token) {
			found = append(found, token)
		}
	}
	return found
}

var (
	spaceBeforeColon = regexp.MustCompile(`\s+:`)
	parens           = strings.NewReplacer("(", " ( ", ")", " ) ")
)

const defnameKeyword = "defname:"

// ReferencedDefinitions returns the names following every "defname:" clause
// in dims, in order of first appearance.
func ReferencedDefinitions(dims string) []string {
	norm := spaceBeforeColon.ReplaceAllString(parens.Replace(dims), ":")
	tokens := strings.Fields(norm)

	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		name = strings.Trim(name, `"'`)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if len(tok) < len(defnameKeyword) || !strings.EqualFold(tok[:len(defnameKeyword)], defnameKeyword) {
			continue
		}
		if rest := tok[len(defnameKeyword):]; rest != "" {
			add(rest)
			continue
		}
		if i+1 < len(tokens) && tokens[i+1] != "(" && tokens[i+1] != ")" {
			add(tokens[i+1])
			i++
		}
	}
	return names
}
