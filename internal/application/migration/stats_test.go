package migration

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestStats_SummaryText(t *testing.T) {
	stats := Stats{
		Files:     FileStats{Queried: 1234, Declared: 10, Modified: 2, Migrated: 12},
		Locations: LocationStats{Added: 7},
	}

	var buf bytes.Buffer
	require.NoError(t, stats.Summary(KindFiles, "sbnd").WriteText(&buf, language.English))

	out := buf.String()
	assert.Contains(t, out, "1,234 files queried.\n")
	assert.Contains(t, out, "10 files declared.\n")
	assert.Contains(t, out, "7 locations added.\n")
	assert.Contains(t, out, "12 files migrated.\n")
}

func TestStats_SummaryPerKind(t *testing.T) {
	stats := Stats{
		Definitions: DefinitionStats{Source: 5, Added: 2, Skipped: 1, Target: 9},
		Users:       UserStats{Source: 3, Added: 1, Updated: 2, Target: 4},
	}

	defs := stats.Summary(KindDefinitions, "icarus")
	assert.Equal(t, KindDefinitions, defs.Kind)
	assert.Equal(t, SummaryLine{Label: "definitions in source database", Count: 5}, defs.Lines[0])
	assert.Equal(t, SummaryLine{Label: "definitions in target database", Count: 9}, defs.Lines[len(defs.Lines)-1])

	users := stats.Summary(KindUsers, "icarus")
	assert.Equal(t, SummaryLine{Label: "users updated in target database", Count: 2}, users.Lines[2])

	assert.Empty(t, stats.Summary(Kind("unknown"), "icarus").Lines)
}

func TestStats_SummaryMarkdown(t *testing.T) {
	stats := Stats{Users: UserStats{Source: 1500, Added: 3}}

	var buf bytes.Buffer
	require.NoError(t, stats.Summary(KindUsers, "sbnd").WriteMarkdown(&buf, language.English))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "## users migration for sbnd\n"))
	assert.Contains(t, out, "| 1,500 | users in source database |\n")
	assert.Contains(t, out, "| 3 | users added in target database |\n")
}
