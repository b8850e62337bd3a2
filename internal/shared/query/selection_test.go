package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbn-software/samsync/internal/shared/errors"
)

func TestSelection_FileDimensions(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want string
	}{
		{
			name: "all files",
			sel:  NewSelection(),
			want: "file_id > 0 minus sbn.migrate 0,2 with availability anylocation,anystatus",
		},
		{
			name: "definition with limit",
			sel:  NewSelection(WithDefinition("raw_run1"), WithLimit(100)),
			want: "defname: raw_run1 minus sbn.migrate 0,2 with availability anylocation,anystatus with limit 100",
		},
		{
			name: "file wins over definition",
			sel:  NewSelection(WithDefinition("raw_run1"), WithFile("f1.root")),
			want: "file_name f1.root minus sbn.migrate 0,2 with availability anylocation,anystatus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sel.FileDimensions("sbn.migrate"))
		})
	}
}

func TestSelection_LocationDimensions(t *testing.T) {
	sel := NewSelection(WithLimit(5))
	assert.Equal(t, "file_id > 0 with availability physical,anystatus with limit 5", sel.LocationDimensions())
}

func TestSelection_Rounds(t *testing.T) {
	assert.Equal(t, 1, Selection{}.Rounds())
	assert.Equal(t, 1, NewSelection().Rounds())
	assert.Equal(t, 4, NewSelection(WithIterations(4)).Rounds())
}

func TestParseDimensions_RoundTrip(t *testing.T) {
	sel := NewSelection(WithDefinition("raw_run1"), WithLimit(10))

	d, err := ParseDimensions(sel.FileDimensions("sbn.migrate"))

	require.NoError(t, err)
	assert.Equal(t, "raw_run1", d.Definition)
	assert.Equal(t, "sbn.migrate", d.ExcludeKey)
	assert.Equal(t, []int{0, 2}, d.ExcludeValues)
	assert.True(t, d.Excludes(2))
	assert.False(t, d.Excludes(1))
	assert.Equal(t, AvailabilityAnyLocation, d.Availability)
	assert.False(t, d.PhysicalOnly())
	assert.Equal(t, 10, d.Limit)
}

func TestParseDimensions_Selectors(t *testing.T) {
	d, err := ParseDimensions("file_id > 0 with availability physical,anystatus")
	require.NoError(t, err)
	assert.True(t, d.AllFiles)
	assert.True(t, d.PhysicalOnly())

	d, err = ParseDimensions("file_name f1.root")
	require.NoError(t, err)
	assert.Equal(t, "f1.root", d.FileName)

	d, err = ParseDimensions("defname:raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", d.Definition)

	d, err = ParseDimensions("defname : raw with limit 3")
	require.NoError(t, err)
	assert.Equal(t, "raw", d.Definition)
	assert.Equal(t, 3, d.Limit)
}

func TestParseDimensions_Rejects(t *testing.T) {
	for _, expr := range []string{
		"",
		"run_number 5",
		"file_id > 10",
		"file_name",
		"file_name f1 minus sbn.migrate a,b",
		"file_name f1 with limit -1",
		"file_name f1 with stride 2",
		"file_name f1 and run_number 5",
	} {
		_, err := ParseDimensions(expr)
		require.Error(t, err, expr)
		assert.True(t, errors.IsValidationError(err), expr)
	}
}
