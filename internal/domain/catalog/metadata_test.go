package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Flag
		wantErr bool
	}{
		{"int zero", 0, FlagDone, false},
		{"float two", float64(2), FlagInvalid, false},
		{"json number", json.Number("1"), FlagPending, false},
		{"string", " 0 ", FlagDone, false},
		{"fraction", 1.5, FlagPending, true},
		{"out of range", 7, FlagPending, true},
		{"bool", true, FlagPending, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFlag(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetadata_FlagAbsentMeansPending(t *testing.T) {
	md := Metadata{KeyFileName: "f1.root"}

	flag, present, err := md.Flag("sbn.migrate")

	require.NoError(t, err)
	assert.False(t, present)
	assert.Equal(t, FlagPending, flag)
	assert.False(t, flag.Terminal())
	assert.True(t, FlagDone.Terminal())
	assert.True(t, FlagInvalid.Terminal())
}

func TestPadMD5(t *testing.T) {
	assert.Equal(t, "md5:00000000000000000000000000000abc", PadMD5("md5:abc"))
	assert.Equal(t, "adler32:abc", PadMD5("adler32:abc"))
	full := "md5:0123456789abcdef0123456789abcdef"
	assert.Equal(t, full, PadMD5(full))
}

func TestMetadata_PadChecksums(t *testing.T) {
	md := Metadata{KeyChecksum: []any{"md5:abc", "enstore:1234"}}

	changed := md.PadChecksums()

	assert.True(t, changed)
	assert.Equal(t, []string{"md5:00000000000000000000000000000abc", "enstore:1234"}, md[KeyChecksum])
	assert.False(t, md.PadChecksums())
	assert.False(t, Metadata{}.PadChecksums())
}

func TestMetadata_ParentsAndStripIDs(t *testing.T) {
	md := Metadata{KeyParents: []any{
		map[string]any{"file_name": "p1.root", "file_id": float64(11)},
		map[string]any{"file_name": "p2.root", "file_id": float64(12), "retired": true},
		"p3.root",
	}}

	md.StripParentIDs()
	parents := md.Parents()

	require.Len(t, parents, 3)
	assert.Equal(t, Parent{FileName: "p1.root"}, parents[0])
	assert.Equal(t, Parent{FileName: "p2.root", Retired: true}, parents[1])
	assert.Equal(t, Parent{FileName: "p3.root"}, parents[2])
	for _, p := range md[KeyParents].([]any)[:2] {
		assert.NotContains(t, p, KeyFileID)
	}
}

func TestMetadata_CloneIsDeep(t *testing.T) {
	md := Metadata{
		KeyParents: []any{map[string]any{"file_name": "p1.root", "file_id": 1}},
		"run":      map[string]any{"number": 5},
	}

	clone := md.Clone()
	clone.StripParentIDs()
	clone["run"].(map[string]any)["number"] = 6

	assert.Contains(t, md[KeyParents].([]any)[0], KeyFileID)
	assert.Equal(t, 5, md["run"].(map[string]any)["number"])
}

func TestMetadata_Diff(t *testing.T) {
	source := Metadata{
		KeyFileName:   "f1.root",
		"file_size":   float64(100),
		"data_tier":   "raw",
		KeyUser:       "alice",
		KeyParents:    []any{map[string]any{"file_name": "p1.root"}},
		"runs":        []any{[]any{1, 2, "physics"}},
		"sbn.project": "prod",
	}

	t.Run("target missing gets everything", func(t *testing.T) {
		assert.Equal(t, source, source.Diff(nil))
	})

	t.Run("equal values give empty diff", func(t *testing.T) {
		target := source.Clone()
		target["file_size"] = 100
		target["runs"] = []any{[]any{float64(1), float64(2), "physics"}}
		assert.Empty(t, source.Diff(target))
	})

	t.Run("one differing field", func(t *testing.T) {
		target := source.Clone()
		target["data_tier"] = "reco"
		assert.Equal(t, Metadata{"data_tier": "raw"}, source.Diff(target))
	})

	t.Run("parents and user never overwritten", func(t *testing.T) {
		target := source.Clone()
		target[KeyUser] = "bob"
		target[KeyParents] = []any{}
		assert.Empty(t, source.Diff(target))
	})
}

func TestMetadataUpdate_Payload(t *testing.T) {
	u := MetadataUpdate{FileName: "f1.root", Fields: Metadata{"sbn.migrate": 0}}

	payload := u.Payload()

	assert.Equal(t, Metadata{"sbn.migrate": 0, KeyFileName: "f1.root"}, payload)
	assert.NotContains(t, u.Fields, KeyFileName)
}
