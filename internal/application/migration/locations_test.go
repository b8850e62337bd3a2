package migration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbn-software/samsync/internal/application/migration/testutil"
	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/shared/errors"
	"github.com/sbn-software/samsync/internal/shared/logger"
	"github.com/sbn-software/samsync/internal/shared/query"
)

func newLocationFixture() (*testutil.MockCatalog, *testutil.MockCatalog, *Session, *LocationReconciler) {
	source := testutil.NewMockCatalog("sbnd")
	target := testutil.NewMockCatalog("sbn")
	log := logger.NewNopLogger()
	session := NewSession(source, target, Options{Experiment: "sbnd"}, log)
	return source, target, session, NewLocationReconciler(session, log)
}

func TestReconcileLocations(t *testing.T) {
	const (
		tape    = "enstore:/pnfs/sbnd/raw/f1(17@vr1234)"
		disk    = "dcache:/pnfs/sbnd/persistent/f1"
		scratch = "dcache:/pnfs/sbnd/scratch/users/f1"
	)

	tests := []struct {
		name           string
		includeScratch bool
		targetHas      []string
		wantAdded      []string
	}{
		{
			name:      "adds missing non-scratch locations",
			wantAdded: []string{tape, disk},
		},
		{
			name:           "standalone mode includes scratch",
			includeScratch: true,
			wantAdded:      []string{tape, disk, scratch},
		},
		{
			name:      "matches by full path",
			targetHas: []string{disk},
			wantAdded: []string{tape},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, target, session, r := newLocationFixture()
			source.PutFile("f1.root", nil)
			target.PutFile("f1.root", nil)
			for _, loc := range []string{tape, disk, scratch} {
				source.PutLocation("f1.root", loc, loc)
			}
			for _, loc := range tt.targetHas {
				target.PutLocation("f1.root", "other-string", loc)
			}

			err := r.ReconcileLocations(context.Background(), "f1.root", tt.includeScratch)
			require.NoError(t, err)

			var added []string
			for _, w := range target.WritesFor("AddFileLocation") {
				added = append(added, w.Fields["location"].(string))
			}
			assert.Equal(t, tt.wantAdded, added)
			assert.Equal(t, len(tt.wantAdded), session.Stats().Locations.Added)
		})
	}
}

func TestReconcileLocations_NotDeclared(t *testing.T) {
	source, _, session, r := newLocationFixture()
	source.PutFile("f1.root", nil)
	source.PutLocation("f1.root", "dcache:/pnfs/sbnd/persistent/f1", "dcache:/pnfs/sbnd/persistent/f1")
	invalid := &recordedNames{}
	session.SetInvalidRecorder(invalid)

	err := r.ReconcileLocations(context.Background(), "f1.root", false)

	require.Error(t, err)
	assert.True(t, errors.IsNotDeclaredError(err))
	assert.Equal(t, []string{"f1.root"}, invalid.names)
}

func TestReconcileLocations_SourceFailureIsNotNotDeclared(t *testing.T) {
	source, target, _, r := newLocationFixture()
	source.PutFile("f1.root", nil)
	target.PutFile("f1.root", nil)
	source.LocateErrors["f1.root"] = errors.NewRemoteError("connection reset", nil)

	err := r.ReconcileLocations(context.Background(), "f1.root", false)

	require.Error(t, err)
	assert.False(t, errors.IsNotDeclaredError(err))
	assert.True(t, errors.IsRemoteError(err))
}

func TestLocationReconciler_Run(t *testing.T) {
	source, target, session, r := newLocationFixture()
	for _, name := range []string{"a.root", "b.root", "c.root"} {
		source.PutFile(name, catalog.Metadata{})
		source.PutLocation(name, "dcache:/pnfs/sbnd/persistent/"+name, "dcache:/pnfs/sbnd/persistent/"+name)
	}
	source.PutFile("nolocation.root", catalog.Metadata{})
	target.PutFile("a.root", nil)
	target.PutFile("b.root", nil)

	err := r.Run(context.Background(), query.NewSelection(), false)
	require.NoError(t, err)

	stats := session.Stats().Locations
	assert.Equal(t, 3, stats.Queried)
	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 1, stats.NotDeclared)
	assert.Equal(t, 0, stats.Failed)
}
