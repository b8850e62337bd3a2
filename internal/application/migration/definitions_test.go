package migration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbn-software/samsync/internal/application/migration/testutil"
	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/shared/errors"
	"github.com/sbn-software/samsync/internal/shared/logger"
)

func newDefinitionFixture() (*testutil.MockCatalog, *testutil.MockCatalog, *Session, *DefinitionMigrator) {
	source := testutil.NewMockCatalog("icarus")
	target := testutil.NewMockCatalog("sbn")
	log := logger.NewNopLogger()
	session := NewSession(source, target, Options{Experiment: "icarus"}, log)
	return source, target, session, NewDefinitionMigrator(session, log)
}

func TestMigrateDefinition_CreatesWithSameFields(t *testing.T) {
	source, target, session, m := newDefinitionFixture()
	source.PutDefinition(&catalog.Definition{
		Name:        "raw_run1",
		Dimensions:  "data_tier raw and run_number 1",
		Username:    "alice",
		Group:       "icarus",
		Description: "run 1 raw data",
	})

	require.NoError(t, m.MigrateDefinition(context.Background(), "raw_run1"))

	created := target.Definition("raw_run1")
	require.NotNil(t, created)
	assert.Equal(t, "data_tier raw and run_number 1", created.Dimensions)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "icarus", created.Group)
	assert.Equal(t, "run 1 raw data", created.Description)
	assert.Equal(t, 1, session.Stats().Definitions.Added)
}

func TestMigrateDefinition_MissingReferenceFails(t *testing.T) {
	source, target, session, m := newDefinitionFixture()
	source.PutDefinition(&catalog.Definition{Name: "D1", Dimensions: "defname: D2 with limit 10"})

	err := m.MigrateDefinition(context.Background(), "D1")

	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.Nil(t, target.Definition("D1"))
	assert.GreaterOrEqual(t, session.Stats().Definitions.Skipped, 1)
	assert.Empty(t, target.Writes)
}

func TestMigrateDefinition_ExistingTargetIsNotTouched(t *testing.T) {
	source, target, _, m := newDefinitionFixture()
	source.PutDefinition(&catalog.Definition{Name: "D1", Dimensions: "snapshot_id 5"})
	target.PutDefinition(&catalog.Definition{Name: "D1", Dimensions: "something else"})

	require.NoError(t, m.MigrateDefinition(context.Background(), "D1"))
	assert.Equal(t, "something else", target.Definition("D1").Dimensions)
	assert.Empty(t, target.Writes)
}

func TestMigrateDefinition_DisallowedTokenSkips(t *testing.T) {
	source, target, session, m := newDefinitionFixture()
	source.PutDefinition(&catalog.Definition{Name: "snap", Dimensions: "snapshot_for_project_name prod_1"})

	err := m.MigrateDefinition(context.Background(), "snap")

	require.Error(t, err)
	assert.True(t, errors.IsPolicyError(err))
	assert.Nil(t, target.Definition("snap"))
	assert.Equal(t, 1, session.Stats().Definitions.Skipped)
}

func TestMigrateDefinition_ReferencesCreatedFirst(t *testing.T) {
	source, target, session, m := newDefinitionFixture()
	source.PutDefinition(&catalog.Definition{Name: "top", Dimensions: "defname: mid and defname: base"})
	source.PutDefinition(&catalog.Definition{Name: "mid", Dimensions: "defname: base with limit 5"})
	source.PutDefinition(&catalog.Definition{Name: "base", Dimensions: "data_tier raw"})

	require.NoError(t, m.MigrateDefinition(context.Background(), "top"))

	creates := target.WritesFor("CreateDefinition")
	require.Len(t, creates, 3)
	assert.Equal(t, "base", creates[0].Name)
	assert.Equal(t, "mid", creates[1].Name)
	assert.Equal(t, "top", creates[2].Name)
	assert.Equal(t, 3, session.Stats().Definitions.Added)
}

func TestMigrateDefinition_CycleFailsEveryMember(t *testing.T) {
	source, target, session, m := newDefinitionFixture()
	source.PutDefinition(&catalog.Definition{Name: "a", Dimensions: "defname: b"})
	source.PutDefinition(&catalog.Definition{Name: "b", Dimensions: "defname: a"})
	source.PutDefinition(&catalog.Definition{Name: "self", Dimensions: "defname: self or data_tier raw"})

	err := m.MigrateDefinition(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, errors.IsCycleError(err))

	err = m.MigrateDefinition(context.Background(), "self")
	require.Error(t, err)
	assert.True(t, errors.IsCycleError(err))

	assert.Empty(t, target.Writes)
	assert.Equal(t, 3, session.Stats().Definitions.Skipped)
}

func TestMigrateDefinition_TransientFailureCountsFailed(t *testing.T) {
	source, target, session, m := newDefinitionFixture()
	source.PutDefinition(&catalog.Definition{Name: "D1", Dimensions: "data_tier raw"})
	target.DescribeErrors["D1"] = errors.NewRemoteStatusError(502, "bad gateway")

	err := m.MigrateDefinition(context.Background(), "D1")

	require.Error(t, err)
	assert.True(t, errors.IsRemoteError(err))
	assert.Equal(t, 1, session.Stats().Definitions.Failed)
	assert.Equal(t, 0, session.Stats().Definitions.Skipped)
}

func TestDefinitionMigrator_RunHonoursLimit(t *testing.T) {
	source, target, session, m := newDefinitionFixture()
	for i := 0; i < 5; i++ {
		source.PutDefinition(&catalog.Definition{Name: fmt.Sprintf("d%d", i), Dimensions: "data_tier raw"})
	}
	target.PutDefinition(&catalog.Definition{Name: "d0", Dimensions: "data_tier raw"})
	target.PutDefinition(&catalog.Definition{Name: "other", Dimensions: "data_tier reco"})

	require.NoError(t, m.Run(context.Background(), DefinitionSelection{Limit: 2}))

	stats := session.Stats().Definitions
	assert.Equal(t, 5, stats.Source)
	assert.Equal(t, 4, stats.Candidates)
	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 4, stats.Target)
	assert.NotNil(t, target.Definition("d1"))
	assert.NotNil(t, target.Definition("d2"))
	assert.Nil(t, target.Definition("d3"))
}

func TestDefinitionMigrator_RunSingleDefinition(t *testing.T) {
	source, target, session, m := newDefinitionFixture()
	source.PutDefinition(&catalog.Definition{Name: "d1", Dimensions: "data_tier raw"})
	source.PutDefinition(&catalog.Definition{Name: "d2", Dimensions: "data_tier raw"})

	require.NoError(t, m.Run(context.Background(), DefinitionSelection{Name: "d2"}))

	assert.Equal(t, 1, session.Stats().Definitions.Source)
	assert.NotNil(t, target.Definition("d2"))
	assert.Nil(t, target.Definition("d1"))
}
