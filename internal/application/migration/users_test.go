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
)

func newUserFixture() (*testutil.MockCatalog, *testutil.MockCatalog, *Session, *UserMigrator) {
	source := testutil.NewMockCatalog("sbnd")
	target := testutil.NewMockCatalog("sbn")
	log := logger.NewNopLogger()
	session := NewSession(source, target, Options{Experiment: "sbnd"}, log)
	return source, target, session, NewUserMigrator(session, log)
}

func TestMigrateUsers_CreatesMissingAccounts(t *testing.T) {
	source, target, session, m := newUserFixture()
	source.PutUser(&catalog.User{
		Username:     "alice",
		FirstName:    "Alice",
		LastName:     "Liddell",
		Email:        "alice@example.org",
		Groups:       []string{"sbnd", "sbnd_pro"},
		GridSubjects: []string{"/DC=org/CN=Alice"},
	})

	require.NoError(t, m.Run(context.Background(), ""))

	alice := target.User("alice")
	require.NotNil(t, alice)
	assert.Equal(t, "Alice", alice.FirstName)
	assert.Equal(t, "Liddell", alice.LastName)
	assert.Equal(t, "alice@example.org", alice.Email)
	assert.ElementsMatch(t, []string{"sbnd", "sbnd_pro"}, alice.Groups)
	assert.Equal(t, []string{"/DC=org/CN=Alice"}, alice.GridSubjects)

	stats := session.Stats().Users
	assert.Equal(t, 1, stats.Source)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Target)
}

func TestMigrateUsers_OnlyAdds(t *testing.T) {
	source, target, session, m := newUserFixture()
	source.PutUser(&catalog.User{Username: "bob", Groups: []string{"sbnd"}, GridSubjects: []string{"/CN=bob"}})
	target.PutUser(&catalog.User{Username: "bob", Groups: []string{"icarus", "sbnd"}, GridSubjects: []string{"/CN=bob-old"}})

	require.NoError(t, m.MigrateUsers(context.Background(), []string{"bob"}))

	bob := target.User("bob")
	assert.ElementsMatch(t, []string{"icarus", "sbnd"}, bob.Groups)
	assert.ElementsMatch(t, []string{"/CN=bob-old", "/CN=bob"}, bob.GridSubjects)
	assert.Empty(t, target.WritesFor("AddUser"))

	mods := target.WritesFor("ModifyUser")
	require.Len(t, mods, 1, "no group call when nothing is missing")
	assert.Equal(t, "/CN=bob", mods[0].Fields["addgridsubject"])
	assert.Equal(t, 1, session.Stats().Users.Updated)
}

func TestMigrateUsers_UpToDateUserIsNotUpdated(t *testing.T) {
	source, target, session, m := newUserFixture()
	u := &catalog.User{Username: "carol", Groups: []string{"sbnd"}, GridSubjects: []string{"/CN=carol"}}
	source.PutUser(u)
	target.PutUser(u)

	require.NoError(t, m.Run(context.Background(), "carol"))

	assert.Empty(t, target.Writes)
	assert.Equal(t, 0, session.Stats().Users.Updated)
}

func TestMigrateUsers_RejectedSubjectDoesNotStopOthers(t *testing.T) {
	source, target, session, m := newUserFixture()
	source.PutUser(&catalog.User{
		Username:     "dave",
		Groups:       []string{"sbnd"},
		GridSubjects: []string{"/CN=bad", "/CN=good"},
	})
	target.PutUser(&catalog.User{Username: "dave"})
	target.SubjectErrors["/CN=bad"] = errors.NewConflictError("subject belongs to another user")

	require.NoError(t, m.Run(context.Background(), ""))

	dave := target.User("dave")
	assert.Equal(t, []string{"sbnd"}, dave.Groups)
	assert.Equal(t, []string{"/CN=good"}, dave.GridSubjects)
	assert.Equal(t, 1, session.Stats().Users.Updated)
	assert.Equal(t, 0, session.Stats().Users.Failed)
}

func TestMigrateUsers_FailedCreateIsCounted(t *testing.T) {
	source, target, session, m := newUserFixture()
	source.PutUser(&catalog.User{Username: "erin"})
	source.PutUser(&catalog.User{Username: "frank", Groups: []string{"sbnd"}})
	target.UserErrors["erin"] = errors.NewRemoteStatusError(500, "server error")

	require.NoError(t, m.Run(context.Background(), ""))

	stats := session.Stats().Users
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Added)
	assert.Nil(t, target.User("erin"))
	assert.Equal(t, []string{"sbnd"}, target.User("frank").Groups)
}
