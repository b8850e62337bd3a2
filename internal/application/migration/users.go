package migration

import (
	"context"
	"fmt"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/shared/logger"
	"github.com/sbn-software/samsync/internal/shared/utils/setutil"
)

// UserMigrator creates missing accounts in the target and adds the groups and
// grid subjects the target lacks. It never removes anything.
type UserMigrator struct {
	session *Session
	logger  logger.Interface
}

func NewUserMigrator(session *Session, log logger.Interface) *UserMigrator {
	return &UserMigrator{
		session: session,
		logger:  log,
	}
}

// Run migrates one user, or every source user when username is empty.
func (m *UserMigrator) Run(ctx context.Context, username string) error {
	if username != "" {
		return m.MigrateUsers(ctx, []string{username})
	}
	users, err := m.session.source.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list source users: %w", err)
	}
	return m.MigrateUsers(ctx, users)
}

// MigrateUsers reconciles the given source usernames. Per-user failures are
// logged and counted; only failing to list target users aborts.
func (m *UserMigrator) MigrateUsers(ctx context.Context, candidates []string) error {
	s := m.session

	targetUsers, err := s.target.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list target users: %w", err)
	}

	sourceSet := setutil.NewStringSet(candidates...)
	targetSet := setutil.NewStringSet(targetUsers...)
	missing := sourceSet.Difference(targetSet).Sorted()

	s.stats.Users.Source = sourceSet.Len()
	s.stats.Users.Target = targetSet.Len()
	s.stats.Users.Missing = len(missing)
	m.logger.Infow("users compared",
		"source", sourceSet.Len(),
		"target", targetSet.Len(),
		"missing", len(missing),
	)

	notCreated := setutil.NewStringSet()
	for _, username := range missing {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.addUser(ctx, username); err != nil {
			s.stats.Users.Failed++
			notCreated.Add(username)
			m.logger.Warnw("failed to add user", "username", username, "error", err)
		}
	}

	for _, username := range sourceSet.Sorted() {
		if notCreated.Has(username) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.syncMemberships(ctx, username); err != nil {
			s.stats.Users.Failed++
			m.logger.Warnw("failed to update user", "username", username, "error", err)
		}
	}
	return nil
}

func (m *UserMigrator) addUser(ctx context.Context, username string) error {
	s := m.session
	profile, err := s.source.DescribeUser(ctx, username)
	if err != nil {
		return fmt.Errorf("describe source user: %w", err)
	}

	m.logger.Infow("adding user", "username", username)
	user := &catalog.User{
		Username:  username,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     profile.Email,
	}
	if err := s.target.AddUser(ctx, user); err != nil {
		return err
	}
	s.stats.Users.Added++
	s.stats.Users.Target++
	return nil
}

// syncMemberships adds source-only groups in one call and each source-only
// grid subject in its own call. A rejected subject does not stop the others.
func (m *UserMigrator) syncMemberships(ctx context.Context, username string) error {
	s := m.session

	src, err := s.source.DescribeUser(ctx, username)
	if err != nil {
		return fmt.Errorf("describe source user: %w", err)
	}
	dst, err := s.target.DescribeUser(ctx, username)
	if err != nil {
		return fmt.Errorf("describe target user: %w", err)
	}

	updated := false
	var groupErr error

	if groups := setutil.Missing(src.Groups, dst.Groups); len(groups) > 0 {
		m.logger.Infow("adding groups", "username", username, "groups", groups)
		if err := s.target.ModifyUser(ctx, username, catalog.UserModification{AddGroups: groups}); err != nil {
			groupErr = fmt.Errorf("add groups: %w", err)
		} else {
			updated = true
		}
	}

	for _, subject := range setutil.Missing(src.GridSubjects, dst.GridSubjects) {
		m.logger.Infow("adding grid subject", "username", username, "subject", subject)
		if err := s.target.ModifyUser(ctx, username, catalog.UserModification{AddGridSubject: subject}); err != nil {
			m.logger.Warnw("failed to add grid subject", "username", username, "subject", subject, "error", err)
			continue
		}
		updated = true
	}

	if updated {
		s.stats.Users.Updated++
	}
	return groupErr
}
