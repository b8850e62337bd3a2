package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/shared/depgraph"
	"github.com/sbn-software/samsync/internal/shared/errors"
	"github.com/sbn-software/samsync/internal/shared/logger"
	"github.com/sbn-software/samsync/internal/shared/utils/setutil"
)

// DefinitionOutcome is the result of a successful definition migration.
type DefinitionOutcome string

const (
	DefinitionExists  DefinitionOutcome = "exists"
	DefinitionCreated DefinitionOutcome = "created"
)

// DefinitionSelection picks the definitions of a driver run. An empty Name
// means every source definition; Limit caps the number created.
type DefinitionSelection struct {
	Name  string
	Limit int
}

// DefinitionMigrator creates source definitions in the target catalog after
// the definitions they reference.
type DefinitionMigrator struct {
	session *Session
	walker  *depgraph.Walker[DefinitionOutcome]
	pending map[string]*catalog.Definition
	logger  logger.Interface
}

func NewDefinitionMigrator(session *Session, log logger.Interface) *DefinitionMigrator {
	m := &DefinitionMigrator{
		session: session,
		pending: make(map[string]*catalog.Definition),
		logger:  log,
	}
	m.walker = depgraph.NewWalker[DefinitionOutcome](definitionHandler{m})
	return m
}

// MigrateDefinition makes sure name exists in the target. Existing target
// definitions are left untouched. A definition fails, without being created,
// when it is missing from the source, uses catalog-internal identifiers,
// lies on a reference cycle, or references a definition that fails.
func (m *DefinitionMigrator) MigrateDefinition(ctx context.Context, name string) error {
	_, err := m.walker.Walk(ctx, name)
	return err
}

// Run migrates the source definitions the target lacks, in name order.
func (m *DefinitionMigrator) Run(ctx context.Context, sel DefinitionSelection) error {
	s := m.session

	var sourceNames []string
	if sel.Name != "" {
		sourceNames = []string{sel.Name}
	} else {
		names, err := s.source.ListDefinitions(ctx)
		if err != nil {
			return fmt.Errorf("list source definitions: %w", err)
		}
		sourceNames = names
	}
	targetNames, err := s.target.ListDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("list target definitions: %w", err)
	}

	sourceSet := setutil.NewStringSet(sourceNames...)
	targetSet := setutil.NewStringSet(targetNames...)
	candidates := sourceSet.Difference(targetSet).Sorted()

	s.stats.Definitions.Source = sourceSet.Len()
	s.stats.Definitions.Target = targetSet.Len()
	s.stats.Definitions.Candidates = len(candidates)
	m.logger.Infow("definitions compared",
		"source", sourceSet.Len(),
		"target", targetSet.Len(),
		"missing", len(candidates),
	)

	m.walker.Reset()
	for _, name := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.MigrateDefinition(ctx, name); err != nil {
			m.logger.Warnw("definition not migrated",
				"defname", name,
				"kind", errors.TypeOf(err),
				"error", err,
			)
		}
		if sel.Limit > 0 && s.stats.Definitions.Added >= sel.Limit {
			m.logger.Infow("definition limit reached", "limit", sel.Limit)
			break
		}
	}
	return nil
}

// countFailure books a failed definition as skipped when it can never
// migrate and as failed when a retry may succeed.
func (m *DefinitionMigrator) countFailure(err error) {
	if errors.IsUnmigratable(err) {
		m.session.stats.Definitions.Skipped++
		return
	}
	m.session.stats.Definitions.Failed++
}

type definitionHandler struct {
	m *DefinitionMigrator
}

func (h definitionHandler) Enter(ctx context.Context, name string) ([]string, *DefinitionOutcome, error) {
	m := h.m
	s := m.session
	m.logger.Debugw("checking definition", "defname", name)

	def, err := s.source.DescribeDefinition(ctx, name)
	if err != nil {
		err = fmt.Errorf("describe source definition %s: %w", name, err)
		m.countFailure(err)
		return nil, nil, err
	}

	_, err = s.target.DescribeDefinition(ctx, name)
	switch {
	case err == nil:
		m.logger.Debugw("definition already exists in target", "defname", name)
		exists := DefinitionExists
		return nil, &exists, nil
	case !errors.IsNotFoundError(err):
		err = fmt.Errorf("describe target definition %s: %w", name, err)
		m.countFailure(err)
		return nil, nil, err
	}

	if tokens := catalog.DisallowedTokens(def.Dimensions); len(tokens) > 0 {
		m.logger.Infow("skipping definition with catalog-internal identifiers",
			"defname", name,
			"tokens", strings.Join(tokens, ","),
		)
		err := errors.NewPolicyError("definition uses catalog-internal identifiers",
			fmt.Sprintf("%s: %s", name, strings.Join(tokens, ", ")))
		m.countFailure(err)
		return nil, nil, err
	}

	m.pending[name] = def
	return catalog.ReferencedDefinitions(def.Dimensions), nil, nil
}

func (h definitionHandler) Accept(dep depgraph.Result[DefinitionOutcome]) bool {
	return dep.Err == nil
}

func (h definitionHandler) Exit(ctx context.Context, name string, deps []depgraph.Result[DefinitionOutcome]) (DefinitionOutcome, error) {
	m := h.m
	s := m.session
	def := m.pending[name]
	delete(m.pending, name)

	if failed, ok := depgraph.FirstFailure(deps); ok {
		err := fmt.Errorf("definition %s references %s: %w", name, failed.Name, failed.Err)
		m.countFailure(err)
		return "", err
	}

	m.logger.Infow("adding definition", "defname", name)
	created := &catalog.Definition{
		Name:        def.Name,
		Dimensions:  def.Dimensions,
		Username:    def.Username,
		Group:       def.Group,
		Description: def.Description,
	}
	if created.Name == "" {
		created.Name = name
	}
	if err := s.target.CreateDefinition(ctx, created); err != nil {
		err = fmt.Errorf("create definition %s: %w", name, err)
		m.countFailure(err)
		return "", err
	}
	s.stats.Definitions.Added++
	s.stats.Definitions.Target++
	return DefinitionCreated, nil
}
