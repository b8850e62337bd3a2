// Package testutil provides an in-memory catalog for testing the migration
// application layer.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/shared/errors"
	"github.com/sbn-software/samsync/internal/shared/query"
)

// Write is one recorded mutating call.
type Write struct {
	Method string
	Name   string
	Fields catalog.Metadata
}

// MockCatalog is an in-memory catalog.Catalog. Every mutating call is
// recorded in Writes.
type MockCatalog struct {
	mu sync.Mutex

	experiment  string
	files       map[string]catalog.Metadata
	locations   map[string][]catalog.Location
	definitions map[string]*catalog.Definition
	users       map[string]*catalog.User
	defFiles    map[string][]string

	Writes []Write

	// Error injection for testing, keyed by file, definition or user name.
	GetErrors      map[string]error
	DeclareErrors  map[string]error
	LocateErrors   map[string]error
	ModifyErrors   map[string]error
	UserErrors     map[string]error
	SubjectErrors  map[string]error
	BulkError      error
	DescribeErrors map[string]error
	// Unlocatable files exist but LocateFile reports them as not found.
	Unlocatable map[string]bool
}

// NewMockCatalog creates an empty in-memory catalog.
func NewMockCatalog(experiment string) *MockCatalog {
	return &MockCatalog{
		experiment:     experiment,
		files:          make(map[string]catalog.Metadata),
		locations:      make(map[string][]catalog.Location),
		definitions:    make(map[string]*catalog.Definition),
		users:          make(map[string]*catalog.User),
		defFiles:       make(map[string][]string),
		GetErrors:      make(map[string]error),
		DeclareErrors:  make(map[string]error),
		LocateErrors:   make(map[string]error),
		ModifyErrors:   make(map[string]error),
		UserErrors:     make(map[string]error),
		SubjectErrors:  make(map[string]error),
		DescribeErrors: make(map[string]error),
		Unlocatable:    make(map[string]bool),
	}
}

func (m *MockCatalog) Experiment() string { return m.experiment }

// PutFile stores metadata as-is, without recording a write.
func (m *MockCatalog) PutFile(name string, md catalog.Metadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	md = md.Clone()
	if md == nil {
		md = catalog.Metadata{}
	}
	md[catalog.KeyFileName] = name
	m.files[name] = md
}

// PutLocation stores a location without recording a write.
func (m *MockCatalog) PutLocation(name, location, fullPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[name] = append(m.locations[name], catalog.Location{
		FileName: name,
		Location: location,
		FullPath: fullPath,
		Type:     catalog.ClassifyLocation(location, fullPath, ""),
	})
}

func (m *MockCatalog) PutDefinition(def *catalog.Definition, files ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *def
	m.definitions[def.Name] = &cp
	m.defFiles[def.Name] = files
}

func (m *MockCatalog) PutUser(u *catalog.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	cp.Groups = append([]string(nil), u.Groups...)
	cp.GridSubjects = append([]string(nil), u.GridSubjects...)
	m.users[u.Username] = &cp
}

// File returns a copy of the stored metadata, or nil.
func (m *MockCatalog) File(name string) catalog.Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[name].Clone()
}

func (m *MockCatalog) HasFile(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

func (m *MockCatalog) Definition(name string) *catalog.Definition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.definitions[name]
}

func (m *MockCatalog) User(name string) *catalog.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[name]
}

func (m *MockCatalog) Locations(name string) []catalog.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]catalog.Location(nil), m.locations[name]...)
}

// WritesFor returns the recorded writes of one method.
func (m *MockCatalog) WritesFor(method string) []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Write
	for _, w := range m.Writes {
		if w.Method == method {
			out = append(out, w)
		}
	}
	return out
}

// ResetWrites forgets the recorded writes.
func (m *MockCatalog) ResetWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes = nil
}

func (m *MockCatalog) record(method, name string, fields catalog.Metadata) {
	m.Writes = append(m.Writes, Write{Method: method, Name: name, Fields: fields.Clone()})
}

func (m *MockCatalog) ListFiles(ctx context.Context, dimensions string) ([]string, error) {
	d, err := query.ParseDimensions(dimensions)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	switch {
	case d.FileName != "":
		names = []string{d.FileName}
	case d.Definition != "":
		names = append(names, m.defFiles[d.Definition]...)
	default:
		for name := range m.files {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		md, ok := m.files[name]
		if !ok {
			continue
		}
		if d.ExcludeKey != "" {
			if flag, present, _ := md.Flag(d.ExcludeKey); present && d.Excludes(int(flag)) {
				continue
			}
		}
		if d.PhysicalOnly() && len(m.locations[name]) == 0 {
			continue
		}
		out = append(out, name)
		if d.Limit > 0 && len(out) >= d.Limit {
			break
		}
	}
	return out, nil
}

func (m *MockCatalog) GetFileMetadata(ctx context.Context, name string) (catalog.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.GetErrors[name]; err != nil {
		return nil, err
	}
	md, ok := m.files[name]
	if !ok {
		return nil, errors.NewNotFoundError("file not found", name)
	}
	return md.Clone(), nil
}

func (m *MockCatalog) DeclareFile(ctx context.Context, md catalog.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := md.FileName()
	if err := m.DeclareErrors[name]; err != nil {
		return err
	}
	if _, ok := m.files[name]; ok {
		return errors.NewConflictError("file already declared", name)
	}
	m.record("DeclareFile", name, md)
	m.files[name] = md.Clone()
	return nil
}

func (m *MockCatalog) ModifyFileMetadata(ctx context.Context, name string, md catalog.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ModifyErrors[name]; err != nil {
		return err
	}
	current, ok := m.files[name]
	if !ok {
		return errors.NewNotFoundError("file not found", name)
	}
	m.record("ModifyFileMetadata", name, md)
	for k, v := range md.Clone() {
		current[k] = v
	}
	return nil
}

func (m *MockCatalog) ModifyMetadataBulk(ctx context.Context, updates []catalog.MetadataUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BulkError != nil {
		return m.BulkError
	}
	for _, u := range updates {
		if _, ok := m.files[u.FileName]; !ok {
			return errors.NewNotFoundError("file not found", u.FileName)
		}
	}
	for _, u := range updates {
		m.record("ModifyMetadataBulk", u.FileName, u.Fields)
		for k, v := range u.Fields.Clone() {
			m.files[u.FileName][k] = v
		}
	}
	return nil
}

func (m *MockCatalog) LocateFile(ctx context.Context, name string) ([]catalog.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.LocateErrors[name]; err != nil {
		return nil, err
	}
	if _, ok := m.files[name]; !ok || m.Unlocatable[name] {
		return nil, errors.NewNotFoundError("file not found", name)
	}
	return append([]catalog.Location(nil), m.locations[name]...), nil
}

func (m *MockCatalog) AddFileLocation(ctx context.Context, name, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return errors.NewNotFoundError("file not found", name)
	}
	m.record("AddFileLocation", name, catalog.Metadata{"location": location})
	m.locations[name] = append(m.locations[name], catalog.Location{
		FileName: name,
		Location: location,
		FullPath: location,
		Type:     catalog.ClassifyLocation(location, location, ""),
	})
	return nil
}

func (m *MockCatalog) RemoveFileLocation(ctx context.Context, name, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	locs := m.locations[name]
	for i, l := range locs {
		if l.Location == location {
			m.record("RemoveFileLocation", name, catalog.Metadata{"location": location})
			m.locations[name] = append(locs[:i], locs[i+1:]...)
			return nil
		}
	}
	return errors.NewNotFoundError("location not found", location)
}

func (m *MockCatalog) ListDefinitions(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.definitions))
	for name := range m.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MockCatalog) DescribeDefinition(ctx context.Context, name string) (*catalog.Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.DescribeErrors[name]; err != nil {
		return nil, err
	}
	def, ok := m.definitions[name]
	if !ok {
		return nil, errors.NewNotFoundError("definition not found", name)
	}
	cp := *def
	return &cp, nil
}

func (m *MockCatalog) CreateDefinition(ctx context.Context, def *catalog.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.definitions[def.Name]; ok {
		return errors.NewConflictError("definition already exists", def.Name)
	}
	m.record("CreateDefinition", def.Name, catalog.Metadata{"dimensions": def.Dimensions})
	cp := *def
	m.definitions[def.Name] = &cp
	return nil
}

func (m *MockCatalog) ListUsers(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.users))
	for name := range m.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MockCatalog) DescribeUser(ctx context.Context, username string) (*catalog.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, errors.NewNotFoundError("user not found", username)
	}
	cp := *u
	cp.Groups = append([]string(nil), u.Groups...)
	cp.GridSubjects = append([]string(nil), u.GridSubjects...)
	return &cp, nil
}

func (m *MockCatalog) AddUser(ctx context.Context, user *catalog.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UserErrors[user.Username]; err != nil {
		return err
	}
	if _, ok := m.users[user.Username]; ok {
		return errors.NewConflictError("user already exists", user.Username)
	}
	m.record("AddUser", user.Username, nil)
	m.users[user.Username] = &catalog.User{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}
	return nil
}

func (m *MockCatalog) ModifyUser(ctx context.Context, username string, mod catalog.UserModification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return errors.NewNotFoundError("user not found", username)
	}
	if mod.AddGridSubject != "" {
		if err := m.SubjectErrors[mod.AddGridSubject]; err != nil {
			return err
		}
	}
	m.record("ModifyUser", username, catalog.Metadata{
		"addgroups":      mod.AddGroups,
		"addgridsubject": mod.AddGridSubject,
	})
	u.Groups = append(u.Groups, mod.AddGroups...)
	if mod.AddGridSubject != "" {
		u.GridSubjects = append(u.GridSubjects, mod.AddGridSubject)
	}
	return nil
}
