package catalog

import "context"

// Errors returned by implementations carry a kind from the shared errors
// package: not_found when the named entity is absent, remote_error for
// transport or server failures.

type FileCatalog interface {
	// ListFiles returns the names of files matching a dimension expression.
	ListFiles(ctx context.Context, dimensions string) ([]string, error)
	GetFileMetadata(ctx context.Context, name string) (Metadata, error)
	DeclareFile(ctx context.Context, md Metadata) error
	ModifyFileMetadata(ctx context.Context, name string, md Metadata) error
	ModifyMetadataBulk(ctx context.Context, updates []MetadataUpdate) error
}

type LocationCatalog interface {
	// LocateFile fails with not_found when the file is not declared.
	LocateFile(ctx context.Context, name string) ([]Location, error)
	AddFileLocation(ctx context.Context, name, location string) error
	RemoveFileLocation(ctx context.Context, name, location string) error
}

type DefinitionCatalog interface {
	ListDefinitions(ctx context.Context) ([]string, error)
	DescribeDefinition(ctx context.Context, name string) (*Definition, error)
	CreateDefinition(ctx context.Context, def *Definition) error
}

type UserCatalog interface {
	ListUsers(ctx context.Context) ([]string, error)
	DescribeUser(ctx context.Context, username string) (*User, error)
	AddUser(ctx context.Context, user *User) error
	ModifyUser(ctx context.Context, username string, mod UserModification) error
}

// Catalog is the full capability set of one metadata catalog.
type Catalog interface {
	FileCatalog
	LocationCatalog
	DefinitionCatalog
	UserCatalog

	// Experiment names the catalog instance.
	Experiment() string
}
