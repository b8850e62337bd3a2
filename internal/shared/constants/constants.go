package constants

const (
	// Catalog backends
	BackendSAMWeb = "samweb"
	BackendSQL    = "sql"

	// Database drivers
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	// Summary output formats
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"

	// Database table names
	TableFiles         = "sam_files"
	TableFileLocations = "sam_file_locations"
	TableDefinitions   = "sam_definitions"
	TableUsers         = "sam_users"

	// Environment variable prefix for configuration overrides
	EnvPrefix = "SAMSYNC"
)
