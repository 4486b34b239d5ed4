package database

// Config holds configuration for the database connection.
type Config struct {
	// Driver is the database driver (sqlserver, mysql, sqlite).
	Driver string `mapstructure:"driver" default:"sqlserver"`
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"1433"`
	// User is the database user.
	User string `mapstructure:"user" default:"sa"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name. For sqlite it is the file path.
	Name string `mapstructure:"name" default:"bitsight"`
	// Encrypt requests an encrypted connection (sqlserver).
	Encrypt bool `mapstructure:"encrypt" default:"true"`
	// TrustCert skips server certificate validation (sqlserver).
	TrustCert bool `mapstructure:"trust_cert" default:"false"`
	// TimeoutSeconds is the connect and I/O timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
