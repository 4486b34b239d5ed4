package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bitsight-connector/core/status"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a connection to the configured database and verifies
// it with a ping. Failures are classified as DB_AUTH_FAILED when the server
// rejected the credentials and DB_CONNECTION_FAILED otherwise.
func Connect(cfg Config) (*gorm.DB, error) {
	// Ensure timeout defaults if not set
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	dialector, err := dialectorFor(cfg, timeout)
	if err != nil {
		return nil, err
	}

	// Suppress GORM logging; failures surface as classified errors instead.
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, classifyConnect(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, status.Wrap(err, status.DBConnectionFailed, "failed to get sql.DB")
	}

	// Set connection pool settings; a run uses one transaction at a time.
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, classifyConnect(err, "failed to ping database")
	}

	return db, nil
}

func dialectorFor(cfg Config, timeout int) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlserver", "mssql":
		return sqlserver.Open(sqlServerDSN(cfg, timeout)), nil
	case "mysql":
		return mysql.Open(mySQLDSN(cfg, timeout)), nil
	case "sqlite":
		name := cfg.Name
		if name == "" {
			name = ":memory:"
		}
		return sqlite.Open(name), nil
	default:
		return nil, status.Newf(status.ConfigInvalid, "unsupported database driver %q", cfg.Driver)
	}
}

func sqlServerDSN(cfg Config, timeout int) string {
	q := url.Values{}
	q.Set("database", cfg.Name)
	q.Set("encrypt", strconv.FormatBool(cfg.Encrypt))
	q.Set("TrustServerCertificate", strconv.FormatBool(cfg.TrustCert))
	q.Set("connection timeout", strconv.Itoa(timeout))
	q.Set("dial timeout", strconv.Itoa(timeout))

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func mySQLDSN(cfg Config, timeout int) string {
	dsn := gomysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dsn.DBName = cfg.Name
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	dsn.Timeout = time.Duration(timeout) * time.Second
	dsn.ReadTimeout = dsn.Timeout
	dsn.WriteTimeout = dsn.Timeout
	// Report matched rather than changed rows, so an update that rewrites
	// identical values still counts as one affected row.
	dsn.ClientFoundRows = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

func classifyConnect(err error, msg string) error {
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "login failed") || strings.Contains(lower, "access denied") || strings.Contains(lower, "authentication") {
		return status.Wrap(err, status.DBAuthFailed, msg)
	}
	return status.Wrap(err, status.DBConnectionFailed, msg)
}
