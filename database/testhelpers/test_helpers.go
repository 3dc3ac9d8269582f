package testhelpers

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/uuid"
	"github.com/thrasher-corp/goose"
	"github.com/thrasher-corp/tallerd/database"
	"github.com/thrasher-corp/tallerd/database/drivers"
	psqlConn "github.com/thrasher-corp/tallerd/database/drivers/postgres"
	sqliteConn "github.com/thrasher-corp/tallerd/database/drivers/sqlite3"
	"github.com/thrasher-corp/tallerd/database/repository"
)

var (
	// TempDir temp folder for sqlite database
	TempDir string
	// PostgresTestDatabase postgres database config details
	PostgresTestDatabase *database.Config
	// MigrationDir default folder to look in for current migrations
	MigrationDir = filepath.Join("..", "..", "migrations")
)

// GetConnectionDetails returns connection details for CI or test db instances
func GetConnectionDetails() *database.Config {
	port := uint64(5432)
	if v := os.Getenv("TALLERD_POSTGRES_PORT"); v != "" {
		if p, err := strconv.ParseUint(v, 10, 32); err == nil {
			port = p
		}
	}
	return &database.Config{
		Enabled: true,
		Driver:  database.DBPostgreSQL,
		ConnectionDetails: drivers.ConnectionDetails{
			Host:     os.Getenv("TALLERD_POSTGRES_HOST"),
			Port:     uint32(port),
			Username: os.Getenv("TALLERD_POSTGRES_USER"),
			Password: os.Getenv("TALLERD_POSTGRES_PASSWORD"),
			Database: os.Getenv("TALLERD_POSTGRES_DATABASE"),
			SSLMode:  os.Getenv("TALLERD_POSTGRES_SSLMODE"),
		},
	}
}

// CheckValidConfig checks if database connection details are empty
func CheckValidConfig(config *drivers.ConnectionDetails) bool {
	return config.Host != "" && config.Database != ""
}

// ConnectToDatabase opens a connection to the configured database backend and
// brings the schema up to date
func ConnectToDatabase(conn *database.Config) (*database.Instance, error) {
	if err := database.DB.SetConfig(conn); err != nil {
		return nil, err
	}

	var dbConn *database.Instance
	var err error
	switch conn.Driver {
	case database.DBSQLite, database.DBSQLite3:
		database.DB.DataPath = TempDir
		dbName, errUUID := uuid.NewV4()
		if errUUID != nil {
			return nil, errUUID
		}
		dbConn, err = sqliteConn.Connect(dbName.String() + ".db")
	case database.DBPostgreSQL:
		dbConn, err = psqlConn.Connect(conn)
	default:
		return nil, database.ErrNoDatabaseProvided
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrFailedToConnect, err)
	}
	database.DB.SetConnected(true)

	if err = migrateDB(dbConn); err != nil {
		return nil, err
	}
	return dbConn, nil
}

// CloseDatabase closes the connection of the supplied database instance
func CloseDatabase(conn *database.Instance) error {
	if conn == nil {
		return nil
	}
	return conn.CloseConnection()
}

func migrateDB(conn *database.Instance) error {
	if repository.GetSQLDialect() == database.DBPostgreSQL {
		// tests own the whole database, so start from a clean slate
		if err := goose.Run("reset", conn.SQL, repository.GetSQLDialect(), MigrationDir, ""); err != nil {
			return err
		}
	}
	return goose.Run("up", conn.SQL, repository.GetSQLDialect(), MigrationDir, "")
}
