package postgres

import (
	"database/sql"
	"fmt"

	// import go sql driver for postgres
	_ "github.com/lib/pq"
	"github.com/thrasher-corp/tallerd/database"
)

// Connect opens a connection to a Postgres database and returns a pointer to
// database.Instance
func Connect(cfg *database.Config) (*database.Instance, error) {
	if cfg == nil {
		return nil, database.ErrNilConfig
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	configDSN := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode)

	db, err := sql.Open(database.DBPostgreSQL, configDSN)
	if err != nil {
		return nil, err
	}
	err = database.DB.SetPostgresConnection(db)
	if err != nil {
		return nil, err
	}
	return database.DB, nil
}
