package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/thrasher-corp/goose"
	"github.com/thrasher-corp/tallerd/common"
	"github.com/thrasher-corp/tallerd/config"
	"github.com/thrasher-corp/tallerd/core"
	"github.com/thrasher-corp/tallerd/database"
	dbPSQL "github.com/thrasher-corp/tallerd/database/drivers/postgres"
	dbsqlite3 "github.com/thrasher-corp/tallerd/database/drivers/sqlite3"
	"github.com/thrasher-corp/tallerd/database/repository"
)

var (
	dbConn         *database.Instance
	configFile     string
	defaultDataDir string
	migrationDir   string
	command        string
	args           string
)

func openDBConnection(cfg *database.Config) (err error) {
	switch cfg.Driver {
	case database.DBPostgreSQL:
		dbConn, err = dbPSQL.Connect(cfg)
	case database.DBSQLite, database.DBSQLite3:
		dbConn, err = dbsqlite3.Connect(cfg.Database)
	default:
		return fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	if err != nil {
		return fmt.Errorf("database failed to connect: %w, some features that utilise a database will be unavailable", err)
	}

	return nil
}

func main() {
	fmt.Println("Tallerd database migration tool")
	fmt.Println(core.Copyright)
	fmt.Println()

	flag.StringVar(&command, "command", "", "command to run status|up|up-by-one|up-to|down|create")
	flag.StringVar(&args, "args", "", "arguments to pass to goose")
	flag.StringVar(&configFile, "config", config.DefaultFilePath(), "config file to load")
	flag.StringVar(&defaultDataDir, "datadir", common.GetDefaultDataDir(runtime.GOOS), "default data directory for tallerd files")
	flag.StringVar(&migrationDir, "migrationdir", database.MigrationDir, "override migration folder")

	flag.Parse()

	var conf config.Config
	err := conf.LoadConfig(configFile)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if !conf.Database.Enabled {
		fmt.Println("Database support is disabled")
		os.Exit(1)
	}

	err = openDBConnection(&conf.Database)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	drv := repository.GetSQLDialect()
	if drv == database.DBSQLite || drv == database.DBSQLite3 {
		fmt.Printf("Database file: %s\n", conf.Database.Database)
	} else {
		fmt.Printf("Connected to: %s\n", conf.Database.Host)
	}

	if command == "" {
		_ = goose.Run("status", dbConn.SQL, drv, migrationDir, "")
		fmt.Println()
		flag.Usage()
		return
	}

	if err = goose.Run(command, dbConn.SQL, drv, migrationDir, args); err != nil {
		fmt.Println(err)
	}
}
