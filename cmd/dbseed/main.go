package main

import (
	"fmt"
	"log"
	"os"

	"github.com/thrasher-corp/tallerd/config"
	"github.com/thrasher-corp/tallerd/core"
	"github.com/thrasher-corp/tallerd/database"
	dbPSQL "github.com/thrasher-corp/tallerd/database/drivers/postgres"
	dbsqlite3 "github.com/thrasher-corp/tallerd/database/drivers/sqlite3"
	"github.com/urfave/cli/v2"
)

var (
	dbConn     *database.Instance
	configFile string
)

func main() {
	app := cli.NewApp()
	app.Name = "dbseed"
	app.Version = core.Version(true)
	app.EnableBashCompletion = true
	app.Usage = "seed the tallerd workshop directory"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Value:       config.DefaultFilePath(),
			Usage:       "config file to load",
			Destination: &configFile,
		},
	}
	app.Commands = []*cli.Command{
		seedWorkshopCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// load reads the configuration and opens the database connection for a
// subcommand
func load(_ *cli.Context) error {
	var conf config.Config
	err := conf.LoadConfig(configFile)
	if err != nil {
		return err
	}

	if !conf.Database.Enabled {
		return database.ErrDatabaseSupportDisabled
	}

	switch conf.Database.Driver {
	case database.DBPostgreSQL:
		dbConn, err = dbPSQL.Connect(&conf.Database)
	case database.DBSQLite, database.DBSQLite3:
		dbConn, err = dbsqlite3.Connect(conf.Database.Database)
	default:
		return fmt.Errorf("unsupported database driver: %q", conf.Database.Driver)
	}
	if err != nil {
		return fmt.Errorf("database failed to connect: %w", err)
	}
	dbConn.SetConnected(true)
	return nil
}
