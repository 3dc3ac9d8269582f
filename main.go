package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/thrasher-corp/tallerd/config"
	"github.com/thrasher-corp/tallerd/core"
	"github.com/thrasher-corp/tallerd/engine"
	tallerdlog "github.com/thrasher-corp/tallerd/log"
	"github.com/thrasher-corp/tallerd/signaler"
)

func main() {
	// Handle flags
	var settings engine.Settings
	versionFlag := flag.Bool("version", false, "retrieves current tallerd version")

	// Core settings
	flag.StringVar(&settings.ConfigFile, "config", config.DefaultFilePath(), "config file to load")
	flag.StringVar(&settings.DataDir, "datadir", "", "default data directory for tallerd files")
	flag.IntVar(&settings.GoMaxProcs, "gomaxprocs", 0, "sets the runtime GOMAXPROCS value")
	flag.BoolVar(&settings.EnableDryRun, "dryrun", false, "dry runs the daemon, will not save config")
	flag.BoolVar(&settings.Verbose, "verbose", false, "increases logging verbosity for tallerd")
	flag.BoolVar(&settings.EnableAPI, "api", true, "enables the REST API server")
	flag.BoolVar(&settings.EnableComms, "comms", false, "enables the communications relayer")
	flag.StringVar(&settings.APIListen, "apilisten", "", "overrides the REST API listen address")
	flag.DurationVar(&settings.GlobalHTTPTimeout, "requesttimeout", 0, "sets the per request deadline")
	flag.Parse()

	if *versionFlag {
		fmt.Print(core.Version(false))
		os.Exit(0)
	}

	flagSet := make(map[string]bool)
	// Stores the set flags
	flag.Visit(func(f *flag.Flag) { flagSet[f.Name] = true })

	fmt.Println(core.Banner())
	fmt.Println(core.Version(true))

	var err error
	engine.Bot, err = engine.NewFromSettings(&settings, flagSet)
	if engine.Bot == nil || err != nil {
		log.Printf("Unable to initialise bot engine. Error: %s\n", err)
		os.Exit(2)
	}

	engine.Bot.PrintSettings(&engine.Bot.Settings)
	if err = engine.Bot.Start(); err != nil {
		errClose := tallerdlog.CloseLogger()
		if errClose != nil {
			log.Printf("Unable to close logger. Error: %v\n", errClose)
		}
		log.Printf("Unable to start bot engine. Error: %s\n", err)
		os.Exit(1)
	}

	interrupt := signaler.WaitForInterrupt()
	s := <-interrupt
	tallerdlog.Infof(tallerdlog.Global, "Captured %v, shutdown requested.\n", s)
	engine.Bot.Stop()
}
