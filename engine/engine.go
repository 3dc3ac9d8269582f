package engine

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/thrasher-corp/tallerd/config"
	tallerdlog "github.com/thrasher-corp/tallerd/log"
)

// Engine contains configuration, the queue core and the subsystem managers
// and is the overarching type across this code base
type Engine struct {
	Config                *config.Config
	Settings              Settings
	DatabaseManager       *DatabaseConnectionManager
	CommunicationsManager *CommunicationManager
	QueueManager          *QueueManager
	WorkshopManager       *WorkshopManager
	APIServer             *APIServerManager
	Uptime                time.Time
	ServicesWG            sync.WaitGroup
}

// Bot is the engine instance for the daemon
var Bot *Engine

// New starts a new engine from the default configuration path
func New() (*Engine, error) {
	newEngineMutex.Lock()
	defer newEngineMutex.Unlock()
	var b Engine
	b.Config = config.GetConfig()

	err := b.Config.LoadConfig("")
	if err != nil {
		return nil, fmt.Errorf("failed to load config. Err: %s", err)
	}
	return &b, nil
}

// NewFromSettings starts a new engine based on supplied settings
func NewFromSettings(settings *Settings, flagSet map[string]bool) (*Engine, error) {
	newEngineMutex.Lock()
	defer newEngineMutex.Unlock()
	if settings == nil {
		return nil, errNilSettings
	}

	var b Engine
	var err error

	b.Config, err = loadConfigWithSettings(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load config. Err: %s", err)
	}

	if *b.Config.Logging.Enabled {
		tallerdlog.SetupGlobalLogger()
		tallerdlog.SetupSubLoggers(b.Config.Logging.SubLoggers)
		tallerdlog.Infoln(tallerdlog.Global, "Logger initialised.")
	}

	b.Settings.ConfigFile = settings.ConfigFile
	b.Settings.DataDir = b.Config.GetDataPath()

	err = adjustGoMaxProcs(settings.GoMaxProcs)
	if err != nil {
		return nil, fmt.Errorf("unable to adjust runtime GOMAXPROCS value. Err: %s", err)
	}

	validateSettings(&b, settings, flagSet)
	return &b, nil
}

// loadConfigWithSettings creates configuration based on the provided settings
func loadConfigWithSettings(settings *Settings) (*config.Config, error) {
	filePath, _, err := config.GetFilePath(settings.ConfigFile)
	if err != nil {
		return nil, err
	}
	log.Printf("Loading config file %s..\n", filePath)

	conf := config.GetConfig()
	err = conf.ReadConfigFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf(config.ErrFailureOpeningConfig, filePath, err)
	}
	return conf, conf.CheckConfig()
}

// validateSettings validates and sets all engine settings
func validateSettings(b *Engine, s *Settings, flagSet map[string]bool) {
	b.Settings = *s

	if flagSet["apilisten"] && s.APIListen != "" {
		b.Config.API.ListenAddress = s.APIListen
	}
	if flagSet["requesttimeout"] && s.GlobalHTTPTimeout > 0 {
		b.Config.API.RequestTimeout = s.GlobalHTTPTimeout
	}
	if !flagSet["api"] {
		b.Settings.EnableAPI = *b.Config.API.Enabled
	}
	if !flagSet["comms"] {
		b.Settings.EnableComms = b.Config.Communications.IsAnyEnabled()
	}
	if b.Settings.GlobalHTTPTimeout <= 0 {
		b.Settings.GlobalHTTPTimeout = b.Config.GlobalHTTPTimeout
	}
}

// PrintSettings returns the engine settings
func (bot *Engine) PrintSettings(s *Settings) {
	tallerdlog.Debugln(tallerdlog.Global)
	tallerdlog.Debugf(tallerdlog.Global, "ENGINE SETTINGS")
	tallerdlog.Debugf(tallerdlog.Global, "- CORE SETTINGS:")
	tallerdlog.Debugf(tallerdlog.Global, "\t Verbose mode: %v", s.Verbose)
	tallerdlog.Debugf(tallerdlog.Global, "\t Enable dry run mode: %v", s.EnableDryRun)
	tallerdlog.Debugf(tallerdlog.Global, "\t Enable REST API: %v", s.EnableAPI)
	tallerdlog.Debugf(tallerdlog.Global, "\t Enable comms relayer: %v", s.EnableComms)
	tallerdlog.Debugf(tallerdlog.Global, "\t Listen address: %v", bot.Config.API.ListenAddress)
	tallerdlog.Debugf(tallerdlog.Global, "\t Request timeout: %v", bot.Config.API.RequestTimeout)
	tallerdlog.Debugln(tallerdlog.Global)
}

// Start starts the engine
func (bot *Engine) Start() error {
	if bot == nil {
		return errNilBot
	}

	newEngineMutex.Lock()
	defer newEngineMutex.Unlock()

	bot.Uptime = time.Now()
	tallerdlog.Debugf(tallerdlog.Global, "Bot %q started.\n", bot.Config.Name)
	tallerdlog.Debugf(tallerdlog.Global, "Using data dir: %s\n", bot.Settings.DataDir)

	var err error
	bot.DatabaseManager, err = SetupDatabaseConnectionManager(&bot.Config.Database)
	if err != nil {
		return fmt.Errorf("database manager unable to setup: %w", err)
	}
	if err = bot.DatabaseManager.Start(&bot.ServicesWG); err != nil {
		return fmt.Errorf("database manager unable to start: %w", err)
	}

	if bot.Settings.EnableComms {
		bot.CommunicationsManager, err = SetupCommunicationManager(&bot.Config.Communications)
		if err != nil {
			tallerdlog.Errorf(tallerdlog.Global, "Communications manager unable to setup: %s", err)
		} else if err = bot.CommunicationsManager.Start(); err != nil {
			tallerdlog.Errorf(tallerdlog.Global, "Communications manager unable to start: %s", err)
		}
	}

	bot.QueueManager, err = SetupQueueManager(bot.DatabaseManager.GetInstance(), bot.CommunicationsManager, clock.WallClock)
	if err != nil {
		return fmt.Errorf("queue manager unable to setup: %w", err)
	}
	if err = bot.QueueManager.Start(); err != nil {
		return fmt.Errorf("queue manager unable to start: %w", err)
	}

	bot.WorkshopManager, err = SetupWorkshopManager(bot.DatabaseManager.GetInstance())
	if err != nil {
		return fmt.Errorf("workshop manager unable to setup: %w", err)
	}
	if err = bot.WorkshopManager.Start(); err != nil {
		return fmt.Errorf("workshop manager unable to start: %w", err)
	}

	if bot.Settings.EnableAPI {
		bot.APIServer, err = SetupAPIServerManager(&APIServerSetup{
			ListenAddress:  bot.Config.API.ListenAddress,
			RequestTimeout: bot.Config.API.RequestTimeout,
			MaxWorkers:     bot.Config.API.MaxWorkers,
			RateLimit:      bot.Config.API.RateLimit,
			RateBurst:      bot.Config.API.RateBurst,
			AdminUsername:  bot.Config.RemoteControl.Username,
			AdminPassword:  bot.Config.RemoteControl.Password,
		}, bot.QueueManager, bot.WorkshopManager)
		if err != nil {
			return fmt.Errorf("api server unable to setup: %w", err)
		}
		if err = bot.APIServer.Start(); err != nil {
			return fmt.Errorf("api server unable to start: %w", err)
		}
	}

	return nil
}

// Stop correctly shuts down engine saving configuration files
func (bot *Engine) Stop() {
	newEngineMutex.Lock()
	defer newEngineMutex.Unlock()

	tallerdlog.Debugln(tallerdlog.Global, "Engine shutting down..")

	if bot.APIServer.IsRunning() {
		if err := bot.APIServer.Stop(); err != nil {
			tallerdlog.Errorf(tallerdlog.Global, "API server unable to stop. Error: %v", err)
		}
	}
	if bot.QueueManager.IsRunning() {
		if err := bot.QueueManager.Stop(); err != nil {
			tallerdlog.Errorf(tallerdlog.Global, "Queue manager unable to stop. Error: %v", err)
		}
	}
	if bot.WorkshopManager.IsRunning() {
		if err := bot.WorkshopManager.Stop(); err != nil {
			tallerdlog.Errorf(tallerdlog.Global, "Workshop manager unable to stop. Error: %v", err)
		}
	}
	if bot.CommunicationsManager.IsRunning() {
		if err := bot.CommunicationsManager.Stop(); err != nil {
			tallerdlog.Errorf(tallerdlog.Global, "Communications manager unable to stop. Error: %v", err)
		}
	}
	if bot.DatabaseManager.IsRunning() {
		if err := bot.DatabaseManager.Stop(); err != nil {
			tallerdlog.Errorf(tallerdlog.Global, "Database manager unable to stop. Error: %v", err)
		}
	}

	if !bot.Settings.EnableDryRun && bot.Settings.ConfigFile != "" {
		err := bot.Config.SaveConfigToFile(bot.Settings.ConfigFile)
		if err != nil {
			tallerdlog.Errorln(tallerdlog.Global, "Unable to save config.")
		} else {
			tallerdlog.Debugln(tallerdlog.Global, "Config file saved successfully.")
		}
	}

	bot.ServicesWG.Wait()
	tallerdlog.Infoln(tallerdlog.Global, "Exiting.")
	if err := tallerdlog.CloseLogger(); err != nil {
		log.Printf("Failed to close logger. Error: %v\n", err)
	}
}

// adjustGoMaxProcs adjusts the maximum processes that the CPU can handle
func adjustGoMaxProcs(maxProcs int) error {
	if maxProcs <= 0 {
		return nil
	}
	tallerdlog.Debugln(tallerdlog.Global, "Adjusting bot runtime performance..")
	if runtime.GOMAXPROCS(maxProcs) == -1 {
		return fmt.Errorf("GOMAXPROCS failed to set with value %d", maxProcs)
	}
	return nil
}
