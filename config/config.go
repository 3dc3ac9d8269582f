package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/thrasher-corp/tallerd/common"
	"github.com/thrasher-corp/tallerd/common/convert"
	"github.com/thrasher-corp/tallerd/common/file"
	"github.com/thrasher-corp/tallerd/database"
	"github.com/thrasher-corp/tallerd/log"
)

// GetConfig returns a pointer to a configuration object
func GetConfig() *Config {
	return &Cfg
}

// DefaultFilePath returns the default config file path
// MacOS/Linux: $HOME/.tallerd/config.json
// Windows: %APPDATA%\Tallerd\config.json
func DefaultFilePath() string {
	foundConfig, _, err := GetFilePath("")
	if err != nil {
		return filepath.Join(common.GetDefaultDataDir(runtime.GOOS), File)
	}
	return foundConfig
}

// GetFilePath returns the desired config file or the default config file name
// and whether it was loaded from a default location (rather than explicitly
// specified). The TALLERD_CONFIG environment variable takes precedence over
// the default search paths.
func GetFilePath(configFile string) (configPath string, isImplicitDefaultPath bool, err error) {
	if configFile != "" {
		return configFile, false, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, false, nil
	}

	newDir := common.GetDefaultDataDir(runtime.GOOS)
	defaultPath := filepath.Join(newDir, File)
	if file.Exists(defaultPath) {
		return defaultPath, true, nil
	}

	return "", false, fmt.Errorf("%s file not found in %s", File, newDir)
}

// ReadConfigFromFile reads the configuration from the given file
func (c *Config) ReadConfigFromFile(configPath string) error {
	defaultPath, _, err := GetFilePath(configPath)
	if err != nil {
		return err
	}
	confFile, err := os.Open(defaultPath)
	if err != nil {
		return err
	}
	defer confFile.Close()

	result := &Config{}
	if err := json.NewDecoder(confFile).Decode(result); err != nil {
		return fmt.Errorf("error reading config %w", err)
	}
	*c = *result
	return nil
}

// SaveConfigToFile saves your configuration to your desired path as a JSON
// object
func (c *Config) SaveConfigToFile(configPath string) error {
	defaultPath, _, err := GetFilePath(configPath)
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return err
	}
	return file.Write(defaultPath, payload)
}

// LoadConfig loads your configuration file into your configuration object
func (c *Config) LoadConfig(configPath string) error {
	err := c.ReadConfigFromFile(configPath)
	if err != nil {
		return fmt.Errorf(ErrFailureOpeningConfig, configPath, err)
	}
	return c.CheckConfig()
}

// CheckConfig checks all config settings, filling defaults and disabling
// misconfigured features
func (c *Config) CheckConfig() error {
	err := c.CheckLoggerConfig()
	if err != nil {
		log.Errorf(log.ConfigMgr,
			"Failed to configure logger, some logging features unavailable: %s\n",
			err)
	}

	err = c.checkDatabaseConfig()
	if err != nil {
		log.Errorf(log.DatabaseMgr,
			"Failed to configure database: %v",
			err)
	}

	c.CheckCommunicationsConfig()
	c.CheckWorkshopConfig()
	c.CheckRemoteControlConfig()

	err = c.CheckAPIConfig()
	if err != nil {
		return err
	}

	if c.Name == "" {
		c.Name = defaultName
	}

	if c.GlobalHTTPTimeout <= 0 {
		log.Warnf(log.ConfigMgr,
			"Global HTTP Timeout value not set, defaulting to %v.\n",
			defaultHTTPTimeout)
		c.GlobalHTTPTimeout = defaultHTTPTimeout
	}

	return nil
}

// GetDataPath gets the data path for the given subpath
func (c *Config) GetDataPath(elem ...string) string {
	var baseDir string
	if c.DataDirectory != "" {
		baseDir = c.DataDirectory
	} else {
		baseDir = common.GetDefaultDataDir(runtime.GOOS)
	}
	return filepath.Join(append([]string{baseDir}, elem...)...)
}

// CheckLoggerConfig checks to see logger values are present and valid in
// config if not creates a default instance of the logger
func (c *Config) CheckLoggerConfig() error {
	m.Lock()
	defer m.Unlock()

	if c.Logging.Enabled == nil || c.Logging.Output == "" {
		c.Logging = log.GenDefaultSettings()
	}

	if c.Logging.AdvancedSettings.ShowLogSystemName == nil {
		c.Logging.AdvancedSettings.ShowLogSystemName = convert.BoolPtr(false)
	}

	if c.Logging.LoggerFileConfig != nil {
		if c.Logging.LoggerFileConfig.FileName == "" {
			c.Logging.LoggerFileConfig.FileName = "log.txt"
		}
		if c.Logging.LoggerFileConfig.Rotate == nil {
			c.Logging.LoggerFileConfig.Rotate = convert.BoolPtr(false)
		}
		if c.Logging.LoggerFileConfig.MaxSize <= 0 {
			log.Warnf(log.Global, "Logger rotation size invalid, defaulting to %v", log.DefaultMaxFileSize)
			c.Logging.LoggerFileConfig.MaxSize = log.DefaultMaxFileSize
		}
		logPath := c.GetDataPath("logs")
		err := common.CreateDir(logPath)
		if err != nil {
			return err
		}
		log.LogPath = logPath
		log.FileLoggingConfiguredCorrectly = true
	}
	log.GlobalLogConfig = &c.Logging
	return nil
}

// checkDatabaseConfig applies defaults and environment overrides to the
// database section. Connection details from the environment beat the file so
// deployments can keep credentials out of it.
func (c *Config) checkDatabaseConfig() error {
	m.Lock()
	defer m.Unlock()

	if v := os.Getenv("TALLERD_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("TALLERD_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("TALLERD_DB_PORT"); v != "" {
		port, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid TALLERD_DB_PORT: %w", err)
		}
		c.Database.Port = uint32(port)
	}
	if v := os.Getenv("TALLERD_DB_DATABASE"); v != "" {
		c.Database.Database = v
	}
	if v := os.Getenv("TALLERD_DB_USER"); v != "" {
		c.Database.Username = v
	}
	if v := os.Getenv("TALLERD_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("TALLERD_DB_SSLMODE"); v != "" {
		c.Database.SSLMode = v
	}

	if !c.Database.Enabled {
		return nil
	}

	if c.Database.Driver == "" {
		c.Database.Driver = database.DBSQLite3
	}

	var supported bool
	for x := range database.SupportedDrivers {
		if database.SupportedDrivers[x] == c.Database.Driver {
			supported = true
			break
		}
	}
	if !supported {
		c.Database.Enabled = false
		return fmt.Errorf("unsupported database driver %v, database disabled", c.Database.Driver)
	}

	if c.Database.Driver == database.DBSQLite || c.Database.Driver == database.DBSQLite3 {
		if c.Database.Database == "" {
			c.Database.Database = database.DefaultSQLiteDatabase
		}
		databaseDir := c.GetDataPath("database")
		if err := common.CreateDir(databaseDir); err != nil {
			return err
		}
		database.DB.DataPath = databaseDir
	}

	return database.DB.SetConfig(&c.Database)
}

// CheckCommunicationsConfig checks to see if the variables are set correctly
func (c *Config) CheckCommunicationsConfig() {
	m.Lock()
	defer m.Unlock()

	if c.Communications.SMTPConfig.Name == "" {
		c.Communications.SMTPConfig.Name = "SMTP"
	}
	if c.Communications.SMTPConfig.Enabled &&
		(c.Communications.SMTPConfig.Host == "" || c.Communications.SMTPConfig.RecipientList == "") {
		c.Communications.SMTPConfig.Enabled = false
		log.Warnln(log.ConfigMgr, "SMTP communication relayer misconfigured, disabling..")
	}
}

// CheckWorkshopConfig applies the default capacity for seeded workshops
func (c *Config) CheckWorkshopConfig() {
	m.Lock()
	defer m.Unlock()

	if c.Workshop.DefaultCapacity < 1 {
		c.Workshop.DefaultCapacity = 3
	}
}

// CheckRemoteControlConfig warns when the admin routes cannot authenticate
// anyone
func (c *Config) CheckRemoteControlConfig() {
	m.Lock()
	defer m.Unlock()

	if c.RemoteControl.Username == "" || c.RemoteControl.Password == "" {
		log.Warnln(log.ConfigMgr,
			"Remote control credentials unset; admin API routes will reject all requests.")
	}
}

// CheckAPIConfig checks the REST API server settings, filling defaults and
// applying environment overrides
func (c *Config) CheckAPIConfig() error {
	m.Lock()
	defer m.Unlock()

	if c.API.Enabled == nil {
		c.API.Enabled = convert.BoolPtr(true)
	}
	if c.API.ListenAddress == "" {
		if *c.API.Enabled {
			log.Warnf(log.ConfigMgr,
				"API listen address not set, defaulting to %v\n",
				DefaultAPIListenAddress)
		}
		c.API.ListenAddress = DefaultAPIListenAddress
	}
	if c.API.ListenAddress == "" {
		return errAPIListenAddressNotSet
	}

	if v := os.Getenv("TALLERD_API_WORKERS"); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TALLERD_API_WORKERS: %w", err)
		}
		c.API.MaxWorkers = workers
	}
	if v := os.Getenv("TALLERD_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TALLERD_REQUEST_TIMEOUT: %w", err)
		}
		c.API.RequestTimeout = d
	}

	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = defaultRequestTimeout
	}
	if c.API.MaxWorkers < 0 {
		c.API.MaxWorkers = 0
	}
	if c.API.RateLimit < 0 {
		c.API.RateLimit = 0
	}
	if c.API.RateLimit > 0 && c.API.RateBurst <= 0 {
		c.API.RateBurst = defaultRateBurst
	}
	return nil
}
