package config

import (
	"errors"
	"sync"
	"time"

	"github.com/thrasher-corp/tallerd/communications/base"
	"github.com/thrasher-corp/tallerd/database"
	"github.com/thrasher-corp/tallerd/log"
)

// Constants declared here are filename strings and test strings
const (
	// File is the default config file name
	File = "config.json"
	// EnvConfigPath is the environment variable overriding config location
	EnvConfigPath = "TALLERD_CONFIG"

	// DefaultAPIListenAddress is the default listen address for the REST API
	DefaultAPIListenAddress = "localhost:9051"

	defaultName           = "tallerd"
	defaultHTTPTimeout    = time.Second * 15
	defaultRequestTimeout = time.Second * 15
	defaultRateLimit      = float64(10)
	defaultRateBurst      = 20

	// ErrFailureOpeningConfig error message displayed on failure to open
	// config file
	ErrFailureOpeningConfig = "fatal error opening %s file. Error: %s"
)

// Variables here are used for configuration
var (
	Cfg Config
	m   sync.Mutex

	errAPIListenAddressNotSet = errors.New("api listen address not set")
)

// Config is the overarching object that holds all the information for
// the tallerd service
type Config struct {
	Name              string                    `json:"name"`
	DataDirectory     string                    `json:"dataDirectory"`
	GlobalHTTPTimeout time.Duration             `json:"globalHTTPTimeout"`
	Database          database.Config           `json:"database"`
	Logging           log.Config                `json:"logging"`
	Communications    base.CommunicationsConfig `json:"communications"`
	RemoteControl     RemoteControlConfig       `json:"remoteControl"`
	Workshop          WorkshopConfig            `json:"workshop"`
	API               APIConfig                 `json:"api"`
}

// RemoteControlConfig stores the admin credentials gating the auth-only
// REST routes
type RemoteControlConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// WorkshopConfig stores defaults applied to workshop directory entries
type WorkshopConfig struct {
	DefaultCapacity int64 `json:"defaultCapacity"`
}

// APIConfig stores the REST API server settings
type APIConfig struct {
	Enabled        *bool         `json:"enabled"`
	ListenAddress  string        `json:"listenAddress"`
	RequestTimeout time.Duration `json:"requestTimeout"`
	// MaxWorkers bounds simultaneous mutating requests; 0 means unlimited
	MaxWorkers int `json:"maxWorkers"`
	// RateLimit is requests per second allowed on the public endpoints;
	// 0 disables the limiter
	RateLimit float64 `json:"rateLimit"`
	RateBurst int     `json:"rateBurst"`
}
