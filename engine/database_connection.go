package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thrasher-corp/tallerd/database"
	dbpsql "github.com/thrasher-corp/tallerd/database/drivers/postgres"
	dbsqlite3 "github.com/thrasher-corp/tallerd/database/drivers/sqlite3"
	"github.com/thrasher-corp/tallerd/engine/subsystem"
	"github.com/thrasher-corp/tallerd/log"
)

// DatabaseConnectionManagerName is an exported subsystem name
const DatabaseConnectionManagerName = "database"

// DatabaseConnectionManager holds the database connection and its status
type DatabaseConnectionManager struct {
	started  int32
	shutdown chan struct{}
	enabled  bool
	verbose  bool
	driver   string
	cfg      database.Config
	wg       sync.WaitGroup
	dbConn   *database.Instance
}

// SetupDatabaseConnectionManager creates a new database manager
func SetupDatabaseConnectionManager(cfg *database.Config) (*DatabaseConnectionManager, error) {
	if cfg == nil {
		return nil, subsystem.ErrNilConfig
	}
	m := &DatabaseConnectionManager{
		shutdown: make(chan struct{}),
		enabled:  cfg.Enabled,
		verbose:  cfg.Verbose,
		driver:   cfg.Driver,
		cfg:      *cfg,
		dbConn:   database.DB,
	}
	err := m.dbConn.SetConfig(cfg)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// IsRunning safely checks whether the subsystem is running
func (m *DatabaseConnectionManager) IsRunning() bool {
	if m == nil {
		return false
	}
	return atomic.LoadInt32(&m.started) == 1
}

// IsConnected is an exported check to verify if the database is connected
func (m *DatabaseConnectionManager) IsConnected() bool {
	if m == nil {
		return false
	}
	return m.dbConn.IsConnected()
}

// GetInstance returns a limited scoped database instance
func (m *DatabaseConnectionManager) GetInstance() database.IDatabase {
	if m == nil || !m.IsRunning() {
		return nil
	}
	return m.dbConn
}

// Start sets up the database manager to maintain an SQL connection
func (m *DatabaseConnectionManager) Start(wg *sync.WaitGroup) (err error) {
	if m == nil {
		return fmt.Errorf("database manager %w", subsystem.ErrNil)
	}
	if wg == nil {
		return errNilWaitgroup
	}
	if !atomic.CompareAndSwapInt32(&m.started, 0, 1) {
		return fmt.Errorf("database manager %w", subsystem.ErrAlreadyStarted)
	}
	defer func() {
		if err != nil {
			atomic.CompareAndSwapInt32(&m.started, 1, 0)
		}
	}()

	log.Debugf(log.DatabaseMgr, "Database manager %s", subsystem.MsgStarting)
	if !m.enabled {
		return database.ErrDatabaseSupportDisabled
	}

	m.shutdown = make(chan struct{})
	switch m.driver {
	case database.DBPostgreSQL:
		log.Debugf(log.DatabaseMgr,
			"Attempting to establish database connection to host %s/%s utilising %s driver\n",
			m.cfg.Host,
			m.cfg.Database,
			m.driver)
		m.dbConn, err = dbpsql.Connect(&m.cfg)
	case database.DBSQLite, database.DBSQLite3:
		log.Debugf(log.DatabaseMgr,
			"Attempting to establish database connection to %s utilising %s driver\n",
			m.cfg.Database,
			m.driver)
		m.dbConn, err = dbsqlite3.Connect(m.cfg.Database)
	default:
		return database.ErrNoDatabaseProvided
	}
	if err != nil {
		return fmt.Errorf("%w: %v Some features that utilise a database will be unavailable", database.ErrFailedToConnect, err)
	}
	m.dbConn.SetConnected(true)
	wg.Add(1)
	m.wg.Add(1)
	go m.run(wg)
	return nil
}

// Stop stops the database manager and closes the connection
func (m *DatabaseConnectionManager) Stop() error {
	if m == nil {
		return fmt.Errorf("database manager %w", subsystem.ErrNil)
	}
	if atomic.LoadInt32(&m.started) == 0 {
		return fmt.Errorf("database manager %w", subsystem.ErrNotStarted)
	}
	defer func() {
		atomic.CompareAndSwapInt32(&m.started, 1, 0)
	}()

	err := m.dbConn.CloseConnection()
	if err != nil {
		log.Errorf(log.DatabaseMgr, "Failed to close database: %v", err)
	}
	close(m.shutdown)
	m.wg.Wait()
	return nil
}

func (m *DatabaseConnectionManager) run(wg *sync.WaitGroup) {
	log.Debugf(log.DatabaseMgr, "Database manager %s", subsystem.MsgStarted)
	t := time.NewTicker(time.Second * 2)

	defer func() {
		t.Stop()
		m.wg.Done()
		wg.Done()
		log.Debugf(log.DatabaseMgr, "Database manager %s", subsystem.MsgShutdown)
	}()

	for {
		select {
		case <-m.shutdown:
			return
		case <-t.C:
			err := m.checkConnection()
			if err != nil {
				log.Errorln(log.DatabaseMgr, "Database connection error:", err)
			}
		}
	}
}

func (m *DatabaseConnectionManager) checkConnection() error {
	if m == nil {
		return fmt.Errorf("database manager %w", subsystem.ErrNil)
	}
	if !m.enabled {
		return database.ErrDatabaseSupportDisabled
	}
	if atomic.LoadInt32(&m.started) == 0 {
		return fmt.Errorf("database manager %w", subsystem.ErrNotStarted)
	}

	err := m.dbConn.Ping()
	if err != nil {
		m.dbConn.SetConnected(false)
		return err
	}

	if !m.dbConn.IsConnected() {
		log.Infoln(log.DatabaseMgr, "Database connection reestablished")
		m.dbConn.SetConnected(true)
	}
	return nil
}
