package engine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/thrasher-corp/tallerd/database"
	"github.com/thrasher-corp/tallerd/database/repository/workshop"
	"github.com/thrasher-corp/tallerd/engine/subsystem"
	"github.com/thrasher-corp/tallerd/log"
)

// WorkshopManagerName is an exported subsystem name
const WorkshopManagerName = "workshop"

// WorkshopManager is the directory of workshops the daemon serves
type WorkshopManager struct {
	started    int32
	workshopDB *workshop.DBService
}

// SetupWorkshopManager creates a workshop directory manager backed by db
func SetupWorkshopManager(db database.IDatabase) (*WorkshopManager, error) {
	if db == nil {
		return nil, database.ErrNilInstance
	}
	workshopDB, err := workshop.Setup(db)
	if err != nil {
		return nil, err
	}
	return &WorkshopManager{workshopDB: workshopDB}, nil
}

// IsRunning safely checks whether the subsystem is running
func (m *WorkshopManager) IsRunning() bool {
	if m == nil {
		return false
	}
	return atomic.LoadInt32(&m.started) == 1
}

// Start runs the subsystem
func (m *WorkshopManager) Start() error {
	if m == nil {
		return fmt.Errorf("workshop manager %w", subsystem.ErrNil)
	}
	if !atomic.CompareAndSwapInt32(&m.started, 0, 1) {
		return fmt.Errorf("workshop manager %w", subsystem.ErrAlreadyStarted)
	}
	log.Debugf(log.WorkshopMgr, "Workshop manager %s", subsystem.MsgStarted)
	return nil
}

// Stop attempts to shutdown the subsystem
func (m *WorkshopManager) Stop() error {
	if m == nil {
		return fmt.Errorf("workshop manager %w", subsystem.ErrNil)
	}
	if !atomic.CompareAndSwapInt32(&m.started, 1, 0) {
		return fmt.Errorf("workshop manager %w", subsystem.ErrNotStarted)
	}
	log.Debugf(log.WorkshopMgr, "Workshop manager %s", subsystem.MsgShutdown)
	return nil
}

// All returns every workshop in the directory
func (m *WorkshopManager) All() ([]workshop.Details, error) {
	if !m.IsRunning() {
		return nil, fmt.Errorf("workshop manager %w", subsystem.ErrNotStarted)
	}
	return m.workshopDB.All()
}

// One returns a workshop by its ID
func (m *WorkshopManager) One(id string) (*workshop.Details, error) {
	if !m.IsRunning() {
		return nil, fmt.Errorf("workshop manager %w", subsystem.ErrNotStarted)
	}
	w, err := m.workshopDB.One(id)
	if err != nil {
		if errors.Is(err, workshop.ErrWorkshopNotFound) {
			return nil, NewError(KindNotFound, "workshop %s not found", id)
		}
		return nil, err
	}
	return w, nil
}
