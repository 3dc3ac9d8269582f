package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/juju/clock"
	"github.com/thrasher-corp/tallerd/communications/base"
	"github.com/thrasher-corp/tallerd/database"
	"github.com/thrasher-corp/tallerd/database/repository/turn"
	"github.com/thrasher-corp/tallerd/database/repository/workshop"
	"github.com/thrasher-corp/tallerd/engine/subsystem"
	"github.com/thrasher-corp/tallerd/log"
)

// QueueManagerName is an exported subsystem name
const QueueManagerName = "queue"

// Finalize and cancel notification text, kept stable for downstream consumers
const (
	msgTurnFinalized = "turno finalizado"
	msgTurnCancelled = "turno cancelado"
)

const maxProblemLength = 255

var phoneRegexp = regexp.MustCompile(`^\d{8,15}$`)

// QueueManager runs every turn queue mutation inside a single database
// transaction, serialised per workshop on the workshop row lock
type QueueManager struct {
	started    int32
	clock      clock.Clock
	comms      iCommsManager
	turnDB     *turn.DBService
	workshopDB *workshop.DBService
}

// TurnRequest is a validated-on-entry request for a new turn
type TurnRequest struct {
	CustomerName string
	Phone        string
	VehicleModel string
	Plate        string
	Problem      string
}

// QueueStatus is a point in time snapshot of one workshop's queue
type QueueStatus struct {
	Workshop  *workshop.Details
	InService []turn.Details
	Waiting   []turn.Details
}

// SetupQueueManager creates a queue manager backed by db. A nil comms manager
// disables notifications, a nil clock falls back to the wall clock.
func SetupQueueManager(db database.IDatabase, comms iCommsManager, clk clock.Clock) (*QueueManager, error) {
	if db == nil {
		return nil, database.ErrNilInstance
	}
	if clk == nil {
		clk = clock.WallClock
	}
	turnDB, err := turn.Setup(db)
	if err != nil {
		return nil, err
	}
	workshopDB, err := workshop.Setup(db)
	if err != nil {
		return nil, err
	}
	return &QueueManager{
		clock:      clk,
		comms:      comms,
		turnDB:     turnDB,
		workshopDB: workshopDB,
	}, nil
}

// IsRunning safely checks whether the subsystem is running
func (m *QueueManager) IsRunning() bool {
	if m == nil {
		return false
	}
	return atomic.LoadInt32(&m.started) == 1
}

// Start runs the subsystem
func (m *QueueManager) Start() error {
	if m == nil {
		return fmt.Errorf("queue manager %w", subsystem.ErrNil)
	}
	if !atomic.CompareAndSwapInt32(&m.started, 0, 1) {
		return fmt.Errorf("queue manager %w", subsystem.ErrAlreadyStarted)
	}
	log.Debugf(log.QueueMgr, "Queue manager %s", subsystem.MsgStarting)
	log.Debugf(log.QueueMgr, "Queue manager %s", subsystem.MsgStarted)
	return nil
}

// Stop attempts to shutdown the subsystem
func (m *QueueManager) Stop() error {
	if m == nil {
		return fmt.Errorf("queue manager %w", subsystem.ErrNil)
	}
	if !atomic.CompareAndSwapInt32(&m.started, 1, 0) {
		return fmt.Errorf("queue manager %w", subsystem.ErrNotStarted)
	}
	log.Debugf(log.QueueMgr, "Queue manager %s", subsystem.MsgShutdown)
	return nil
}

// NormalisePlate canonicalises a licence plate for storage and comparison
func NormalisePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// Validate checks the request fields, normalising the plate in place
func (r *TurnRequest) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return NewError(KindValidation, "customer name is required")
	}
	if !phoneRegexp.MatchString(r.Phone) {
		return NewError(KindValidation, "phone must be 8 to 15 digits")
	}
	if strings.TrimSpace(r.VehicleModel) == "" {
		return NewError(KindValidation, "vehicle model is required")
	}
	r.Plate = NormalisePlate(r.Plate)
	if r.Plate == "" {
		return NewError(KindValidation, "plate is required")
	}
	if len(r.Problem) > maxProblemLength {
		return NewError(KindValidation, "problem description exceeds %d characters", maxProblemLength)
	}
	return nil
}

// RequestTurn issues the next turn number for the workshop. The new turn goes
// straight to IN_SERVICE when a bay is free, otherwise it waits. A plate with
// an active turn in the same workshop is rejected.
func (m *QueueManager) RequestTurn(ctx context.Context, workshopID string, req *TurnRequest) (*turn.Details, error) {
	if !m.IsRunning() {
		return nil, fmt.Errorf("queue manager %w", subsystem.ErrNotStarted)
	}
	if req == nil {
		return nil, NewError(KindValidation, "empty turn request")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var t *turn.Details
	var ws *workshop.Details
	err := m.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		ws, err = m.workshopDB.Lock(ctx, tx, workshopID)
		if err != nil {
			if errors.Is(err, workshop.ErrWorkshopNotFound) {
				return NewError(KindNotFound, "workshop %s not found", workshopID)
			}
			return err
		}

		existing, err := m.turnDB.ActiveByPlate(ctx, tx, workshopID, req.Plate)
		if err != nil && !errors.Is(err, turn.ErrTurnNotFound) {
			return err
		}
		if existing != nil {
			return NewDuplicatePlateError(req.Plate, existing.TurnNumber)
		}

		maxNumber, err := m.turnDB.MaxNumber(ctx, tx, workshopID)
		if err != nil {
			return err
		}
		inService, err := m.turnDB.CountInService(ctx, tx, workshopID)
		if err != nil {
			return err
		}

		now := m.clock.Now().UTC()
		t = &turn.Details{
			WorkshopID:   ws.ID,
			TurnNumber:   maxNumber + 1,
			CustomerName: strings.TrimSpace(req.CustomerName),
			Phone:        req.Phone,
			VehicleModel: strings.TrimSpace(req.VehicleModel),
			Plate:        req.Plate,
			Problem:      req.Problem,
			State:        turn.StateWaiting,
			CreatedAt:    now,
		}
		if inService < ws.Capacity {
			t.State = turn.StateInService
			t.StartedAt = now
		}
		return m.turnDB.Insert(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	m.relayEvent("turn_created", fmt.Sprintf("%s: turno #%d (%s) %s",
		ws.Name, t.TurnNumber, t.Plate, t.State))
	return t, nil
}

// Finalize completes an in-service turn and promotes the oldest waiter into
// the freed bay. Only IN_SERVICE turns can finalize.
func (m *QueueManager) Finalize(ctx context.Context, turnID string) (*turn.Details, error) {
	if !m.IsRunning() {
		return nil, fmt.Errorf("queue manager %w", subsystem.ErrNotStarted)
	}

	var t, promoted *turn.Details
	err := m.inTx(ctx, func(tx *sql.Tx) error {
		t2, ws, err := m.lockTurn(ctx, tx, turnID)
		if err != nil {
			return err
		}
		t = t2
		if t.State != turn.StateInService {
			return NewError(KindStateConflict, "turn #%d is %s, only IN_SERVICE turns can finalize", t.TurnNumber, t.State)
		}

		now := m.clock.Now().UTC()
		t.State = turn.StateFinalized
		t.FinalizedAt = now
		if err = m.turnDB.SetState(ctx, tx, t); err != nil {
			return err
		}

		promoted, err = m.promoteNext(ctx, tx, ws, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.relayEvent("turn_finalized", fmt.Sprintf("turno #%d (%s): %s",
		t.TurnNumber, t.Plate, msgTurnFinalized))
	m.relayPromotion(promoted)
	return t, nil
}

// Cancel withdraws a turn. The presented plate must match the turn's plate.
// Cancelling an IN_SERVICE turn frees its bay and promotes the oldest waiter;
// cancelling a WAITING turn promotes nobody.
func (m *QueueManager) Cancel(ctx context.Context, turnID, presentedPlate string) (*turn.Details, error) {
	if !m.IsRunning() {
		return nil, fmt.Errorf("queue manager %w", subsystem.ErrNotStarted)
	}

	var t, promoted *turn.Details
	err := m.inTx(ctx, func(tx *sql.Tx) error {
		t2, ws, err := m.lockTurn(ctx, tx, turnID)
		if err != nil {
			return err
		}
		t = t2
		if NormalisePlate(presentedPlate) != t.Plate {
			return NewError(KindForbidden, "plate does not match turn #%d", t.TurnNumber)
		}
		promoted, err = m.cancelLocked(ctx, tx, ws, t)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.relayEvent("turn_cancelled", fmt.Sprintf("turno #%d (%s): %s",
		t.TurnNumber, t.Plate, msgTurnCancelled))
	m.relayPromotion(promoted)
	return t, nil
}

// CancelByPlate withdraws the unique active turn holding the plate in the
// workshop. Plate possession is the proof of ownership here, so no further
// plate check is run.
func (m *QueueManager) CancelByPlate(ctx context.Context, workshopID, plate string) (*turn.Details, error) {
	if !m.IsRunning() {
		return nil, fmt.Errorf("queue manager %w", subsystem.ErrNotStarted)
	}
	plate = NormalisePlate(plate)
	if plate == "" {
		return nil, NewError(KindValidation, "plate is required")
	}

	var t, promoted *turn.Details
	err := m.inTx(ctx, func(tx *sql.Tx) error {
		ws, err := m.workshopDB.Lock(ctx, tx, workshopID)
		if err != nil {
			if errors.Is(err, workshop.ErrWorkshopNotFound) {
				return NewError(KindNotFound, "workshop %s not found", workshopID)
			}
			return err
		}
		t, err = m.turnDB.ActiveByPlate(ctx, tx, workshopID, plate)
		if err != nil {
			if errors.Is(err, turn.ErrTurnNotFound) {
				return NewError(KindNotFound, "no active turn for plate %s", plate)
			}
			return err
		}
		promoted, err = m.cancelLocked(ctx, tx, ws, t)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.relayEvent("turn_cancelled", fmt.Sprintf("turno #%d (%s): %s",
		t.TurnNumber, t.Plate, msgTurnCancelled))
	m.relayPromotion(promoted)
	return t, nil
}

// Status returns the live queue snapshot for one workshop
func (m *QueueManager) Status(ctx context.Context, workshopID string) (*QueueStatus, error) {
	if !m.IsRunning() {
		return nil, fmt.Errorf("queue manager %w", subsystem.ErrNotStarted)
	}
	ws, err := m.workshopDB.One(workshopID)
	if err != nil {
		if errors.Is(err, workshop.ErrWorkshopNotFound) {
			return nil, NewError(KindNotFound, "workshop %s not found", workshopID)
		}
		return nil, err
	}
	active, err := m.turnDB.Active(workshopID)
	if err != nil {
		return nil, err
	}
	status := &QueueStatus{Workshop: ws}
	for i := range active {
		switch active[i].State {
		case turn.StateInService:
			status.InService = append(status.InService, active[i])
		case turn.StateWaiting:
			status.Waiting = append(status.Waiting, active[i])
		}
	}
	return status, nil
}

// List returns a workshop's turns, filtered by plate substring when the query
// is non-empty. The unfiltered listing excludes terminal turns, the plate
// search includes them so customers can find their history.
func (m *QueueManager) List(ctx context.Context, workshopID, plateQuery string) ([]turn.Details, error) {
	if !m.IsRunning() {
		return nil, fmt.Errorf("queue manager %w", subsystem.ErrNotStarted)
	}
	_, err := m.workshopDB.One(workshopID)
	if err != nil {
		if errors.Is(err, workshop.ErrWorkshopNotFound) {
			return nil, NewError(KindNotFound, "workshop %s not found", workshopID)
		}
		return nil, err
	}
	if strings.TrimSpace(plateQuery) == "" {
		return m.turnDB.Active(workshopID)
	}
	return m.turnDB.ByPlateSubstring(workshopID, plateQuery)
}

// GetTurn returns a single turn by ID
func (m *QueueManager) GetTurn(turnID string) (*turn.Details, error) {
	if !m.IsRunning() {
		return nil, fmt.Errorf("queue manager %w", subsystem.ErrNotStarted)
	}
	t, err := m.turnDB.One(turnID)
	if err != nil {
		if errors.Is(err, turn.ErrTurnNotFound) {
			return nil, NewError(KindNotFound, "turn %s not found", turnID)
		}
		return nil, err
	}
	return t, nil
}

// inTx runs fn inside a transaction, committing on nil error and rolling back
// otherwise
func (m *QueueManager) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.turnDB.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginTx %w", err)
	}
	defer func() {
		if err != nil {
			errRB := tx.Rollback()
			if errRB != nil && !errors.Is(errRB, sql.ErrTxDone) {
				log.Errorf(log.QueueMgr, "Queue manager tx.Rollback %v", errRB)
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// lockTurn locks the parent workshop then the turn, re-reading the turn under
// the lock. The unlocked pre-read only discovers the workshop ID; every
// decision, including the terminal-state rejection, is made by the caller
// against the locked copy.
func (m *QueueManager) lockTurn(ctx context.Context, tx *sql.Tx, turnID string) (*turn.Details, *workshop.Details, error) {
	peek, err := m.turnDB.Find(ctx, tx, turnID)
	if err != nil {
		if errors.Is(err, turn.ErrTurnNotFound) {
			return nil, nil, NewError(KindNotFound, "turn %s not found", turnID)
		}
		return nil, nil, err
	}
	ws, err := m.workshopDB.Lock(ctx, tx, peek.WorkshopID)
	if err != nil {
		return nil, nil, err
	}
	t, err := m.turnDB.Lock(ctx, tx, turnID)
	if err != nil {
		if errors.Is(err, turn.ErrTurnNotFound) {
			return nil, nil, NewError(KindNotFound, "turn %s not found", turnID)
		}
		return nil, nil, err
	}
	return t, ws, nil
}

// cancelLocked cancels a turn whose workshop lock is already held. Freed bays
// are refilled immediately from the waiting queue.
func (m *QueueManager) cancelLocked(ctx context.Context, tx *sql.Tx, ws *workshop.Details, t *turn.Details) (*turn.Details, error) {
	if t.IsTerminal() {
		return nil, NewError(KindStateConflict, "turn #%d is already %s", t.TurnNumber, t.State)
	}
	wasInService := t.State == turn.StateInService

	now := m.clock.Now().UTC()
	t.State = turn.StateCancelled
	t.CancelledAt = now
	if err := m.turnDB.SetState(ctx, tx, t); err != nil {
		return nil, err
	}

	if !wasInService {
		return nil, nil
	}
	return m.promoteNext(ctx, tx, ws, now)
}

// promoteNext moves the oldest waiting turn into service, provided a bay is
// actually free. After a capacity shrink the in-service count can still sit
// at or above the new limit, in which case promotion pauses until the count
// drops under it. No waiting turns is not an error, the bay just stays free.
func (m *QueueManager) promoteNext(ctx context.Context, tx *sql.Tx, ws *workshop.Details, now time.Time) (*turn.Details, error) {
	inService, err := m.turnDB.CountInService(ctx, tx, ws.ID)
	if err != nil {
		return nil, err
	}
	if inService >= ws.Capacity {
		return nil, nil
	}
	next, err := m.turnDB.OldestWaiting(ctx, tx, ws.ID)
	if err != nil {
		if errors.Is(err, turn.ErrTurnNotFound) {
			return nil, nil
		}
		return nil, err
	}
	next.State = turn.StateInService
	next.StartedAt = now
	if err = m.turnDB.SetState(ctx, tx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// relayEvent pushes a notification after commit; delivery is best effort
func (m *QueueManager) relayEvent(eventType, message string) {
	if m.comms == nil || !m.comms.IsRunning() {
		return
	}
	m.comms.PushEvent(base.Event{Type: eventType, Message: message})
}

func (m *QueueManager) relayPromotion(promoted *turn.Details) {
	if promoted == nil {
		return
	}
	m.relayEvent("turn_promoted", fmt.Sprintf("turno #%d (%s) pasa a servicio",
		promoted.TurnNumber, promoted.Plate))
}
