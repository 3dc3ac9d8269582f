package turn

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/thrasher-corp/sqlboiler/boil"
	"github.com/thrasher-corp/sqlboiler/queries/qm"
	"github.com/thrasher-corp/tallerd/database"
	modelPSQL "github.com/thrasher-corp/tallerd/database/models/postgres"
	modelSQLite "github.com/thrasher-corp/tallerd/database/models/sqlite3"
)

// Setup returns a usable DBService service
// so you don't need to interact with globals in any fashion
func Setup(db database.IDatabase) (*DBService, error) {
	if db == nil {
		return nil, database.ErrNilInstance
	}
	if !db.IsConnected() {
		return nil, database.ErrDatabaseNotConnected
	}
	dbConn, err := db.GetSQL()
	if err != nil {
		return nil, err
	}
	cfg := db.GetConfig()
	return &DBService{
		sql:    dbConn,
		driver: cfg.Driver,
	}, nil
}

// BeginTx opens a transaction on the underlying connection. Queue mutations
// run entirely inside one of these; the caller owns commit and rollback.
func (db *DBService) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.sql.BeginTx(ctx, nil)
}

// Lock reads a turn row inside tx holding a write lock where the backend
// supports one. The parent workshop row must already be locked by the caller,
// workshop before turn, to keep lock ordering acyclic.
func (db *DBService) Lock(ctx context.Context, tx *sql.Tx, id string) (*Details, error) {
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		m, err := modelSQLite.Turns(qm.Where("id = ?", id)).One(ctx, tx)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrTurnNotFound
			}
			return nil, err
		}
		return detailsFromSQLite(m)
	case database.DBPostgreSQL:
		m, err := modelPSQL.Turns(qm.Where("id = ?", id), qm.For("update")).One(ctx, tx)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrTurnNotFound
			}
			return nil, err
		}
		return detailsFromPostgres(m), nil
	}
	return nil, database.ErrNoDatabaseProvided
}

// Find reads a turn row inside tx without locking it. Cancellation uses this
// to discover the parent workshop before taking any locks, then re-reads the
// row under Lock once the workshop lock is held.
func (db *DBService) Find(ctx context.Context, tx *sql.Tx, id string) (*Details, error) {
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		m, err := modelSQLite.FindTurn(ctx, tx, id)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrTurnNotFound
			}
			return nil, err
		}
		return detailsFromSQLite(m)
	case database.DBPostgreSQL:
		m, err := modelPSQL.FindTurn(ctx, tx, id)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrTurnNotFound
			}
			return nil, err
		}
		return detailsFromPostgres(m), nil
	}
	return nil, database.ErrNoDatabaseProvided
}

// MaxNumber returns the highest turn number ever issued for a workshop,
// terminal rows included. Numbers are never reused, so the next issue is
// always MaxNumber + 1.
func (db *DBService) MaxNumber(ctx context.Context, tx *sql.Tx, workshopID string) (int64, error) {
	var query string
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		query = "SELECT COALESCE(MAX(turn_number), 0) FROM turns WHERE workshop_id = ?"
	case database.DBPostgreSQL:
		query = "SELECT COALESCE(MAX(turn_number), 0) FROM turns WHERE workshop_id = $1"
	default:
		return 0, database.ErrNoDatabaseProvided
	}
	var max int64
	err := tx.QueryRowContext(ctx, query, workshopID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("turn.MaxNumber %w", err)
	}
	return max, nil
}

// CountInService returns the number of turns currently occupying service bays
func (db *DBService) CountInService(ctx context.Context, tx *sql.Tx, workshopID string) (int64, error) {
	clauses := []qm.QueryMod{
		qm.Where("workshop_id = ?", workshopID),
		qm.Where("state = ?", StateInService),
	}
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		return modelSQLite.Turns(clauses...).Count(ctx, tx)
	case database.DBPostgreSQL:
		return modelPSQL.Turns(clauses...).Count(ctx, tx)
	}
	return 0, database.ErrNoDatabaseProvided
}

// ActiveByPlate returns the unique non-terminal turn for a workshop and plate
// pair, or ErrTurnNotFound. The plate must already be normalised.
func (db *DBService) ActiveByPlate(ctx context.Context, tx *sql.Tx, workshopID, plate string) (*Details, error) {
	clauses := []qm.QueryMod{
		qm.Where("workshop_id = ?", workshopID),
		qm.Where("plate = ?", plate),
		qm.WhereIn("state in ?", StateWaiting, StateInService),
	}
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		m, err := modelSQLite.Turns(clauses...).One(ctx, tx)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrTurnNotFound
			}
			return nil, err
		}
		return detailsFromSQLite(m)
	case database.DBPostgreSQL:
		m, err := modelPSQL.Turns(clauses...).One(ctx, tx)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrTurnNotFound
			}
			return nil, err
		}
		return detailsFromPostgres(m), nil
	}
	return nil, database.ErrNoDatabaseProvided
}

// OldestWaiting returns the promotion candidate: the waiting turn with the
// earliest created_at, ties broken by turn number. On Postgres the row is
// locked so two concurrent finalizes cannot promote the same waiter.
func (db *DBService) OldestWaiting(ctx context.Context, tx *sql.Tx, workshopID string) (*Details, error) {
	clauses := []qm.QueryMod{
		qm.Where("workshop_id = ?", workshopID),
		qm.Where("state = ?", StateWaiting),
		qm.OrderBy("created_at ASC, turn_number ASC"),
	}
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		m, err := modelSQLite.Turns(clauses...).One(ctx, tx)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrTurnNotFound
			}
			return nil, err
		}
		return detailsFromSQLite(m)
	case database.DBPostgreSQL:
		clauses = append(clauses, qm.For("update"))
		m, err := modelPSQL.Turns(clauses...).One(ctx, tx)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrTurnNotFound
			}
			return nil, err
		}
		return detailsFromPostgres(m), nil
	}
	return nil, database.ErrNoDatabaseProvided
}

// Insert writes a new turn row inside tx, generating an ID when absent
func (db *DBService) Insert(ctx context.Context, tx *sql.Tx, t *Details) error {
	if t.ID == "" {
		freshUUID, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = freshUUID.String()
	}

	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		m := &modelSQLite.Turn{
			ID:           t.ID,
			WorkshopID:   t.WorkshopID,
			TurnNumber:   t.TurnNumber,
			CustomerName: t.CustomerName,
			Phone:        t.Phone,
			VehicleModel: t.VehicleModel,
			Plate:        t.Plate,
			State:        t.State,
			CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
		}
		if t.Problem != "" {
			m.Problem.SetValid(t.Problem)
		}
		if !t.StartedAt.IsZero() {
			m.StartedAt.SetValid(t.StartedAt.UTC().Format(time.RFC3339))
		}
		return m.Insert(ctx, tx, boil.Infer())
	case database.DBPostgreSQL:
		m := &modelPSQL.Turn{
			ID:           t.ID,
			WorkshopID:   t.WorkshopID,
			TurnNumber:   t.TurnNumber,
			CustomerName: t.CustomerName,
			Phone:        t.Phone,
			VehicleModel: t.VehicleModel,
			Plate:        t.Plate,
			State:        t.State,
			CreatedAt:    t.CreatedAt.UTC(),
		}
		if t.Problem != "" {
			m.Problem.SetValid(t.Problem)
		}
		if !t.StartedAt.IsZero() {
			m.StartedAt.SetValid(t.StartedAt.UTC())
		}
		return m.Insert(ctx, tx, boil.Infer())
	}
	return database.ErrNoDatabaseProvided
}

// SetState persists a state transition inside tx. All state and timestamp
// columns are written from the supplied details, so the caller's transition
// function remains the single source of truth.
func (db *DBService) SetState(ctx context.Context, tx *sql.Tx, t *Details) error {
	var rows int64
	var err error
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		m := &modelSQLite.Turn{ID: t.ID, State: t.State}
		if !t.StartedAt.IsZero() {
			m.StartedAt.SetValid(t.StartedAt.UTC().Format(time.RFC3339))
		}
		if !t.FinalizedAt.IsZero() {
			m.FinalizedAt.SetValid(t.FinalizedAt.UTC().Format(time.RFC3339))
		}
		if !t.CancelledAt.IsZero() {
			m.CancelledAt.SetValid(t.CancelledAt.UTC().Format(time.RFC3339))
		}
		rows, err = m.Update(ctx, tx, boil.Whitelist("state", "started_at", "finalized_at", "cancelled_at"))
	case database.DBPostgreSQL:
		m := &modelPSQL.Turn{ID: t.ID, State: t.State}
		if !t.StartedAt.IsZero() {
			m.StartedAt.SetValid(t.StartedAt.UTC())
		}
		if !t.FinalizedAt.IsZero() {
			m.FinalizedAt.SetValid(t.FinalizedAt.UTC())
		}
		if !t.CancelledAt.IsZero() {
			m.CancelledAt.SetValid(t.CancelledAt.UTC())
		}
		rows, err = m.Update(ctx, tx, boil.Whitelist("state", "started_at", "finalized_at", "cancelled_at"))
	default:
		return database.ErrNoDatabaseProvided
	}
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTurnNotFound
	}
	return nil
}

// One returns a turn by its ID without locking
func (db *DBService) One(id string) (*Details, error) {
	ctx := context.Background()
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		m, err := modelSQLite.FindTurn(ctx, db.sql, id)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrTurnNotFound
			}
			return nil, err
		}
		return detailsFromSQLite(m)
	case database.DBPostgreSQL:
		m, err := modelPSQL.FindTurn(ctx, db.sql, id)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrTurnNotFound
			}
			return nil, err
		}
		return detailsFromPostgres(m), nil
	}
	return nil, database.ErrNoDatabaseProvided
}

// Active returns the non-terminal turns of a workshop sorted by turn number.
// Advisory read, takes no locks.
func (db *DBService) Active(workshopID string) ([]Details, error) {
	clauses := []qm.QueryMod{
		qm.Where("workshop_id = ?", workshopID),
		qm.WhereIn("state in ?", StateWaiting, StateInService),
		qm.OrderBy("turn_number ASC"),
	}
	return db.list(clauses)
}

// ByPlateSubstring returns all turns of a workshop, terminal included, whose
// plate contains the query, for customer lookups. Matching is
// case-insensitive since stored plates are uppercase.
func (db *DBService) ByPlateSubstring(workshopID, plateQuery string) ([]Details, error) {
	pattern := "%" + strings.ToUpper(strings.TrimSpace(plateQuery)) + "%"
	clauses := []qm.QueryMod{
		qm.Where("workshop_id = ?", workshopID),
		qm.Where("plate LIKE ?", pattern),
		qm.OrderBy("turn_number ASC"),
	}
	return db.list(clauses)
}

func (db *DBService) list(clauses []qm.QueryMod) ([]Details, error) {
	ctx := context.Background()
	var resp []Details
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		all, err := modelSQLite.Turns(clauses...).All(ctx, db.sql)
		if err != nil {
			return nil, err
		}
		for i := range all {
			d, err := detailsFromSQLite(all[i])
			if err != nil {
				return nil, err
			}
			resp = append(resp, *d)
		}
	case database.DBPostgreSQL:
		all, err := modelPSQL.Turns(clauses...).All(ctx, db.sql)
		if err != nil {
			return nil, err
		}
		for i := range all {
			resp = append(resp, *detailsFromPostgres(all[i]))
		}
	default:
		return nil, database.ErrNoDatabaseProvided
	}
	return resp, nil
}

func detailsFromSQLite(m *modelSQLite.Turn) (*Details, error) {
	d := &Details{
		ID:           m.ID,
		WorkshopID:   m.WorkshopID,
		TurnNumber:   m.TurnNumber,
		CustomerName: m.CustomerName,
		Phone:        m.Phone,
		VehicleModel: m.VehicleModel,
		Plate:        m.Plate,
		Problem:      m.Problem.String,
		State:        m.State,
	}
	var err error
	d.CreatedAt, err = time.Parse(time.RFC3339, m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if m.StartedAt.Valid {
		d.StartedAt, err = time.Parse(time.RFC3339, m.StartedAt.String)
		if err != nil {
			return nil, err
		}
	}
	if m.FinalizedAt.Valid {
		d.FinalizedAt, err = time.Parse(time.RFC3339, m.FinalizedAt.String)
		if err != nil {
			return nil, err
		}
	}
	if m.CancelledAt.Valid {
		d.CancelledAt, err = time.Parse(time.RFC3339, m.CancelledAt.String)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func detailsFromPostgres(m *modelPSQL.Turn) *Details {
	return &Details{
		ID:           m.ID,
		WorkshopID:   m.WorkshopID,
		TurnNumber:   m.TurnNumber,
		CustomerName: m.CustomerName,
		Phone:        m.Phone,
		VehicleModel: m.VehicleModel,
		Plate:        m.Plate,
		Problem:      m.Problem.String,
		State:        m.State,
		CreatedAt:    m.CreatedAt,
		StartedAt:    m.StartedAt.Time,
		FinalizedAt:  m.FinalizedAt.Time,
		CancelledAt:  m.CancelledAt.Time,
	}
}
