package workshop

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/thrasher-corp/sqlboiler/boil"
	"github.com/thrasher-corp/sqlboiler/queries/qm"
	"github.com/thrasher-corp/tallerd/database"
	modelPSQL "github.com/thrasher-corp/tallerd/database/models/postgres"
	modelSQLite "github.com/thrasher-corp/tallerd/database/models/sqlite3"
	"github.com/thrasher-corp/tallerd/log"
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

// Insert adds a workshop to the directory, generating an ID when absent
func (db *DBService) Insert(w *Details) error {
	if w == nil {
		return database.ErrNilConfig
	}
	if w.Capacity == 0 {
		w.Capacity = DefaultCapacity
	}
	if w.Capacity < 1 {
		return errInvalidCapacity
	}
	if w.ID == "" {
		freshUUID, err := uuid.NewV4()
		if err != nil {
			return err
		}
		w.ID = freshUUID.String()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}

	ctx := context.Background()
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginTx %w", err)
	}
	defer func() {
		if err != nil {
			errRB := tx.Rollback()
			if errRB != nil {
				log.Errorf(log.DatabaseMgr, "Insert tx.Rollback %v", errRB)
			}
		}
	}()

	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		err = insertSQLite(ctx, tx, w)
	case database.DBPostgreSQL:
		err = insertPostgres(ctx, tx, w)
	default:
		return database.ErrNoDatabaseProvided
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Update amends the mutable workshop fields. Capacity changes have no
// retroactive effect on turns already in service.
func (db *DBService) Update(w *Details) error {
	if w == nil {
		return database.ErrNilConfig
	}
	if w.Capacity < 1 {
		return errInvalidCapacity
	}

	ctx := context.Background()
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginTx %w", err)
	}
	defer func() {
		if err != nil {
			errRB := tx.Rollback()
			if errRB != nil {
				log.Errorf(log.DatabaseMgr, "Update tx.Rollback %v", errRB)
			}
		}
	}()

	var rows int64
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		m := &modelSQLite.Workshop{ID: w.ID, Name: w.Name, Capacity: w.Capacity}
		m.Address.SetValid(w.Address)
		m.Logo.SetValid(w.Logo)
		rows, err = m.Update(ctx, tx, boil.Whitelist("name", "address", "logo", "capacity"))
	case database.DBPostgreSQL:
		m := &modelPSQL.Workshop{ID: w.ID, Name: w.Name, Capacity: int(w.Capacity)}
		m.Address.SetValid(w.Address)
		m.Logo.SetValid(w.Logo)
		rows, err = m.Update(ctx, tx, boil.Whitelist("name", "address", "logo", "capacity"))
	default:
		return database.ErrNoDatabaseProvided
	}
	if err != nil {
		return err
	}
	if rows == 0 {
		err = ErrWorkshopNotFound
		return err
	}

	return tx.Commit()
}

// One returns a workshop by its ID
func (db *DBService) One(id string) (*Details, error) {
	return db.one(qm.Where("id = ?", id))
}

// OneByName returns a workshop by its unique display name
func (db *DBService) OneByName(name string) (*Details, error) {
	return db.one(qm.Where("name = ?", name))
}

func (db *DBService) one(clause qm.QueryMod) (*Details, error) {
	ctx := context.Background()
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		m, err := modelSQLite.Workshops(clause).One(ctx, db.sql)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrWorkshopNotFound
			}
			return nil, err
		}
		return detailsFromSQLite(m)
	case database.DBPostgreSQL:
		m, err := modelPSQL.Workshops(clause).One(ctx, db.sql)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrWorkshopNotFound
			}
			return nil, err
		}
		return detailsFromPostgres(m), nil
	}
	return nil, database.ErrNoDatabaseProvided
}

// All returns every workshop in the directory ordered by name
func (db *DBService) All() ([]Details, error) {
	ctx := context.Background()
	var resp []Details
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		all, err := modelSQLite.Workshops(qm.OrderBy("name ASC")).All(ctx, db.sql)
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
		all, err := modelPSQL.Workshops(qm.OrderBy("name ASC")).All(ctx, db.sql)
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

// Delete removes a workshop; the schema cascades the delete to its turns
func (db *DBService) Delete(id string) error {
	ctx := context.Background()
	var rows int64
	var err error
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		m := &modelSQLite.Workshop{ID: id}
		rows, err = m.Delete(ctx, db.sql)
	case database.DBPostgreSQL:
		m := &modelPSQL.Workshop{ID: id}
		rows, err = m.Delete(ctx, db.sql)
	default:
		return database.ErrNoDatabaseProvided
	}
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrWorkshopNotFound
	}
	return nil
}

// Lock reads the workshop row inside tx holding a pessimistic write lock.
// Every mutation of a workshop's queue starts here, which serialises
// create/finalize/cancel per workshop. SQLite runs on a single connection so
// the plain read is already serial.
func (db *DBService) Lock(ctx context.Context, tx *sql.Tx, id string) (*Details, error) {
	switch db.driver {
	case database.DBSQLite3, database.DBSQLite:
		m, err := modelSQLite.Workshops(qm.Where("id = ?", id)).One(ctx, tx)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrWorkshopNotFound
			}
			return nil, err
		}
		return detailsFromSQLite(m)
	case database.DBPostgreSQL:
		m, err := modelPSQL.Workshops(qm.Where("id = ?", id), qm.For("update")).One(ctx, tx)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrWorkshopNotFound
			}
			return nil, err
		}
		return detailsFromPostgres(m), nil
	}
	return nil, database.ErrNoDatabaseProvided
}

func insertSQLite(ctx context.Context, tx *sql.Tx, w *Details) error {
	m := &modelSQLite.Workshop{
		ID:        w.ID,
		Name:      w.Name,
		Capacity:  w.Capacity,
		CreatedAt: w.CreatedAt.UTC().Format(time.RFC3339),
	}
	if w.Address != "" {
		m.Address.SetValid(w.Address)
	}
	if w.Logo != "" {
		m.Logo.SetValid(w.Logo)
	}
	return m.Insert(ctx, tx, boil.Infer())
}

func insertPostgres(ctx context.Context, tx *sql.Tx, w *Details) error {
	m := &modelPSQL.Workshop{
		ID:        w.ID,
		Name:      w.Name,
		Capacity:  int(w.Capacity),
		CreatedAt: w.CreatedAt.UTC(),
	}
	if w.Address != "" {
		m.Address.SetValid(w.Address)
	}
	if w.Logo != "" {
		m.Logo.SetValid(w.Logo)
	}
	return m.Insert(ctx, tx, boil.Infer())
}

func detailsFromSQLite(m *modelSQLite.Workshop) (*Details, error) {
	createdAt, err := time.Parse(time.RFC3339, m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &Details{
		ID:        m.ID,
		Name:      m.Name,
		Address:   m.Address.String,
		Logo:      m.Logo.String,
		Capacity:  m.Capacity,
		CreatedAt: createdAt,
	}, nil
}

func detailsFromPostgres(m *modelPSQL.Workshop) *Details {
	return &Details{
		ID:        m.ID,
		Name:      m.Name,
		Address:   m.Address.String,
		Logo:      m.Logo.String,
		Capacity:  int64(m.Capacity),
		CreatedAt: m.CreatedAt,
	}
}
