package turn

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/sqlboiler/boil"

	"github.com/thrasher-corp/tallerd/database"
	"github.com/thrasher-corp/tallerd/database/drivers"
	"github.com/thrasher-corp/tallerd/database/repository/workshop"
	"github.com/thrasher-corp/tallerd/database/testhelpers"
)

func TestMain(m *testing.M) {
	var err error
	testhelpers.TempDir, err = os.MkdirTemp("", "tallerd-turn")
	if err != nil {
		fmt.Printf("failed to create temp dir: %v", err)
		os.Exit(1)
	}

	dbConn, err := testhelpers.ConnectToDatabase(&database.Config{
		Enabled:           true,
		Driver:            database.DBSQLite3,
		ConnectionDetails: drivers.ConnectionDetails{Database: "turn.db"},
	})
	if err != nil {
		fmt.Printf("failed to connect to database: %v", err)
		os.Exit(1)
	}

	r := m.Run()

	if err = testhelpers.CloseDatabase(dbConn); err != nil {
		fmt.Printf("failed to close database: %v", err)
	}
	if err = os.RemoveAll(testhelpers.TempDir); err != nil {
		fmt.Printf("failed to remove temp dir: %v", err)
	}
	os.Exit(r)
}

var testStamp = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func seedWorkshop(t *testing.T) *workshop.Details {
	t.Helper()
	workshopDB, err := workshop.Setup(database.DB)
	require.NoError(t, err, "workshop.Setup must not error")
	ws := &workshop.Details{Name: "Taller " + t.Name()}
	require.NoError(t, workshopDB.Insert(ws), "workshop Insert must not error")
	return ws
}

// inTestTx runs fn in a transaction which commits when fn succeeds
func inTestTx(t *testing.T, fn func(tx *sql.Tx) error) {
	t.Helper()
	tx, err := database.DB.SQL.BeginTx(context.Background(), nil)
	require.NoError(t, err, "BeginTx must not error")
	if err = fn(tx); err != nil {
		assert.NoError(t, tx.Rollback(), "Rollback should not error")
		require.NoError(t, err, "tx func must not error")
		return
	}
	require.NoError(t, tx.Commit(), "Commit must not error")
}

func seedTurn(t *testing.T, dbService *DBService, workshopID string, number int64, plate, state string, createdAt time.Time) *Details {
	t.Helper()
	d := &Details{
		WorkshopID:   workshopID,
		TurnNumber:   number,
		CustomerName: "Ana Diaz",
		Phone:        "1134567890",
		VehicleModel: "Toyota Corolla",
		Plate:        plate,
		State:        state,
		CreatedAt:    createdAt,
	}
	if state == StateInService {
		d.StartedAt = createdAt
	}
	inTestTx(t, func(tx *sql.Tx) error {
		return dbService.Insert(context.Background(), tx, d)
	})
	return d
}

func TestInsertAndOne(t *testing.T) {
	t.Parallel()
	dbService, err := Setup(database.DB)
	require.NoError(t, err, "Setup must not error")
	ws := seedWorkshop(t)

	seeded := seedTurn(t, dbService, ws.ID, 1, "ABC123", StateInService, testStamp)
	assert.NotEmpty(t, seeded.ID, "Insert should generate an id")

	got, err := dbService.One(seeded.ID)
	require.NoError(t, err, "One must not error")
	assert.Equal(t, int64(1), got.TurnNumber)
	assert.Equal(t, "ABC123", got.Plate)
	assert.Equal(t, StateInService, got.State)
	assert.True(t, got.CreatedAt.Equal(testStamp), "created_at should round-trip")
	assert.True(t, got.StartedAt.Equal(testStamp), "started_at should round-trip")
	assert.True(t, got.FinalizedAt.IsZero(), "unset finalized_at should stay zero")

	_, err = dbService.One("ffffffff-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrTurnNotFound)
}

func TestMaxNumber(t *testing.T) {
	t.Parallel()
	dbService, err := Setup(database.DB)
	require.NoError(t, err, "Setup must not error")
	ws := seedWorkshop(t)

	inTestTx(t, func(tx *sql.Tx) error {
		n, errMax := dbService.MaxNumber(context.Background(), tx, ws.ID)
		require.NoError(t, errMax, "MaxNumber must not error")
		assert.Zero(t, n, "empty workshop should report zero")
		return nil
	})

	seedTurn(t, dbService, ws.ID, 1, "AAA111", StateFinalized, testStamp)
	seedTurn(t, dbService, ws.ID, 2, "BBB222", StateWaiting, testStamp)

	inTestTx(t, func(tx *sql.Tx) error {
		n, errMax := dbService.MaxNumber(context.Background(), tx, ws.ID)
		require.NoError(t, errMax, "MaxNumber must not error")
		assert.Equal(t, int64(2), n, "terminal turns still count for numbering")
		return nil
	})
}

func TestCountInService(t *testing.T) {
	t.Parallel()
	dbService, err := Setup(database.DB)
	require.NoError(t, err, "Setup must not error")
	ws := seedWorkshop(t)

	seedTurn(t, dbService, ws.ID, 1, "AAA111", StateInService, testStamp)
	seedTurn(t, dbService, ws.ID, 2, "BBB222", StateWaiting, testStamp)
	seedTurn(t, dbService, ws.ID, 3, "CCC333", StateFinalized, testStamp)

	inTestTx(t, func(tx *sql.Tx) error {
		n, errCount := dbService.CountInService(context.Background(), tx, ws.ID)
		require.NoError(t, errCount, "CountInService must not error")
		assert.Equal(t, int64(1), n)
		return nil
	})
}

func TestActiveByPlate(t *testing.T) {
	t.Parallel()
	dbService, err := Setup(database.DB)
	require.NoError(t, err, "Setup must not error")
	ws := seedWorkshop(t)

	seedTurn(t, dbService, ws.ID, 1, "ABC123", StateCancelled, testStamp)
	active := seedTurn(t, dbService, ws.ID, 2, "ABC123", StateWaiting, testStamp)

	inTestTx(t, func(tx *sql.Tx) error {
		got, errActive := dbService.ActiveByPlate(context.Background(), tx, ws.ID, "ABC123")
		require.NoError(t, errActive, "ActiveByPlate must not error")
		assert.Equal(t, active.ID, got.ID, "terminal turns should be skipped")

		_, errActive = dbService.ActiveByPlate(context.Background(), tx, ws.ID, "ZZZ999")
		assert.ErrorIs(t, errActive, ErrTurnNotFound)
		return nil
	})
}

func TestOldestWaiting(t *testing.T) {
	t.Parallel()
	dbService, err := Setup(database.DB)
	require.NoError(t, err, "Setup must not error")
	ws := seedWorkshop(t)

	inTestTx(t, func(tx *sql.Tx) error {
		_, errOldest := dbService.OldestWaiting(context.Background(), tx, ws.ID)
		assert.ErrorIs(t, errOldest, ErrTurnNotFound, "empty queue should miss")
		return nil
	})

	seedTurn(t, dbService, ws.ID, 1, "AAA111", StateInService, testStamp)
	seedTurn(t, dbService, ws.ID, 2, "BBB222", StateWaiting, testStamp.Add(2*time.Second))
	oldest := seedTurn(t, dbService, ws.ID, 3, "CCC333", StateWaiting, testStamp.Add(time.Second))

	inTestTx(t, func(tx *sql.Tx) error {
		got, errOldest := dbService.OldestWaiting(context.Background(), tx, ws.ID)
		require.NoError(t, errOldest, "OldestWaiting must not error")
		assert.Equal(t, oldest.ID, got.ID, "earliest created_at should win")
		return nil
	})
}

func TestOldestWaitingTieBreak(t *testing.T) {
	t.Parallel()
	dbService, err := Setup(database.DB)
	require.NoError(t, err, "Setup must not error")
	ws := seedWorkshop(t)

	seedTurn(t, dbService, ws.ID, 2, "BBB222", StateWaiting, testStamp)
	first := seedTurn(t, dbService, ws.ID, 1, "AAA111", StateWaiting, testStamp)

	inTestTx(t, func(tx *sql.Tx) error {
		got, errOldest := dbService.OldestWaiting(context.Background(), tx, ws.ID)
		require.NoError(t, errOldest, "OldestWaiting must not error")
		assert.Equal(t, first.ID, got.ID, "equal created_at should fall back to turn number")
		return nil
	})
}

func TestSetState(t *testing.T) {
	t.Parallel()
	dbService, err := Setup(database.DB)
	require.NoError(t, err, "Setup must not error")
	ws := seedWorkshop(t)

	d := seedTurn(t, dbService, ws.ID, 1, "ABC123", StateInService, testStamp)

	d.State = StateFinalized
	d.FinalizedAt = testStamp.Add(time.Hour)
	inTestTx(t, func(tx *sql.Tx) error {
		return dbService.SetState(context.Background(), tx, d)
	})

	got, err := dbService.One(d.ID)
	require.NoError(t, err, "One must not error")
	assert.Equal(t, StateFinalized, got.State)
	assert.True(t, got.StartedAt.Equal(testStamp), "earlier timestamps must survive the transition")
	assert.True(t, got.FinalizedAt.Equal(testStamp.Add(time.Hour)))

	missing := &Details{ID: "ffffffff-0000-0000-0000-000000000000", State: StateCancelled}
	tx, err := database.DB.SQL.BeginTx(context.Background(), nil)
	require.NoError(t, err, "BeginTx must not error")
	assert.ErrorIs(t, dbService.SetState(context.Background(), tx, missing), ErrTurnNotFound)
	assert.NoError(t, tx.Rollback(), "Rollback should not error")
}

// Not parallel: flips the package-level sqlboiler debug globals.
func TestSetStateUpdatesWhitelistedColumnsOnly(t *testing.T) {
	dbService, err := Setup(database.DB)
	require.NoError(t, err, "Setup must not error")
	ws := seedWorkshop(t)

	d := seedTurn(t, dbService, ws.ID, 1, "ABC123", StateInService, testStamp)
	d.State = StateCancelled
	d.CancelledAt = testStamp.Add(time.Minute)

	var trace bytes.Buffer
	boil.DebugMode = true
	boil.DebugWriter = &trace
	t.Cleanup(func() {
		boil.DebugMode = false
		boil.DebugWriter = os.Stdout
	})

	inTestTx(t, func(tx *sql.Tx) error {
		return dbService.SetState(context.Background(), tx, d)
	})

	sqlText := trace.String()
	assert.Contains(t, sqlText, `UPDATE "turns"`, "debug writer should trace the statement")
	assert.Contains(t, sqlText, `"state"`, "state column must be in the whitelist")
	assert.NotContains(t, sqlText, `"customer_name"`, "identity columns must stay out of the update")
	assert.NotContains(t, sqlText, `"created_at"`, "created_at must never be rewritten")
}

func TestActiveOrdering(t *testing.T) {
	t.Parallel()
	dbService, err := Setup(database.DB)
	require.NoError(t, err, "Setup must not error")
	ws := seedWorkshop(t)

	seedTurn(t, dbService, ws.ID, 2, "BBB222", StateWaiting, testStamp)
	seedTurn(t, dbService, ws.ID, 1, "AAA111", StateInService, testStamp)
	seedTurn(t, dbService, ws.ID, 3, "CCC333", StateFinalized, testStamp)

	active, err := dbService.Active(ws.ID)
	require.NoError(t, err, "Active must not error")
	require.Len(t, active, 2, "terminal turns should be excluded")
	assert.Equal(t, int64(1), active[0].TurnNumber, "listing should be ordered by turn number")
	assert.Equal(t, int64(2), active[1].TurnNumber)
}

func TestByPlateSubstring(t *testing.T) {
	t.Parallel()
	dbService, err := Setup(database.DB)
	require.NoError(t, err, "Setup must not error")
	ws := seedWorkshop(t)

	seedTurn(t, dbService, ws.ID, 1, "ABC123", StateFinalized, testStamp)
	seedTurn(t, dbService, ws.ID, 2, "ABD456", StateWaiting, testStamp)
	seedTurn(t, dbService, ws.ID, 3, "XYZ789", StateWaiting, testStamp)

	matches, err := dbService.ByPlateSubstring(ws.ID, "ab")
	require.NoError(t, err, "ByPlateSubstring must not error")
	assert.Len(t, matches, 2, "matching is case-insensitive and includes terminal turns")

	none, err := dbService.ByPlateSubstring(ws.ID, "QQQ")
	require.NoError(t, err, "ByPlateSubstring must not error")
	assert.Empty(t, none)
}

func TestFindAndLock(t *testing.T) {
	t.Parallel()
	dbService, err := Setup(database.DB)
	require.NoError(t, err, "Setup must not error")
	ws := seedWorkshop(t)

	d := seedTurn(t, dbService, ws.ID, 1, "ABC123", StateWaiting, testStamp)

	inTestTx(t, func(tx *sql.Tx) error {
		found, errFind := dbService.Find(context.Background(), tx, d.ID)
		require.NoError(t, errFind, "Find must not error")
		assert.Equal(t, ws.ID, found.WorkshopID)

		locked, errLock := dbService.Lock(context.Background(), tx, d.ID)
		require.NoError(t, errLock, "Lock must not error")
		assert.Equal(t, d.ID, locked.ID)

		_, errFind = dbService.Find(context.Background(), tx, "ffffffff-0000-0000-0000-000000000000")
		assert.ErrorIs(t, errFind, ErrTurnNotFound)
		return nil
	})
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()
	assert.False(t, (&Details{State: StateWaiting}).IsTerminal())
	assert.False(t, (&Details{State: StateInService}).IsTerminal())
	assert.True(t, (&Details{State: StateFinalized}).IsTerminal())
	assert.True(t, (&Details{State: StateCancelled}).IsTerminal())
}
