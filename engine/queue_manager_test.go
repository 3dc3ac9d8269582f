package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thrasher-corp/tallerd/database"
	"github.com/thrasher-corp/tallerd/database/drivers"
	"github.com/thrasher-corp/tallerd/database/repository/turn"
	"github.com/thrasher-corp/tallerd/database/repository/workshop"
	"github.com/thrasher-corp/tallerd/database/testhelpers"
	"github.com/thrasher-corp/tallerd/engine/subsystem"
)

func TestMain(m *testing.M) {
	var err error
	testhelpers.TempDir, err = os.MkdirTemp("", "tallerd-engine")
	if err != nil {
		fmt.Printf("failed to create temp dir: %v", err)
		os.Exit(1)
	}
	testhelpers.MigrationDir = filepath.Join("..", "database", "migrations")

	dbConn, err := testhelpers.ConnectToDatabase(&database.Config{
		Enabled:           true,
		Driver:            database.DBSQLite3,
		ConnectionDetails: drivers.ConnectionDetails{Database: "engine.db"},
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

var testStart = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// newTestQueueManager returns a running queue manager and a fresh workshop
// with the given capacity. Each test gets its own workshop so turn numbering
// is isolated.
func newTestQueueManager(t *testing.T, capacity int64) (*QueueManager, *workshop.Details, *testclock.Clock) {
	t.Helper()
	clk := testclock.NewClock(testStart)
	m, err := SetupQueueManager(database.DB, nil, clk)
	require.NoError(t, err, "SetupQueueManager must not error")
	require.NoError(t, m.Start(), "Start must not error")
	t.Cleanup(func() {
		if m.IsRunning() {
			assert.NoError(t, m.Stop(), "Stop should not error")
		}
	})

	workshopDB, err := workshop.Setup(database.DB)
	require.NoError(t, err, "workshop.Setup must not error")
	ws := &workshop.Details{Name: "Taller " + t.Name(), Capacity: capacity}
	require.NoError(t, workshopDB.Insert(ws), "workshop Insert must not error")
	return m, ws, clk
}

func newTurnRequest(plate string) *TurnRequest {
	return &TurnRequest{
		CustomerName: "Ana Diaz",
		Phone:        "1134567890",
		VehicleModel: "Toyota Corolla",
		Plate:        plate,
		Problem:      "no arranca",
	}
}

func TestRequestTurnAdmission(t *testing.T) {
	t.Parallel()
	m, ws, _ := newTestQueueManager(t, 3)
	ctx := context.Background()

	t1, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.NoError(t, err, "RequestTurn must not error")
	assert.Equal(t, int64(1), t1.TurnNumber, "first turn should be #1")
	assert.Equal(t, turn.StateInService, t1.State, "first turn should go straight to service")
	assert.False(t, t1.StartedAt.IsZero(), "in-service turn should have started_at set")

	t2, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("DEF456"))
	require.NoError(t, err, "RequestTurn must not error")
	assert.Equal(t, int64(2), t2.TurnNumber, "second turn should be #2")
	assert.Equal(t, turn.StateInService, t2.State, "second turn should go straight to service")

	status, err := m.Status(ctx, ws.ID)
	require.NoError(t, err, "Status must not error")
	require.Len(t, status.InService, 2, "both turns should be in service")
	assert.Equal(t, int64(1), status.InService[0].TurnNumber)
	assert.Equal(t, int64(2), status.InService[1].TurnNumber)
	assert.Empty(t, status.Waiting, "nobody should be waiting")
}

func TestRequestTurnWaiting(t *testing.T) {
	t.Parallel()
	m, ws, clk := newTestQueueManager(t, 2)
	ctx := context.Background()

	for _, plate := range []string{"ABC123", "DEF456"} {
		_, err := m.RequestTurn(ctx, ws.ID, newTurnRequest(plate))
		require.NoError(t, err, "RequestTurn must not error")
		clk.Advance(time.Second)
	}

	t3, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("GHI789"))
	require.NoError(t, err, "RequestTurn must not error")
	assert.Equal(t, int64(3), t3.TurnNumber, "third turn should be #3")
	assert.Equal(t, turn.StateWaiting, t3.State, "turn past capacity should wait")
	assert.True(t, t3.StartedAt.IsZero(), "waiting turn should have no started_at")

	status, err := m.Status(ctx, ws.ID)
	require.NoError(t, err, "Status must not error")
	require.Len(t, status.Waiting, 1, "one turn should be waiting")
	assert.Equal(t, int64(3), status.Waiting[0].TurnNumber)
}

func TestFinalizePromotesOldestWaiting(t *testing.T) {
	t.Parallel()
	m, ws, clk := newTestQueueManager(t, 2)
	ctx := context.Background()

	turns := make([]*turn.Details, 0, 3)
	for _, plate := range []string{"ABC123", "DEF456", "GHI789"} {
		created, err := m.RequestTurn(ctx, ws.ID, newTurnRequest(plate))
		require.NoError(t, err, "RequestTurn must not error")
		turns = append(turns, created)
		clk.Advance(time.Second)
	}

	done, err := m.Finalize(ctx, turns[0].ID)
	require.NoError(t, err, "Finalize must not error")
	assert.Equal(t, turn.StateFinalized, done.State)
	assert.False(t, done.FinalizedAt.IsZero(), "finalized turn should have finalized_at set")

	status, err := m.Status(ctx, ws.ID)
	require.NoError(t, err, "Status must not error")
	require.Len(t, status.InService, 2, "freed bay should be refilled")
	assert.Equal(t, int64(2), status.InService[0].TurnNumber)
	assert.Equal(t, int64(3), status.InService[1].TurnNumber)
	assert.Empty(t, status.Waiting, "waiting queue should be drained")

	promoted, err := m.GetTurn(turns[2].ID)
	require.NoError(t, err, "GetTurn must not error")
	assert.Equal(t, turn.StateInService, promoted.State, "oldest waiter should be promoted")
	assert.False(t, promoted.StartedAt.IsZero(), "promoted turn should have started_at set")
}

// Shrinking capacity below the in-service count must not strand the queue in
// an over-capacity state: freed bays stay empty until the count drops under
// the new limit, and only then does promotion resume.
func TestCapacityShrinkPausesPromotion(t *testing.T) {
	t.Parallel()
	m, ws, clk := newTestQueueManager(t, 2)
	ctx := context.Background()

	turns := make([]*turn.Details, 0, 3)
	for _, plate := range []string{"ABC123", "DEF456", "GHI789"} {
		created, err := m.RequestTurn(ctx, ws.ID, newTurnRequest(plate))
		require.NoError(t, err, "RequestTurn must not error")
		turns = append(turns, created)
		clk.Advance(time.Second)
	}
	require.Equal(t, turn.StateWaiting, turns[2].State)

	workshopDB, err := workshop.Setup(database.DB)
	require.NoError(t, err, "workshop.Setup must not error")
	ws.Capacity = 1
	require.NoError(t, workshopDB.Update(ws), "workshop Update must not error")

	_, err = m.Finalize(ctx, turns[0].ID)
	require.NoError(t, err, "Finalize must not error")

	status, err := m.Status(ctx, ws.ID)
	require.NoError(t, err, "Status must not error")
	require.Len(t, status.InService, 1, "still at the shrunken capacity, nobody may be promoted")
	assert.Equal(t, turns[1].TurnNumber, status.InService[0].TurnNumber)
	require.Len(t, status.Waiting, 1, "waiter should stay queued")
	assert.Equal(t, turns[2].TurnNumber, status.Waiting[0].TurnNumber)

	_, err = m.Finalize(ctx, turns[1].ID)
	require.NoError(t, err, "Finalize must not error")

	status, err = m.Status(ctx, ws.ID)
	require.NoError(t, err, "Status must not error")
	require.Len(t, status.InService, 1, "promotion should resume once under the new limit")
	assert.Equal(t, turns[2].TurnNumber, status.InService[0].TurnNumber)
	assert.Empty(t, status.Waiting)
}

// Two waiters created within the same clock tick share created_at, so the
// lower turn number must win the freed bay.
func TestPromotionTieBreakTurnNumber(t *testing.T) {
	t.Parallel()
	m, ws, _ := newTestQueueManager(t, 1)
	ctx := context.Background()

	t1, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.NoError(t, err, "RequestTurn must not error")
	t2, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("DEF456"))
	require.NoError(t, err, "RequestTurn must not error")
	t3, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("GHI789"))
	require.NoError(t, err, "RequestTurn must not error")
	require.Equal(t, t2.CreatedAt, t3.CreatedAt, "both waiters should share a creation instant")

	_, err = m.Finalize(ctx, t1.ID)
	require.NoError(t, err, "Finalize must not error")

	promoted, err := m.GetTurn(t2.ID)
	require.NoError(t, err, "GetTurn must not error")
	assert.Equal(t, turn.StateInService, promoted.State, "lower turn number should win the bay")

	waiting, err := m.GetTurn(t3.ID)
	require.NoError(t, err, "GetTurn must not error")
	assert.Equal(t, turn.StateWaiting, waiting.State, "higher turn number should keep waiting")
}

func TestRequestTurnDuplicatePlate(t *testing.T) {
	t.Parallel()
	m, ws, _ := newTestQueueManager(t, 3)
	ctx := context.Background()

	t1, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.NoError(t, err, "RequestTurn must not error")

	_, err = m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.Error(t, err, "duplicate plate must be rejected")
	var qErr *Error
	require.ErrorAs(t, err, &qErr, "error should be classified")
	assert.Equal(t, KindDuplicatePlate, qErr.Kind)
	assert.Equal(t, t1.TurnNumber, qErr.ExistingTurnNumber, "rejection should carry the active turn number")

	// normalisation applies before the plate check
	_, err = m.RequestTurn(ctx, ws.ID, newTurnRequest("  abc123 "))
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, KindDuplicatePlate, qErr.Kind)

	_, err = m.Cancel(ctx, t1.ID, "abc123")
	require.NoError(t, err, "Cancel must not error")

	t2, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.NoError(t, err, "plate should be reusable after cancellation")
	assert.Equal(t, int64(2), t2.TurnNumber, "turn numbers are never reused")
}

func TestCancelWaitingNoPromotion(t *testing.T) {
	t.Parallel()
	m, ws, clk := newTestQueueManager(t, 1)
	ctx := context.Background()

	t1, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.NoError(t, err, "RequestTurn must not error")
	clk.Advance(time.Second)
	t2, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("DEF456"))
	require.NoError(t, err, "RequestTurn must not error")
	require.Equal(t, turn.StateWaiting, t2.State)

	cancelled, err := m.Cancel(ctx, t2.ID, "DEF456")
	require.NoError(t, err, "Cancel must not error")
	assert.Equal(t, turn.StateCancelled, cancelled.State)
	assert.False(t, cancelled.CancelledAt.IsZero(), "cancelled turn should have cancelled_at set")

	status, err := m.Status(ctx, ws.ID)
	require.NoError(t, err, "Status must not error")
	require.Len(t, status.InService, 1, "service bay should be untouched")
	assert.Equal(t, t1.TurnNumber, status.InService[0].TurnNumber)
	assert.Empty(t, status.Waiting)
}

func TestCancelInServicePromotes(t *testing.T) {
	t.Parallel()
	m, ws, clk := newTestQueueManager(t, 1)
	ctx := context.Background()

	t1, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.NoError(t, err, "RequestTurn must not error")
	clk.Advance(time.Second)
	t2, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("DEF456"))
	require.NoError(t, err, "RequestTurn must not error")

	_, err = m.Cancel(ctx, t1.ID, "ABC123")
	require.NoError(t, err, "Cancel must not error")

	status, err := m.Status(ctx, ws.ID)
	require.NoError(t, err, "Status must not error")
	require.Len(t, status.InService, 1, "waiter should take the freed bay")
	assert.Equal(t, t2.TurnNumber, status.InService[0].TurnNumber)
	assert.Empty(t, status.Waiting)

	promoted, err := m.GetTurn(t2.ID)
	require.NoError(t, err, "GetTurn must not error")
	assert.False(t, promoted.StartedAt.IsZero(), "promoted turn should have started_at set")
}

func TestFinalizeRejectsNonInService(t *testing.T) {
	t.Parallel()
	m, ws, clk := newTestQueueManager(t, 1)
	ctx := context.Background()

	_, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.NoError(t, err, "RequestTurn must not error")
	clk.Advance(time.Second)
	t2, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("DEF456"))
	require.NoError(t, err, "RequestTurn must not error")
	require.Equal(t, turn.StateWaiting, t2.State)

	_, err = m.Finalize(ctx, t2.ID)
	var qErr *Error
	require.ErrorAs(t, err, &qErr, "finalizing a waiting turn must be rejected")
	assert.Equal(t, KindStateConflict, qErr.Kind)
}

func TestFinalizeTerminalTurn(t *testing.T) {
	t.Parallel()
	m, ws, _ := newTestQueueManager(t, 1)
	ctx := context.Background()

	t1, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.NoError(t, err, "RequestTurn must not error")
	_, err = m.Finalize(ctx, t1.ID)
	require.NoError(t, err, "Finalize must not error")

	_, err = m.Finalize(ctx, t1.ID)
	var qErr *Error
	require.ErrorAs(t, err, &qErr, "double finalize must be rejected")
	assert.Equal(t, KindStateConflict, qErr.Kind)

	_, err = m.Cancel(ctx, t1.ID, "ABC123")
	require.ErrorAs(t, err, &qErr, "cancelling a finalized turn must be rejected")
	assert.Equal(t, KindStateConflict, qErr.Kind)
}

func TestCancelPlateMismatch(t *testing.T) {
	t.Parallel()
	m, ws, _ := newTestQueueManager(t, 1)
	ctx := context.Background()

	t1, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.NoError(t, err, "RequestTurn must not error")

	_, err = m.Cancel(ctx, t1.ID, "ZZZ999")
	var qErr *Error
	require.ErrorAs(t, err, &qErr, "wrong plate must be rejected")
	assert.Equal(t, KindForbidden, qErr.Kind)

	still, err := m.GetTurn(t1.ID)
	require.NoError(t, err, "GetTurn must not error")
	assert.Equal(t, turn.StateInService, still.State, "rejected cancel should not change state")
}

// A wrong plate is rejected as forbidden even when the turn is already
// terminal, so a caller never learns a turn's state without its plate.
func TestCancelTerminalPlateMismatch(t *testing.T) {
	t.Parallel()
	m, ws, _ := newTestQueueManager(t, 1)
	ctx := context.Background()

	t1, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.NoError(t, err, "RequestTurn must not error")
	_, err = m.Finalize(ctx, t1.ID)
	require.NoError(t, err, "Finalize must not error")

	_, err = m.Cancel(ctx, t1.ID, "ZZZ999")
	var qErr *Error
	require.ErrorAs(t, err, &qErr, "wrong plate must be rejected first")
	assert.Equal(t, KindForbidden, qErr.Kind)

	_, err = m.Cancel(ctx, t1.ID, "ABC123")
	require.ErrorAs(t, err, &qErr, "matching plate should surface the terminal state")
	assert.Equal(t, KindStateConflict, qErr.Kind)
}

func TestCancelByPlate(t *testing.T) {
	t.Parallel()
	m, ws, clk := newTestQueueManager(t, 1)
	ctx := context.Background()

	_, err := m.CancelByPlate(ctx, ws.ID, "ABC123")
	var qErr *Error
	require.ErrorAs(t, err, &qErr, "unknown plate must 404")
	assert.Equal(t, KindNotFound, qErr.Kind)

	t1, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("ABC123"))
	require.NoError(t, err, "RequestTurn must not error")
	clk.Advance(time.Second)
	t2, err := m.RequestTurn(ctx, ws.ID, newTurnRequest("DEF456"))
	require.NoError(t, err, "RequestTurn must not error")

	cancelled, err := m.CancelByPlate(ctx, ws.ID, " abc123 ")
	require.NoError(t, err, "CancelByPlate should normalise before matching")
	assert.Equal(t, t1.TurnNumber, cancelled.TurnNumber)

	promoted, err := m.GetTurn(t2.ID)
	require.NoError(t, err, "GetTurn must not error")
	assert.Equal(t, turn.StateInService, promoted.State, "freed bay should be refilled")
}

func TestRequestTurnValidation(t *testing.T) {
	t.Parallel()
	m, ws, _ := newTestQueueManager(t, 1)
	ctx := context.Background()

	for name, mutate := range map[string]func(*TurnRequest){
		"empty name":      func(r *TurnRequest) { r.CustomerName = " " },
		"short phone":     func(r *TurnRequest) { r.Phone = "1234567" },
		"alpha phone":     func(r *TurnRequest) { r.Phone = "11345678ab" },
		"empty model":     func(r *TurnRequest) { r.VehicleModel = "" },
		"blank plate":     func(r *TurnRequest) { r.Plate = "   " },
		"problem too big": func(r *TurnRequest) { r.Problem = string(make([]byte, 256)) },
	} {
		req := newTurnRequest("ABC123")
		mutate(req)
		_, err := m.RequestTurn(ctx, ws.ID, req)
		var qErr *Error
		require.ErrorAsf(t, err, &qErr, "%s must be rejected", name)
		assert.Equalf(t, KindValidation, qErr.Kind, "%s should be a validation error", name)
	}
}

func TestQueueUnknownWorkshop(t *testing.T) {
	t.Parallel()
	m, _, _ := newTestQueueManager(t, 1)
	ctx := context.Background()

	var qErr *Error
	_, err := m.RequestTurn(ctx, "ffffffff-0000-0000-0000-000000000000", newTurnRequest("ABC123"))
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, KindNotFound, qErr.Kind)

	_, err = m.Status(ctx, "ffffffff-0000-0000-0000-000000000000")
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, KindNotFound, qErr.Kind)

	_, err = m.List(ctx, "ffffffff-0000-0000-0000-000000000000", "")
	require.ErrorAs(t, err, &qErr)
	assert.Equal(t, KindNotFound, qErr.Kind)
}

func TestListPlateSubstring(t *testing.T) {
	t.Parallel()
	m, ws, clk := newTestQueueManager(t, 3)
	ctx := context.Background()

	for _, plate := range []string{"AAA111", "AAB222", "CCC333"} {
		_, err := m.RequestTurn(ctx, ws.ID, newTurnRequest(plate))
		require.NoError(t, err, "RequestTurn must not error")
		clk.Advance(time.Second)
	}
	first, err := m.List(ctx, ws.ID, "")
	require.NoError(t, err, "List must not error")
	require.Len(t, first, 3)
	_, err = m.Finalize(ctx, first[2].ID)
	require.NoError(t, err, "Finalize must not error")

	unfiltered, err := m.List(ctx, ws.ID, "")
	require.NoError(t, err, "List must not error")
	assert.Len(t, unfiltered, 2, "unfiltered listing should exclude terminal turns")

	filtered, err := m.List(ctx, ws.ID, "aa")
	require.NoError(t, err, "List must not error")
	assert.Len(t, filtered, 2, "plate search should be case-insensitive")

	history, err := m.List(ctx, ws.ID, "ccc")
	require.NoError(t, err, "List must not error")
	require.Len(t, history, 1, "plate search should include terminal turns")
	assert.Equal(t, turn.StateFinalized, history[0].State)
}

// Turn numbers form a contiguous prefix of the naturals per workshop no
// matter how creation interleaves with cancellation.
func TestTurnNumbersMonotonic(t *testing.T) {
	t.Parallel()
	m, ws, clk := newTestQueueManager(t, 2)
	ctx := context.Background()

	var issued []int64
	for i := 0; i < 5; i++ {
		created, err := m.RequestTurn(ctx, ws.ID, newTurnRequest(fmt.Sprintf("PAT%03d", i)))
		require.NoError(t, err, "RequestTurn must not error")
		issued = append(issued, created.TurnNumber)
		clk.Advance(time.Second)
		if i%2 == 1 {
			_, err = m.Cancel(ctx, created.ID, created.Plate)
			require.NoError(t, err, "Cancel must not error")
		}
	}
	for i := range issued {
		assert.Equal(t, int64(i+1), issued[i], "numbers should never be reused")
	}
}

// Capacity is never exceeded and bays never idle while someone waits, even
// under concurrent load on the same workshop.
func TestQueueConcurrentInvariants(t *testing.T) {
	m, ws, _ := newTestQueueManager(t, 2)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan string, 16)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			created, err := m.RequestTurn(ctx, ws.ID, newTurnRequest(fmt.Sprintf("CON%03d", n)))
			if err == nil {
				ids <- created.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	var finalized int
	for id := range ids {
		if finalized >= 4 {
			break
		}
		if _, err := m.Finalize(ctx, id); err == nil {
			finalized++
			continue
		}
	}

	status, err := m.Status(ctx, ws.ID)
	require.NoError(t, err, "Status must not error")
	assert.LessOrEqual(t, len(status.InService), 2, "capacity must never be exceeded")
	if len(status.InService) < 2 {
		assert.Empty(t, status.Waiting, "no bay may idle while someone waits")
	}
}

func TestQueueManagerLifecycle(t *testing.T) {
	t.Parallel()
	m, _, _ := newTestQueueManager(t, 1)

	err := m.Start()
	assert.ErrorIs(t, err, subsystem.ErrAlreadyStarted, "double start should error")
	require.NoError(t, m.Stop(), "Stop must not error")
	require.Error(t, m.Stop(), "double stop should error")

	_, err = m.RequestTurn(context.Background(), "x", newTurnRequest("ABC123"))
	require.Error(t, err, "stopped manager should reject operations")

	var nilManager *QueueManager
	assert.False(t, nilManager.IsRunning(), "nil manager should not be running")
}
