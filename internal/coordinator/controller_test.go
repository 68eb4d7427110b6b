package coordinator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/coordinator"
	"todo/internal/editsession"
	"todo/internal/service"
	"todo/internal/testutil"
)

var errBackend = errors.New("connection refused")

// newController returns a loaded controller over svc.
func newController(t *testing.T, svc *testutil.FakeService) (*coordinator.Controller, *testutil.FakeService) {
	t.Helper()
	logger, _ := testutil.NewLogger(t)
	c := coordinator.New(svc, coordinator.WithLogger(logger))
	require.NoError(t, c.Fetch(context.Background()))
	svc.ResetCalls()
	return c, svc
}

func TestNew_StartsLoading(t *testing.T) {
	c := coordinator.New(testutil.NewFakeService())
	assert.True(t, c.Loading())
	assert.Empty(t, c.Tasks())
}

func TestFetch_LoadsTasks(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	svc.AddTask("2", "Walk dog", true)

	c := coordinator.New(svc)
	require.NoError(t, c.Fetch(context.Background()))

	assert.False(t, c.Loading())
	assert.Equal(t, svc.Snapshot(), c.Tasks())
}

func TestFetch_FailureClearsLoadingAndLogs(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	svc.ListTasksErr = errBackend

	logger, hook := testutil.NewLogger(t)
	c := coordinator.New(svc, coordinator.WithLogger(logger))
	err := c.Fetch(context.Background())

	require.Error(t, err)
	var se *service.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, service.OpList, se.Op)
	assert.ErrorIs(t, err, errBackend)

	assert.False(t, c.Loading())
	assert.Empty(t, c.Tasks())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "error fetching tasks", entry.Message)
	assert.Equal(t, service.OpList, entry.Data["op"])
}

func TestAdd_InsertsServerTaskAndClearsInput(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	c, _ := newController(t, svc)

	c.SetInput("  Walk dog ")
	require.NoError(t, c.Add(context.Background()))

	assert.Equal(t, []testutil.Call{{Op: service.OpCreate, Text: "Walk dog"}}, svc.Calls())
	assert.Equal(t, []service.Task{
		{ID: "1", Text: "Buy milk"},
		{ID: "2", Text: "Walk dog"},
	}, c.Tasks())
	assert.Equal(t, "", c.Input())
}

func TestAdd_BlankInputMakesNoCall(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		svc := testutil.NewFakeService()
		c, _ := newController(t, svc)
		c.SetInput(input)

		err := c.Add(context.Background())

		assert.ErrorIs(t, err, coordinator.ErrEmptyText)
		assert.Empty(t, svc.Calls())
		assert.Empty(t, c.Tasks())
		assert.Equal(t, input, c.Input())
	}
}

func TestAdd_FailureKeepsInput(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateTaskErr = errBackend
	c, _ := newController(t, svc)

	c.SetInput("Walk dog")
	err := c.Add(context.Background())

	require.Error(t, err)
	assert.Empty(t, c.Tasks())
	assert.Equal(t, "Walk dog", c.Input())
}

func TestAdd_DuplicateIDIsRefused(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	logger, hook := testutil.NewLogger(t)
	c := coordinator.New(svc, coordinator.WithLogger(logger))
	require.NoError(t, c.Fetch(context.Background()))

	// A store that hands back an id the client already holds.
	err := c.Apply(coordinator.Result{Op: service.OpCreate, Task: service.Task{ID: "1", Text: "Other"}})

	require.NoError(t, err)
	assert.Equal(t, []service.Task{{ID: "1", Text: "Buy milk"}}, c.Tasks())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestToggle_SendsFullTaskWithFlippedFlag(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	c, _ := newController(t, svc)

	require.NoError(t, c.Toggle(context.Background(), "1"))

	calls := svc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, service.OpUpdate, calls[0].Op)
	assert.Equal(t, "1", calls[0].ID)
	require.NotNil(t, calls[0].Patch.Completed)
	require.NotNil(t, calls[0].Patch.Text)
	assert.True(t, *calls[0].Patch.Completed)
	assert.Equal(t, "Buy milk", *calls[0].Patch.Text)

	assert.Equal(t, []service.Task{{ID: "1", Text: "Buy milk", Completed: true}}, c.Tasks())

	require.NoError(t, c.Toggle(context.Background(), "1"))
	assert.Equal(t, []service.Task{{ID: "1", Text: "Buy milk", Completed: false}}, c.Tasks())
}

func TestToggle_FailureLeavesListUnchanged(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	svc.UpdateTaskErr = errBackend
	c, _ := newController(t, svc)

	require.Error(t, c.Toggle(context.Background(), "1"))
	assert.Equal(t, []service.Task{{ID: "1", Text: "Buy milk"}}, c.Tasks())
}

func TestToggle_UnknownTask(t *testing.T) {
	svc := testutil.NewFakeService()
	c, _ := newController(t, svc)

	assert.ErrorIs(t, c.Toggle(context.Background(), "42"), coordinator.ErrUnknownTask)
	assert.Empty(t, svc.Calls())
}

func TestToggle_UsesServerResponse(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	c, _ := newController(t, svc)

	call, ok := c.PrepareToggle("1")
	require.True(t, ok)
	res := call(context.Background())

	// Whatever the store says is authoritative.
	res.Task = service.Task{ID: "1", Text: "Buy milk (server)", Completed: true}
	require.NoError(t, c.Apply(res))
	assert.Equal(t, []service.Task{res.Task}, c.Tasks())
}

func TestDelete_RemovesTask(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	svc.AddTask("2", "Walk dog", false)
	c, _ := newController(t, svc)

	require.NoError(t, c.Delete(context.Background(), "1"))
	assert.Equal(t, []testutil.Call{{Op: service.OpDelete, ID: "1"}}, svc.Calls())
	assert.Equal(t, []service.Task{{ID: "2", Text: "Walk dog"}}, c.Tasks())
}

func TestDelete_FailureKeepsTask(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	svc.DeleteTaskErr = errBackend
	logger, hook := testutil.NewLogger(t)
	c := coordinator.New(svc, coordinator.WithLogger(logger))
	require.NoError(t, c.Fetch(context.Background()))

	err := c.Delete(context.Background(), "1")

	require.Error(t, err)
	assert.Equal(t, []service.Task{{ID: "1", Text: "Buy milk"}}, c.Tasks())
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "error deleting task", entry.Message)
	assert.Equal(t, "1", entry.Data["task_id"])
}

func TestStartEdit_SeedsDraft(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	svc.AddTask("2", "Walk dog", false)
	c, _ := newController(t, svc)

	require.True(t, c.StartEdit("1"))
	c.SetDraft("Buy oat milk")
	require.True(t, c.StartEdit("2"))

	s, ok := c.EditSession()
	require.True(t, ok)
	assert.Equal(t, editsession.Session{TargetID: "2", Draft: "Walk dog"}, s)
	assert.True(t, c.Editing("2"))
	assert.False(t, c.Editing("1"))

	assert.False(t, c.StartEdit("missing"))
	s, _ = c.EditSession()
	assert.Equal(t, "2", s.TargetID)
}

func TestSaveEdit_SendsOnlyText(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", true)
	c, _ := newController(t, svc)

	require.True(t, c.StartEdit("1"))
	c.SetDraft("  Buy oat milk  ")
	require.NoError(t, c.SaveEdit(context.Background()))

	calls := svc.Calls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Patch.Completed)
	require.NotNil(t, calls[0].Patch.Text)
	assert.Equal(t, "Buy oat milk", *calls[0].Patch.Text)

	assert.Equal(t, []service.Task{{ID: "1", Text: "Buy oat milk", Completed: true}}, c.Tasks())
	_, active := c.EditSession()
	assert.False(t, active)
}

func TestSaveEdit_BlankDraftKeepsSession(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	c, _ := newController(t, svc)

	require.True(t, c.StartEdit("1"))
	c.SetDraft("   ")

	assert.ErrorIs(t, c.SaveEdit(context.Background()), coordinator.ErrEmptyText)
	assert.Empty(t, svc.Calls())
	s, active := c.EditSession()
	require.True(t, active)
	assert.Equal(t, "   ", s.Draft)
}

func TestSaveEdit_FailureKeepsDraft(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	svc.UpdateTaskErr = errBackend
	c, _ := newController(t, svc)

	require.True(t, c.StartEdit("1"))
	c.SetDraft("Buy oat milk")
	require.Error(t, c.SaveEdit(context.Background()))

	s, active := c.EditSession()
	require.True(t, active)
	assert.Equal(t, editsession.Session{TargetID: "1", Draft: "Buy oat milk"}, s)
	assert.Equal(t, []service.Task{{ID: "1", Text: "Buy milk"}}, c.Tasks())
}

func TestSaveEdit_NoSession(t *testing.T) {
	c, svc := newController(t, testutil.NewFakeService())
	assert.ErrorIs(t, c.SaveEdit(context.Background()), coordinator.ErrNoEditSession)
	assert.Empty(t, svc.Calls())
}

func TestSaveEdit_DoesNotEndNewerSession(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	svc.AddTask("2", "Walk dog", false)
	c, _ := newController(t, svc)

	require.True(t, c.StartEdit("1"))
	c.SetDraft("Buy oat milk")
	call, ok := c.PrepareSave()
	require.True(t, ok)

	// The user moves on to task 2 while the save is in flight.
	require.True(t, c.StartEdit("2"))
	require.NoError(t, c.Apply(call(context.Background())))

	s, active := c.EditSession()
	require.True(t, active)
	assert.Equal(t, "2", s.TargetID)
	first, _ := c.TaskAt(0)
	assert.Equal(t, "Buy oat milk", first.Text)
}

func TestCancelEdit_NoCallTextUnchanged(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	svc.AddTask("2", "Walk dog", false)
	c, _ := newController(t, svc)

	require.True(t, c.StartEdit("2"))
	c.SetDraft("Walk the cat")
	c.CancelEdit()

	_, active := c.EditSession()
	assert.False(t, active)
	assert.Empty(t, svc.Calls())
	task, _ := c.TaskAt(1)
	assert.Equal(t, "Walk dog", task.Text)
}

func TestResponsesApplyLastWriterWins(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	c, _ := newController(t, svc)

	first, ok := c.PrepareToggle("1")
	require.True(t, ok)
	second, ok := c.PrepareToggle("1")
	require.True(t, ok)

	// Both were prepared from the same state, so both ask for completed=true.
	r1 := first(context.Background())
	r2 := second(context.Background())
	require.NoError(t, c.Apply(r2))
	require.NoError(t, c.Apply(r1))

	assert.Len(t, svc.Calls(), 2)
	assert.Equal(t, []service.Task{{ID: "1", Text: "Buy milk", Completed: true}}, c.Tasks())
}

// blockingService never answers until its context is done.
type blockingService struct{ testutil.FakeService }

func (b *blockingService) ListTasks(ctx context.Context) ([]service.Task, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestFetch_TimesOut(t *testing.T) {
	logger, _ := testutil.NewLogger(t)
	c := coordinator.New(&blockingService{}, coordinator.WithLogger(logger), coordinator.WithTimeout(20*time.Millisecond))

	err := c.Fetch(context.Background())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, c.Loading())
}
