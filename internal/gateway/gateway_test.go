package gateway_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zendo/internal/gateway"
	"zendo/internal/remote"
	"zendo/internal/service"
	"zendo/internal/session"
	"zendo/internal/snapshot"
	"zendo/internal/storage"
	"zendo/internal/storage/filekv"
	"zendo/internal/testutil"
)

var (
	errDown      = &remote.Failure{Reason: remote.Unreachable, Err: errors.New("connection refused")}
	errRejected  = &remote.Failure{Reason: remote.Rejected, Status: 500}
	errMalformed = &remote.Failure{Reason: remote.Malformed, Status: 200}
	errAuth      = &remote.Failure{Reason: remote.Unauthorized, Status: 401}
)

// countingNav records re-auth requests.
type countingNav struct {
	mu sync.Mutex
	n  int
}

func (c *countingNav) ReauthRequired() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingNav) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// countingCreds wraps a session and counts ClearCredential calls.
type countingCreds struct {
	*session.Session
	cleared int
}

func (c *countingCreds) ClearCredential() error {
	c.cleared++
	return c.Session.ClearCredential()
}

type fixture struct {
	remote *testutil.FakeService
	kv     *filekv.Store
	local  *snapshot.Store
	creds  *countingCreds
	nav    *countingNav
	gw     *gateway.Gateway
}

func newFixture(t *testing.T, opts gateway.Options) *fixture {
	t.Helper()
	kv := filekv.New(t.TempDir())
	f := &fixture{
		remote: testutil.NewFakeRemote(),
		kv:     kv,
		local:  snapshot.New(kv),
		creds:  &countingCreds{Session: session.New(kv)},
		nav:    &countingNav{},
	}
	f.gw = gateway.New(f.remote, f.local, f.creds, f.nav, nil, opts)
	return f
}

func (f *fixture) seedLocal(t *testing.T, tasks ...service.Task) {
	t.Helper()
	require.NoError(t, f.local.Save(tasks))
}

func (f *fixture) localTasks(t *testing.T) []service.Task {
	t.Helper()
	tasks, err := f.local.Load()
	require.NoError(t, err)
	return tasks
}

func task(id, title string) service.Task {
	return service.Task{
		ID:        id,
		Title:     title,
		Priority:  service.PriorityMedium,
		Category:  "Personal",
		CreatedAt: 1700000000000,
	}
}

func ptr[T any](v T) *T { return &v }

func TestList_RemoteSuccess(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.AddTask(task("r1", "Remote task"))

	tasks, err := f.gw.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "r1", tasks[0].ID)
}

func TestList_RemoteSuccessDoesNotTouchSnapshot(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.AddTask(task("r1", "Remote task"))
	f.seedLocal(t, task("l1", "Local task"))

	before, ok, err := f.kv.Get(storage.KeyTasks)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.gw.List(context.Background())
	require.NoError(t, err)

	after, _, err := f.kv.Get(storage.KeyTasks)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestList_RefreshCacheOnRead(t *testing.T) {
	f := newFixture(t, gateway.Options{RefreshCacheOnRead: true})
	f.remote.AddTask(task("r1", "Remote task"))
	f.seedLocal(t, task("l1", "Local task"))

	_, err := f.gw.List(context.Background())
	require.NoError(t, err)

	local := f.localTasks(t)
	require.Len(t, local, 1)
	assert.Equal(t, "r1", local[0].ID)
}

func TestList_FallbackOnEveryFailureKind(t *testing.T) {
	for name, failure := range map[string]error{
		"unreachable": errDown,
		"rejected":    errRejected,
		"malformed":   errMalformed,
		"raw error":   context.DeadlineExceeded,
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, gateway.Options{})
			f.remote.ListErr = failure
			f.seedLocal(t, task("a", "Local"))

			tasks, err := f.gw.List(context.Background())
			require.NoError(t, err)
			require.Len(t, tasks, 1)
			assert.Equal(t, "a", tasks[0].ID)
			assert.Zero(t, f.nav.count())
		})
	}
}

func TestList_FallbackWithoutSnapshotIsEmpty(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.ListErr = errDown

	tasks, err := f.gw.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestList_FallbackCorruptSnapshotIsError(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.FailAll(errDown)
	require.NoError(t, f.kv.Set(storage.KeyTasks, "[{"))

	tasks, err := f.gw.List(context.Background())
	assert.ErrorContains(t, err, "parse snapshot")
	assert.Nil(t, tasks)

	raw, ok, err := f.kv.Get(storage.KeyTasks)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[{", raw)
}

func TestCreate_RemoteReturnsCanonicalRecord(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.CreateID = func(service.Task) string { return "server-id" }

	got, err := f.gw.Create(context.Background(), task("client-id", "Buy milk"))
	require.NoError(t, err)
	assert.Equal(t, "server-id", got.ID)
	assert.Empty(t, f.localTasks(t))
}

func TestCreate_FallbackRoundTrip(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.FailAll(errDown)

	in := service.Task{
		ID:        "m1",
		Title:     "Buy milk",
		Priority:  service.PriorityLow,
		Category:  "Personal",
		Completed: false,
		CreatedAt: 1700000000001,
	}
	got, err := f.gw.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	tasks, err := f.gw.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, in, tasks[0])
}

func TestCreate_FallbackAppends(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.FailAll(errRejected)
	f.seedLocal(t, task("a", "First"))

	_, err := f.gw.Create(context.Background(), task("b", "Second"))
	require.NoError(t, err)

	local := f.localTasks(t)
	require.Len(t, local, 2)
	assert.Equal(t, "a", local[0].ID)
	assert.Equal(t, "b", local[1].ID)
}

func TestUpdate_RemoteSuccess(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.AddTask(task("x", "Remote"))

	got, err := f.gw.Update(context.Background(), "x", service.Patch{Completed: ptr(true)})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Completed)
}

func TestUpdate_RemoteNotFoundSkipsFallback(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.seedLocal(t, task("x", "Local copy"))

	got, err := f.gw.Update(context.Background(), "x", service.Patch{Completed: ptr(true)})
	require.NoError(t, err)
	assert.Nil(t, got)

	local := f.localTasks(t)
	require.Len(t, local, 1)
	assert.False(t, local[0].Completed, "remote not-found must not mutate the snapshot")
}

func TestUpdate_FallbackMergesOnlyPatchedField(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.FailAll(errDown)
	orig := task("a", "Write report")
	orig.Priority = service.PriorityHigh
	orig.Category = "Work"
	orig.Subtasks = []string{"outline", "draft"}
	f.seedLocal(t, orig, task("b", "Other"))

	got, err := f.gw.Update(context.Background(), "a", service.Patch{Completed: ptr(true)})
	require.NoError(t, err)
	require.NotNil(t, got)

	want := orig
	want.Completed = true
	assert.Equal(t, want, *got)

	local := f.localTasks(t)
	assert.Equal(t, want, local[0])
	assert.Equal(t, task("b", "Other"), local[1])
}

func TestUpdate_FallbackAttachesSubtasks(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.FailAll(errDown)
	f.seedLocal(t, task("a", "Plan trip"))

	subtasks := []string{"book flight", "book hotel", "pack"}
	got, err := f.gw.Update(context.Background(), "a", service.Patch{Subtasks: &subtasks})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, subtasks, got.Subtasks)

	// A later unrelated patch keeps the subtasks.
	got, err = f.gw.Update(context.Background(), "a", service.Patch{Title: ptr("Plan summer trip")})
	require.NoError(t, err)
	assert.Equal(t, subtasks, got.Subtasks)
}

func TestUpdate_FallbackMissingID(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.FailAll(errDown)
	f.seedLocal(t, task("a", "Only"))

	got, err := f.gw.Update(context.Background(), "zzz", service.Patch{Completed: ptr(true)})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, []service.Task{task("a", "Only")}, f.localTasks(t))
}

func TestDelete_RemoteSuccess(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.AddTask(task("a", "Remote"))
	f.seedLocal(t, task("a", "Local"))

	require.NoError(t, f.gw.Delete(context.Background(), "a"))
	assert.Empty(t, f.remote.Tasks())
	assert.Len(t, f.localTasks(t), 1, "remote success must not touch the snapshot")
}

func TestDelete_FallbackRemovesRecord(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.FailAll(errDown)
	f.seedLocal(t, task("a", "First"), task("b", "Second"))

	require.NoError(t, f.gw.Delete(context.Background(), "a"))

	tasks, err := f.gw.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "b", tasks[0].ID)
}

func TestDelete_FallbackMissingIDIsNoop(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.FailAll(errDown)
	seed := []service.Task{task("a", "First"), task("b", "Second")}
	f.seedLocal(t, seed...)

	require.NoError(t, f.gw.Delete(context.Background(), "nope"))
	assert.Equal(t, seed, f.localTasks(t))
}

func TestAuthRejection_ClearsCredentialAndFallsBack(t *testing.T) {
	ops := map[string]func(*gateway.Gateway) error{
		"list": func(g *gateway.Gateway) error {
			tasks, err := g.List(context.Background())
			if err == nil && len(tasks) != 1 {
				return errors.New("expected fallback collection")
			}
			return err
		},
		"create": func(g *gateway.Gateway) error {
			_, err := g.Create(context.Background(), task("n", "New"))
			return err
		},
		"update": func(g *gateway.Gateway) error {
			got, err := g.Update(context.Background(), "a", service.Patch{Title: ptr("Renamed")})
			if err == nil && (got == nil || got.Title != "Renamed") {
				return errors.New("expected fallback merge")
			}
			return err
		},
		"delete": func(g *gateway.Gateway) error {
			return g.Delete(context.Background(), "a")
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, gateway.Options{})
			f.remote.FailAll(errAuth)
			f.seedLocal(t, task("a", "Local"))
			require.NoError(t, f.creds.SetCredential("tok", service.User{ID: "1", Username: "ann"}))

			require.NoError(t, op(f.gw))

			assert.Equal(t, 1, f.creds.cleared)
			assert.Equal(t, 1, f.nav.count())
			assert.False(t, f.creds.LoggedIn())
			assert.Empty(t, f.creds.AuthHeader())

			_, ok, err := f.kv.Get(storage.KeyToken)
			require.NoError(t, err)
			assert.False(t, ok, "persisted token must be removed")
		})
	}
}

func TestNonAuthFailure_KeepsCredential(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.FailAll(errRejected)
	require.NoError(t, f.creds.SetCredential("tok", service.User{}))

	_, err := f.gw.List(context.Background())
	require.NoError(t, err)

	assert.Zero(t, f.creds.cleared)
	assert.Zero(t, f.nav.count())
	assert.Equal(t, "Bearer tok", f.creds.AuthHeader())
}

func TestConcurrentFallbackCreates_NoLostUpdates(t *testing.T) {
	f := newFixture(t, gateway.Options{})
	f.remote.FailAll(errDown)

	const n = 20
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.gw.Create(context.Background(), service.NewTask("task", service.PriorityLow, "Personal"))
			assert.NoError(t, err, "create %d", i)
		}()
	}
	wg.Wait()

	assert.Len(t, f.localTasks(t), n)
}

func TestNavigatorFunc(t *testing.T) {
	called := false
	var nav gateway.Navigator = gateway.NavigatorFunc(func() { called = true })
	nav.ReauthRequired()
	assert.True(t, called)
}
