package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"zendo/internal/cli"
	"zendo/internal/commands"
	"zendo/internal/config"
	"zendo/internal/exitcode"
	"zendo/internal/gateway"
	"zendo/internal/remote"
	"zendo/internal/service"
	"zendo/internal/session"
	"zendo/internal/snapshot"
	"zendo/internal/storage/filekv"
	"zendo/internal/testutil"
)

// testFactory creates an env factory that serves the given FakeService.
func testFactory(svc *testutil.FakeService) cli.EnvFactory {
	return func(ctx context.Context, cfg *config.Config, nav gateway.Navigator) (*commands.Env, func(), error) {
		return &commands.Env{Tasks: svc, Session: session.New(nil)}, nil, nil
	}
}

// run dispatches args with an isolated config directory.
func run(t *testing.T, factory cli.EnvFactory, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"ZENDO_API_URL", "ZENDO_BACKEND", "GEMINI_API_KEY", "API_KEY"} {
		t.Setenv(k, "")
	}

	var outBuf, errBuf bytes.Buffer
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)
	code = dispatcher.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeService()), "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeService()), "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	stdout, stderr, code := run(t, nil, "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	stdout, stderr, code := run(t, nil, "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "zendo 0.1.0\n" {
		t.Errorf("expected 'zendo 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	_, stderr, code := run(t, nil, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: --unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_MissingFlagValue(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeService()), "edit", "1", "--title")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: --title\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NoArgsListsTasks(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "a", Title: "Buy milk", Priority: service.PriorityLow, Category: "Personal"})

	stdout, stderr, code := run(t, testFactory(svc))

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	expected := "   1  [ ] Buy milk  (low, Personal)\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestDispatcher_FlagsAfterTitle(t *testing.T) {
	svc := testutil.NewFakeService()

	_, stderr, code := run(t, testFactory(svc), "add", "Buy", "milk", "-p", "high", "--category", "Errands")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Buy milk" || got.Priority != service.PriorityHigh || got.Category != "Errands" {
		t.Errorf("unexpected task: %+v", got)
	}
}

func TestDispatcher_FactoryErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"auth", exitcode.Wrap(exitcode.AuthError, errors.New("invalid oauth_client.json")), exitcode.AuthError, "error: auth error: invalid oauth_client.json\n"},
		{"storage", errors.New("open zendo.db: disk full"), exitcode.BackendError, "error: backend error: open zendo.db: disk full\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := func(ctx context.Context, cfg *config.Config, nav gateway.Navigator) (*commands.Env, func(), error) {
				return nil, nil, tt.err
			}
			_, stderr, code := run(t, factory, "list")

			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
			if stderr != tt.wantMsg {
				t.Errorf("expected %q, got %q", tt.wantMsg, stderr)
			}
		})
	}
}

func TestDispatcher_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	if err := writeSettings(dir, "backend: fax\n"); err != nil {
		t.Fatal(err)
	}
	_, stderr, code := run(t, nil, "version", "--config", dir)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "invalid backend") {
		t.Errorf("expected invalid backend error, got %q", stderr)
	}
}

// A rejected credential falls back to the snapshot, tells the user once and
// still succeeds.
func TestDispatcher_ReauthNoticeOnce(t *testing.T) {
	rem := testutil.NewFakeRemote()
	rem.FailAll(&remote.Failure{Reason: remote.Unauthorized, Status: 401})
	kv := filekv.New(t.TempDir())
	local := snapshot.New(kv)
	if err := local.Save([]service.Task{{ID: "a", Title: "Buy milk", Priority: service.PriorityLow, Category: "Personal"}}); err != nil {
		t.Fatal(err)
	}
	sess := session.New(kv)
	if err := sess.SetCredential("stale", service.User{ID: "1"}); err != nil {
		t.Fatal(err)
	}

	factory := func(ctx context.Context, cfg *config.Config, nav gateway.Navigator) (*commands.Env, func(), error) {
		gw := gateway.New(rem, local, sess, nav, nil, gateway.Options{})
		return &commands.Env{Tasks: gw, Session: sess}, nil, nil
	}

	stdout, stderr, code := run(t, factory, "done", "1")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected ok, got %q", stdout)
	}
	if stderr != "session expired (run: zendo login)\n" {
		t.Errorf("expected one notice, got %q", stderr)
	}
	if sess.LoggedIn() {
		t.Error("expected credential to be cleared")
	}
	tasks, err := local.Load()
	if err != nil || len(tasks) != 1 || !tasks[0].Completed {
		t.Errorf("expected completed task in snapshot, got %+v (%v)", tasks, err)
	}
}
