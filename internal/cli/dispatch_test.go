package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"tasker/internal/backend/restapi"
	"tasker/internal/cli"
	"tasker/internal/commands"
	"tasker/internal/config"
	"tasker/internal/exitcode"
	"tasker/internal/service"
	"tasker/internal/testutil"
)

// testFactory creates an API factory that returns the given FakeAPI.
func testFactory(api service.API) cli.APIFactory {
	return func(cfg *config.Config, log *zap.SugaredLogger) (service.API, error) {
		return api, nil
	}
}

type harness struct {
	api      service.API
	tokenDir string
}

// newHarness points the default config dir at a temp dir.
func newHarness(t *testing.T, api service.API) *harness {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	return &harness{api: api, tokenDir: filepath.Join(xdg, config.AppName)}
}

func (h *harness) run(stdin string, args ...string) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(h.api)).WithInput(strings.NewReader(stdin))
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func (h *harness) tokenPath() string {
	return filepath.Join(h.tokenDir, config.TokenFile)
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, stderr, code := h.run("", "login", "--email", "ann@example.com", "--password", "password1")
	if code != exitcode.Success {
		t.Fatalf("login failed (%d): %s", code, stderr)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	h := newHarness(t, testutil.NewFakeAPI())

	_, stderr, code := h.run("", "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	h := newHarness(t, testutil.NewFakeAPI())

	_, stderr, code := h.run("", "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	h := newHarness(t, testutil.NewFakeAPI())

	stdout, stderr, code := h.run("", "help")

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
	h := newHarness(t, testutil.NewFakeAPI())

	stdout, stderr, code := h.run("", "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "tasker 0.1.0\n" {
		t.Errorf("expected 'tasker 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	h := newHarness(t, testutil.NewFakeAPI())

	_, stderr, code := h.run("", "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_MissingFlagValue(t *testing.T) {
	h := newHarness(t, testutil.NewFakeAPI())

	_, stderr, code := h.run("", "list", "--filter")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -filter\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NotLoggedIn(t *testing.T) {
	fake := testutil.NewFakeAPI()
	h := newHarness(t, fake)

	_, stderr, code := h.run("")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	expected := "error: not logged in (run: tasker login)\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
	if fake.TotalCalls() != 0 {
		t.Errorf("expected no requests without a stored token, got %d", fake.TotalCalls())
	}
}

func TestDispatcher_LoginThenDefaultList(t *testing.T) {
	fake := testutil.NewFakeAPI()
	token := fake.AddUser("ann@example.com", "password1")
	fake.AddTask(token, "Buy milk", "", false)
	fake.AddTask(token, "Pay rent", "", true)
	h := newHarness(t, fake)

	stdout, _, code := h.run("", "login", "--email", "ann@example.com", "--password", "password1")
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("login: code %d, stdout %q", code, stdout)
	}
	if _, err := os.Stat(h.tokenPath()); err != nil {
		t.Fatalf("expected token file: %v", err)
	}

	stdout, stderr, code := h.run("")
	if code != exitcode.Success {
		t.Fatalf("list failed (%d): %s", code, stderr)
	}
	for _, want := range []string{"ann@example.com", "[all]", "1 completed, 1 pending", "Buy milk", "Pay rent"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}
}

func TestDispatcher_LoginPromptsOnStdin(t *testing.T) {
	fake := testutil.NewFakeAPI()
	fake.AddUser("ann@example.com", "password1")
	h := newHarness(t, fake)

	stdout, stderr, code := h.run("ann@example.com\npassword1\n", "login")

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d: %s", code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected ok, got %q", stdout)
	}
	if !strings.Contains(stderr, "Email: ") || !strings.Contains(stderr, "Password: ") {
		t.Errorf("expected prompts on stderr, got %q", stderr)
	}
}

func TestDispatcher_LoginInvalidCredentials(t *testing.T) {
	fake := testutil.NewFakeAPI()
	fake.AddUser("ann@example.com", "password1")
	h := newHarness(t, fake)

	_, stderr, code := h.run("", "login", "--email", "ann@example.com", "--password", "wrong")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: invalid email or password\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if _, err := os.Stat(h.tokenPath()); !os.IsNotExist(err) {
		t.Error("expected no token file after a failed login")
	}
}

func TestDispatcher_AlreadyLoggedIn(t *testing.T) {
	fake := testutil.NewFakeAPI()
	fake.AddUser("ann@example.com", "password1")
	h := newHarness(t, fake)
	h.login(t)

	stdout, _, code := h.run("", "login")

	if code != exitcode.Success {
		t.Errorf("expected success, got %d", code)
	}
	if stdout != "already logged in as ann@example.com\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if fake.Calls("Login") != 1 {
		t.Errorf("expected a single login request, got %d", fake.Calls("Login"))
	}
}

func TestDispatcher_RejectedTokenIsRemoved(t *testing.T) {
	fake := testutil.NewFakeAPI()
	fake.AddUser("ann@example.com", "password1")
	h := newHarness(t, fake)

	if err := os.MkdirAll(h.tokenDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(h.tokenPath(), []byte(`{"access_token":"stale","token_type":"Bearer"}`), 0600); err != nil {
		t.Fatal(err)
	}

	_, _, code := h.run("", "list")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if _, err := os.Stat(h.tokenPath()); !os.IsNotExist(err) {
		t.Error("expected rejected token to be removed")
	}
	if fake.Calls("ListTasks") != 0 {
		t.Error("expected no list request with a rejected token")
	}
}

func TestDispatcher_RegisterShortPassword(t *testing.T) {
	fake := testutil.NewFakeAPI()
	h := newHarness(t, fake)

	_, stderr, code := h.run("", "register", "--email", "bob@example.com", "--password", "short")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: password must be at least 8 characters\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if fake.Calls("Register") != 0 {
		t.Error("expected no register request")
	}
}

func TestDispatcher_TaskLifecycle(t *testing.T) {
	fake := testutil.NewFakeAPI()
	fake.AddUser("ann@example.com", "password1")
	h := newHarness(t, fake)
	h.login(t)

	stdout, stderr, code := h.run("", "add", "--description", "2 litres", "Buy", "milk")
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("add: code %d, stdout %q, stderr %q", code, stdout, stderr)
	}

	stdout, _, code = h.run("", "list", "--filter", "pending")
	if code != exitcode.Success || !strings.Contains(stdout, "Buy milk") || !strings.Contains(stdout, "2 litres") {
		t.Fatalf("list pending: code %d, stdout %q", code, stdout)
	}

	stdout, _, code = h.run("", "done", "1")
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("done: code %d, stdout %q", code, stdout)
	}

	stdout, _, code = h.run("", "list", "--filter", "completed")
	if code != exitcode.Success || !strings.Contains(stdout, "[x] Buy milk") {
		t.Fatalf("list completed: code %d, stdout %q", code, stdout)
	}

	stdout, _, code = h.run("", "show", "1")
	if code != exitcode.Success || !strings.Contains(stdout, "status:      completed") {
		t.Fatalf("show: code %d, stdout %q", code, stdout)
	}

	_, stderr, code = h.run("n\n", "rm", "1")
	if code != exitcode.UserError || !strings.Contains(stderr, "error: delete cancelled") {
		t.Fatalf("rm declined: code %d, stderr %q", code, stderr)
	}
	if fake.Calls("DeleteTask") != 0 {
		t.Fatal("expected no delete request after declining")
	}

	stdout, stderr, code = h.run("y\n", "rm", "1")
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("rm: code %d, stdout %q", code, stdout)
	}
	if !strings.Contains(stderr, "Are you sure you want to delete task 1? [y/N] ") {
		t.Errorf("expected confirmation prompt, got %q", stderr)
	}

	stdout, _, _ = h.run("", "list")
	if !strings.Contains(stdout, "No tasks to display") {
		t.Errorf("expected empty placeholder, got %q", stdout)
	}
}

func TestDispatcher_Logout(t *testing.T) {
	fake := testutil.NewFakeAPI()
	fake.AddUser("ann@example.com", "password1")
	h := newHarness(t, fake)
	h.login(t)
	before := fake.TotalCalls()

	stdout, _, code := h.run("", "logout")

	if code != exitcode.Success || stdout != "ok\n" {
		t.Errorf("logout: code %d, stdout %q", code, stdout)
	}
	if fake.TotalCalls() != before {
		t.Error("expected logout to send no request")
	}
	if _, err := os.Stat(h.tokenPath()); !os.IsNotExist(err) {
		t.Error("expected token file to be removed")
	}

	stdout, _, _ = h.run("", "logout")
	if stdout != "not logged in\n" {
		t.Errorf("expected 'not logged in', got %q", stdout)
	}
}

func TestDispatcher_OverHTTP(t *testing.T) {
	fake := testutil.NewFakeAPI()
	srv := testutil.NewServer(t, fake)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	factory := func(cfg *config.Config, log *zap.SugaredLogger) (service.API, error) {
		return restapi.NewWithHTTPClient(srv.URL+"/api", srv.Client(), log), nil
	}
	run := func(args ...string) (string, string, int) {
		var out, errOut bytes.Buffer
		d := cli.NewDispatcher(commands.DefaultRegistry, factory).WithInput(strings.NewReader(""))
		code := d.Run(context.Background(), args, &out, &errOut)
		return out.String(), errOut.String(), code
	}

	if _, stderr, code := run("register", "--email", "ann@example.com", "--password", "password1"); code != exitcode.Success {
		t.Fatalf("register failed (%d): %s", code, stderr)
	}
	if _, stderr, code := run("add", `<b>Tom & "Jerry"</b>`); code != exitcode.Success {
		t.Fatalf("add failed (%d): %s", code, stderr)
	}

	stdout, stderr, code := run("list", "--format", "html")
	if code != exitcode.Success {
		t.Fatalf("list failed (%d): %s", code, stderr)
	}
	if strings.Contains(stdout, "<b>Tom") {
		t.Errorf("expected title to be escaped:\n%s", stdout)
	}
	if !strings.Contains(stdout, "&lt;b&gt;Tom &amp; &#34;Jerry&#34;&lt;/b&gt;") {
		t.Errorf("expected escaped title in output:\n%s", stdout)
	}

	stdout, _, code = run("whoami")
	if code != exitcode.Success || !strings.HasPrefix(stdout, "ann@example.com\n") {
		t.Errorf("whoami: code %d, stdout %q", code, stdout)
	}
}
