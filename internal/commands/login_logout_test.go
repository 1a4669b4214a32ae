package commands_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/session"
)

func TestLoginCommand_WithFlags(t *testing.T) {
	f := newFixture(t, "hunter2\n")
	f.env.Creds.Clear()
	f.svc.AddUser("alice", "hunter2")
	f.svc.LoginToken = "issued-token"

	stdout, stderr, code := f.run(t, &commands.LoginCmd{}, "--username", "alice")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "Logged in successfully\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if f.env.Creds.Raw() != "issued-token" {
		t.Errorf("expected token to be stored, got %q", f.env.Creds.Raw())
	}
	routes := f.nav.Routes()
	if len(routes) != 1 || routes[0] != session.RouteDashboard {
		t.Errorf("expected navigation to dashboard, got %v", routes)
	}

	// The token survives a restart.
	data, err := os.ReadFile(f.env.Cfg.TokenPath())
	if err != nil || !strings.Contains(string(data), "issued-token") {
		t.Errorf("expected token file, got %q (%v)", data, err)
	}
}

func TestLoginCommand_Prompts(t *testing.T) {
	f := newFixture(t, "alice\nhunter2\n")
	f.svc.AddUser("alice", "hunter2")

	_, stderr, code := f.run(t, &commands.LoginCmd{})

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stderr, "Username: ") || !strings.Contains(stderr, "Password: ") {
		t.Errorf("expected prompts on stderr, got %q", stderr)
	}
}

func TestLoginCommand_PasswordFile(t *testing.T) {
	f := newFixture(t, "")
	f.svc.AddUser("alice", "from-file")
	path := filepath.Join(t.TempDir(), "pw")
	if err := os.WriteFile(path, []byte("from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := f.run(t, &commands.LoginCmd{}, "-u", "alice", "--password-file", path)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stderr != "" {
		t.Errorf("expected no prompts, got %q", stderr)
	}
}

func TestLoginCommand_WrongPassword(t *testing.T) {
	f := newFixture(t, "nope\n")
	f.env.Creds.Clear()
	f.svc.AddUser("alice", "hunter2")

	stdout, stderr, code := f.run(t, &commands.LoginCmd{}, "-u", "alice")

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.HasSuffix(stderr, "error: Login failed\n") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if f.env.Creds.Present() {
		t.Error("expected no token")
	}
	if len(f.nav.Routes()) != 0 {
		t.Errorf("expected no navigation, got %v", f.nav.Routes())
	}
}

func TestLoginCommand_EmptyPassword(t *testing.T) {
	f := newFixture(t, "\n")

	_, stderr, code := f.run(t, &commands.LoginCmd{}, "-u", "alice")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasSuffix(stderr, "error: password required\n") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if len(f.svc.Calls()) != 0 {
		t.Errorf("expected no backend calls, got %v", f.svc.Calls())
	}
}

func TestSignupCommand(t *testing.T) {
	f := newFixture(t, "secret\nsecret\n")

	stdout, stderr, code := f.run(t, &commands.SignupCmd{}, "-u", "bob")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "Account created Successfully\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if !strings.Contains(stderr, "Confirm password: ") {
		t.Errorf("expected confirmation prompt, got %q", stderr)
	}
}

func TestSignupCommand_Mismatch(t *testing.T) {
	f := newFixture(t, "secret\nsecrets\n")

	_, stderr, code := f.run(t, &commands.SignupCmd{}, "-u", "bob")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasSuffix(stderr, "error: confirm password does not match\n") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if len(f.svc.Calls()) != 0 {
		t.Errorf("expected no backend calls, got %v", f.svc.Calls())
	}
}

func TestSignupCommand_Taken(t *testing.T) {
	f := newFixture(t, "secret\nsecret\n")
	f.svc.AddUser("bob", "other")

	_, stderr, code := f.run(t, &commands.SignupCmd{}, "-u", "bob")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.HasSuffix(stderr, "error: Signup failed\n") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestLogoutCommand(t *testing.T) {
	f := newFixture(t, "")

	stdout, stderr, code := f.run(t, &commands.LogoutCmd{})

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "Logged out\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if f.env.Creds.Present() {
		t.Error("expected credential to be cleared")
	}
	if _, err := os.Stat(f.env.Cfg.TokenPath()); !os.IsNotExist(err) {
		t.Errorf("expected token file to be removed, got %v", err)
	}
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	f := newFixture(t, "")
	f.env.Creds.Clear()

	stdout, _, code := f.run(t, &commands.LogoutCmd{})

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "not logged in\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

func TestLoginCommand_GoogleNoOAuthClient(t *testing.T) {
	f := newFixture(t, "")
	f.env.Cfg.Backend = config.BackendGoogleTasks

	stdout, stderr, code := f.run(t, &commands.LoginCmd{})

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "oauth_client.json not found") {
		t.Errorf("expected setup instructions, got %q", stderr)
	}
}

func TestLogoutCommand_Google(t *testing.T) {
	f := newFixture(t, "")
	f.env.Cfg.Backend = config.BackendGoogleTasks
	if err := os.WriteFile(f.env.Cfg.GoogleTokenPath(), []byte(`{"access_token":"x"}`), 0600); err != nil {
		t.Fatal(err)
	}

	stdout, _, code := f.run(t, &commands.LogoutCmd{})

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if f.env.Cfg.HasGoogleToken() {
		t.Error("expected google token to be removed")
	}

	stdout, _, _ = f.run(t, &commands.LogoutCmd{})
	if stdout != "not logged in\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

func TestSignupCommand_GoogleUnsupported(t *testing.T) {
	f := newFixture(t, "")
	f.env.Cfg.Backend = config.BackendGoogleTasks

	_, _, code := f.run(t, &commands.SignupCmd{})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
}
