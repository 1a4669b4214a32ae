package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readLine prompts on errOut and reads one line from env.In.
func readLine(env *Env, label string, errOut io.Writer) (string, error) {
	fmt.Fprint(errOut, label)
	line, err := env.Lines().ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword reads a secret. On a terminal echo is disabled; otherwise a
// line is read from env.In, which lets scripts pipe passwords in.
func readPassword(env *Env, label string, errOut io.Writer) (string, error) {
	if f, ok := env.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(errOut, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(errOut)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	return readLine(env, label, errOut)
}

// readSecretFile reads a password from path; "-" is env.In.
func readSecretFile(env *Env, path string) (string, error) {
	if path == "-" {
		line, err := env.Lines().ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading password from stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading password file: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}
