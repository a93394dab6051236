package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/reflecto/internal/config"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// isolate points HOME and the working directory at temp dirs so command runs
// never touch real config files.
func isolate(t *testing.T) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Chdir(tmp)
}

func TestResolveBaseURLExplicitBaseWins(t *testing.T) {
	c := config.Config{APIBase: "http://example.test:9999", Host: "localhost"}
	base, err := resolveBaseURL(c)
	if err != nil {
		t.Fatalf("resolveBaseURL: %v", err)
	}
	if base != "http://example.test:9999" {
		t.Errorf("base = %q, want explicit api_base", base)
	}
}

func TestResolveBaseURLLocalhost(t *testing.T) {
	base, err := resolveBaseURL(config.Config{Host: "localhost"})
	if err != nil {
		t.Fatalf("resolveBaseURL: %v", err)
	}
	if base != "http://localhost:8000" {
		t.Errorf("base = %q, want http://localhost:8000", base)
	}
}

func TestResolveBaseURLUnknownHostErrors(t *testing.T) {
	_, err := resolveBaseURL(config.Config{Host: "prod.internal"})
	if err == nil {
		t.Fatal("expected an error for an unmapped host")
	}
	if !strings.Contains(err.Error(), "prod.internal") {
		t.Errorf("error should name the host, got: %v", err)
	}
}

func TestReplayRequiresSessionID(t *testing.T) {
	isolate(t)

	_, err := executeCommand(rootCmd, "replay")
	if err == nil {
		t.Fatal("expected an arg-count error from bare replay")
	}
}
