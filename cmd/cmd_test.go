package cmd

import (
	"os"
	"strings"
	"testing"
)

func setArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"dormra"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestExecute_UnknownCommand(t *testing.T) {
	setArgs(t, "bogus")

	err := Execute()
	if err == nil {
		t.Fatal("Execute() with unknown command should return error")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("Execute() error = %q, want mention of unknown command", err)
	}
}

func TestExecute_Help(t *testing.T) {
	setArgs(t, "help")

	if err := Execute(); err != nil {
		t.Errorf("Execute() help error = %v", err)
	}
}

func TestExecute_Version(t *testing.T) {
	setArgs(t, "version")

	if err := Execute(); err != nil {
		t.Errorf("Execute() version error = %v", err)
	}
}

func TestExecute_NoArgs(t *testing.T) {
	setArgs(t)

	if err := Execute(); err != nil {
		t.Errorf("Execute() with no args error = %v", err)
	}
}
