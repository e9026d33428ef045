package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"serve", "sweep", "migrate"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestMigrateCommand(t *testing.T) {
	t.Setenv("DONGIBUYEO_FAKE_BANK", "true")
	t.Setenv("DONGIBUYEO_DB_PATH", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("DONGIBUYEO_LOG_LEVEL", "error")

	for _, args := range [][]string{{"migrate"}, {"migrate", "version"}} {
		cmd := newRootCommand()
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
}

func TestSweepCommandOnEmptyDatabase(t *testing.T) {
	t.Setenv("DONGIBUYEO_FAKE_BANK", "true")
	t.Setenv("DONGIBUYEO_DB_PATH", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("DONGIBUYEO_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"sweep", "--refunds"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out.String(), "CONSUMPTION_COFFEE") {
		t.Errorf("output missing coffee sweep: %s", out.String())
	}
}
