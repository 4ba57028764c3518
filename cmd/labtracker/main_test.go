package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-lab-sample-tracker/internal/config"
	"go-lab-sample-tracker/internal/connectors/store"
	"go-lab-sample-tracker/internal/lab"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "report", "next-sample"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestNextSampleCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lab.db")
	t.Setenv("APP_DB_DRIVER", "sqlite")
	t.Setenv("APP_SQLITE_PATH", dbPath)
	t.Setenv("APP_LAB_SETTINGS_FILE", "")

	st, err := store.NewStore(config.Config{DBDriver: "sqlite", SQLitePath: dbPath, DBConnTimeout: 5 * time.Second})
	require.NoError(t, err)
	project := lab.Project{ProjectID: "P9", Name: "CLI"}
	require.NoError(t, st.CreateProject(context.Background(), &project))
	require.NoError(t, st.Close())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"next-sample", project.ID, "--prefix", "lp"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "P9-LP1", strings.TrimSpace(out.String()))
}

func TestReportCommandRejectsUnknownKind(t *testing.T) {
	t.Setenv("APP_SQLITE_PATH", filepath.Join(t.TempDir(), "lab.db"))
	rootCmd.SetArgs([]string{"report", "summary", "abc"})
	assert.Error(t, rootCmd.Execute())
}
