package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskcal/internal/config"
	"github.com/teemow/taskcal/internal/server"
)

func withGlobals(t *testing.T, db, level, format string) {
	t.Helper()
	oldDB, oldLevel, oldFormat, oldEnv := dbPath, logLevel, logFormat, envFile
	t.Cleanup(func() {
		dbPath, logLevel, logFormat, envFile = oldDB, oldLevel, oldFormat, oldEnv
	})
	dbPath, logLevel, logFormat = db, level, format
	envFile = filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(envFile, nil, 0o600))
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	t.Setenv("TASKCAL_DB", "/from/env.db")
	t.Setenv("TASKCAL_LOG_LEVEL", "warn")

	withGlobals(t, "/from/flag.db", "", "json")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/from/flag.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_MissingEnvFile(t *testing.T) {
	withGlobals(t, "", "", "")
	envFile = filepath.Join(t.TempDir(), "missing.env")

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.env")
}

func TestApplyServeFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "no flags keeps config",
			args: nil,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, ":7000", cfg.Server.Addr)
				assert.True(t, cfg.Server.MCP)
				assert.True(t, cfg.Reminders.Enabled)
			},
		},
		{
			name: "explicit flags win",
			args: []string{"--addr", ":9999", "--mcp=false", "--read-only", "--metrics-enabled", "--metrics-addr", ":9191"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, ":9999", cfg.Server.Addr)
				assert.False(t, cfg.Server.MCP)
				assert.True(t, cfg.Server.ReadOnly)
				assert.True(t, cfg.Metrics.Enabled)
				assert.Equal(t, ":9191", cfg.Metrics.Addr)
			},
		},
		{
			name: "no reminders",
			args: []string{"--no-reminders"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.False(t, cfg.Reminders.Enabled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Server.Addr = ":7000"
			cfg.Server.MCP = true

			fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			var f serveFlags
			bindServeFlags(fs, &f)
			require.NoError(t, fs.Parse(tt.args))

			applyServeFlags(fs, cfg, f)
			tt.check(t, cfg)
		})
	}
}

func TestRegisterAllTools(t *testing.T) {
	names := func(readOnly bool) []string {
		sc := server.NewServerContext(context.Background(), server.ServerContextConfig{ReadOnly: readOnly})
		mcpSrv, err := newMCPServer(sc)
		require.NoError(t, err)

		var out []string
		for name := range mcpSrv.ListTools() {
			out = append(out, name)
		}
		slices.Sort(out)
		return out
	}

	assert.Equal(t, []string{
		"calendar_month",
		"notifications_list",
		"notifications_mark_read",
		"tasks_complete",
		"tasks_create",
		"tasks_delete",
		"tasks_get",
		"tasks_list",
		"tasks_update",
	}, names(false))

	assert.Equal(t, []string{
		"calendar_month",
		"notifications_list",
		"tasks_get",
		"tasks_list",
	}, names(true))
}

func TestGenerateDocs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runGenerateDocs(&buf, ""))

	out := buf.String()
	assert.Contains(t, out, "# MCP Tools Reference")
	assert.Contains(t, out, "## Task Tools")
	assert.Contains(t, out, "## Calendar Tools")
	assert.Contains(t, out, "## Notification Tools")
	assert.Contains(t, out, "### tasks_create")
	assert.Contains(t, out, "- `title` (string, required): ")
	assert.Contains(t, out, "taskcal://calendar/{month}")
	assert.NotContains(t, out, "## Other")
}

func TestGenerateDocs_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.md")
	var buf bytes.Buffer
	require.NoError(t, runGenerateDocs(&buf, path))
	assert.Empty(t, buf.String())
	assert.FileExists(t, path)
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "Task Tools", getCategoryFromToolName("tasks_list"))
	assert.Equal(t, "Calendar Tools", getCategoryFromToolName("calendar_month"))
	assert.Equal(t, "Notification Tools", getCategoryFromToolName("notifications_mark_read"))
	assert.Equal(t, "Other", getCategoryFromToolName("unknown"))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "taskcal.db")
	cfg.Auth.BcryptCost = 4
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenApp_RequireSecret(t *testing.T) {
	cfg := testConfig(t)
	_, err := openApp(context.Background(), cfg, discardLogger(), appOptions{requireSecret: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestOpenApp_Principal(t *testing.T) {
	ctx := context.Background()
	a, err := openApp(ctx, testConfig(t), discardLogger(), appOptions{})
	require.NoError(t, err)
	defer a.Close(ctx)

	user, err := a.auth.Register(ctx, "ada@example.com", "Ada", "correct horse battery")
	require.NoError(t, err)

	p, err := a.principal(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, "ada@example.com", p.Email)

	_, err = a.principal(ctx, "")
	assert.Error(t, err)

	_, err = a.principal(ctx, "nobody@example.com")
	assert.Error(t, err)
}
