package config

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-rls/rls"
)

func load(t *testing.T, fs afero.Fs, configFile string, args ...string) *Config {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	RegisterPersistentFlags(flags)
	require.NoError(t, flags.Parse(args))

	l := NewLoader(fs)
	require.NoError(t, l.BindFlags(flags))
	require.NoError(t, l.ReadConfigFile(configFile))
	return l.Config()
}

func TestDefaults(t *testing.T) {
	c := load(t, afero.NewMemMapFs(), "")

	assert.Equal(t, DefaultSchemaPath, c.SchemaPath)
	assert.Equal(t, DefaultMigrationDir, c.MigrationsDir)
	assert.Equal(t, rls.DefaultIsolationSetting, c.IsolationSetting)
	assert.Equal(t, rls.DefaultBypassSetting, c.BypassSetting)
	assert.Equal(t, "regex", c.Parser)
	assert.False(t, c.CurrentUser)
	assert.Empty(t, c.ConfigFile)

	o, err := c.Options()
	require.NoError(t, err)
	assert.Equal(t, rls.DefaultOptions(), o)
}

func TestFlags(t *testing.T) {
	c := load(t, afero.NewMemMapFs(), "",
		"--currentSettingIsolation", "app.org_id",
		"--currentSettingBypass", "app.admin",
		"--currentUser",
		"--forceEnable",
		"--policyNaming", "derived",
		"--all",
		"--dry-run",
	)

	o, err := c.Options()
	require.NoError(t, err)
	assert.Equal(t, rls.Options{
		IsolationSetting: "app.org_id",
		CurrentUser:      true,
		BypassSetting:    "app.admin",
		ForceEnable:      true,
		PolicyNaming:     rls.PolicyNamingDerived,
		Mode:             rls.ModeAll,
		DryRun:           true,
	}, o)
}

func TestLegacyIsolationFlag(t *testing.T) {
	c := load(t, afero.NewMemMapFs(), "", "--currentSetting", "app.legacy")
	assert.Equal(t, "app.legacy", c.IsolationSetting)

	c = load(t, afero.NewMemMapFs(), "", "--currentSetting", "app.legacy", "--currentSettingIsolation", "app.new")
	assert.Equal(t, "app.new", c.IsolationSetting)
}

func TestNoBypass(t *testing.T) {
	c := load(t, afero.NewMemMapFs(), "", "--noBypass")
	assert.Empty(t, c.BypassSetting)

	c = load(t, afero.NewMemMapFs(), "", "--currentSettingBypass=")
	assert.Empty(t, c.BypassSetting)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("PRISMA_RLS_CURRENT_SETTING_ISOLATION", "app.env_tenant")
	t.Setenv("PRISMA_RLS_ALL", "true")
	t.Setenv("DATABASE_URL", "postgres://localhost/app")

	c := load(t, afero.NewMemMapFs(), "")
	assert.Equal(t, "app.env_tenant", c.IsolationSetting)
	assert.True(t, c.All)
	assert.Equal(t, "postgres://localhost/app", c.DatabaseURL)

	c = load(t, afero.NewMemMapFs(), "", "--currentSettingIsolation", "app.flag")
	assert.Equal(t, "app.flag", c.IsolationSetting)
}

func TestConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/.prisma-rls.yaml", []byte(`
schema: db/schema.prisma
migrations: db/migrations
current_setting_isolation: app.file_tenant
force_enable: true
parser: pg_query
`), 0o644))

	c := load(t, fs, "/project/.prisma-rls.yaml")
	assert.Equal(t, "db/schema.prisma", c.SchemaPath)
	assert.Equal(t, "db/migrations", c.MigrationsDir)
	assert.Equal(t, "app.file_tenant", c.IsolationSetting)
	assert.True(t, c.ForceEnable)
	assert.Equal(t, "pg_query", c.Parser)
	assert.Equal(t, "/project/.prisma-rls.yaml", c.ConfigFile)

	c = load(t, fs, "/project/.prisma-rls.yaml", "--parser", "regex")
	assert.Equal(t, "regex", c.Parser)
}

func TestDotEnvFiles(t *testing.T) {
	unsetenv(t, "PRISMA_RLS_DATABASE_URL", "PRISMA_RLS_POLICY_NAMING")
	t.Setenv("PRISMA_RLS_CURRENT_USER", "true")

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".env", []byte(
		"PRISMA_RLS_DATABASE_URL=postgres://dotenv/app\n"+
			"PRISMA_RLS_POLICY_NAMING=derived\n"+
			"PRISMA_RLS_CURRENT_USER=false\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, ".env.local", []byte(
		"PRISMA_RLS_DATABASE_URL=postgres://local/app\n"), 0o644))

	require.NoError(t, NewLoader(fs).LoadDotEnv())
	c := load(t, fs, "")
	assert.Equal(t, "postgres://local/app", c.DatabaseURL)
	assert.Equal(t, "derived", c.PolicyNaming)
	assert.True(t, c.CurrentUser)
}

func TestDotEnvMissing(t *testing.T) {
	assert.NoError(t, NewLoader(afero.NewMemMapFs()).LoadDotEnv())
}

// unsetenv clears keys for the test and restores them afterwards.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestMissingExplicitConfigFile(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)

	l := NewLoader(afero.NewMemMapFs())
	require.NoError(t, l.BindFlags(flags))
	assert.Error(t, l.ReadConfigFile("/nope/.prisma-rls.yaml"))
}

func TestInvalidOptions(t *testing.T) {
	c := load(t, afero.NewMemMapFs(), "", "--policyNaming", "random")
	_, err := c.Options()
	assert.Error(t, err)
}
