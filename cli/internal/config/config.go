// Package config merges flags, PRISMA_RLS_* environment variables, an
// optional .prisma-rls.yaml file and .env files into one Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/satishbabariya/prisma-rls/migrate/tables"
	"github.com/satishbabariya/prisma-rls/rls"
)

// AppFs is the file system used for schema and migration access.
var AppFs = afero.NewOsFs()

// EnvPrefix prefixes every environment variable read by the tool.
const EnvPrefix = "PRISMA_RLS"

// Viper keys. Flag names use camelCase for compatibility with existing scripts.
const (
	KeySchema           = "schema"
	KeyMigrations       = "migrations"
	KeyIsolation        = "current_setting_isolation"
	KeyLegacyIsolation  = "current_setting"
	KeyCurrentUser      = "current_user"
	KeyBypass           = "current_setting_bypass"
	KeyNoBypass         = "no_bypass"
	KeyForceEnable      = "force_enable"
	KeyPolicyNaming     = "policy_naming"
	KeyAll              = "all"
	KeyParser           = "parser"
	KeyDryRun           = "dry_run"
	KeyInteractive      = "interactive"
	KeyDebug            = "debug"
	KeyNoColor          = "no_color"
	KeyDatabaseURL      = "database_url"
	DefaultSchemaPath   = "./prisma/schema.prisma"
	DefaultMigrationDir = "./prisma/migrations"
)

var flagKeys = map[string]string{
	KeySchema:          "schema",
	KeyMigrations:      "migrations",
	KeyIsolation:       "currentSettingIsolation",
	KeyLegacyIsolation: "currentSetting",
	KeyCurrentUser:     "currentUser",
	KeyBypass:          "currentSettingBypass",
	KeyNoBypass:        "noBypass",
	KeyForceEnable:     "forceEnable",
	KeyPolicyNaming:    "policyNaming",
	KeyAll:             "all",
	KeyParser:          "parser",
	KeyDryRun:          "dry-run",
	KeyInteractive:     "interactive",
	KeyDebug:           "debug",
	KeyNoColor:         "no-color",
	KeyDatabaseURL:     "database-url",
}

// Config holds the resolved settings of one invocation.
type Config struct {
	SchemaPath    string
	MigrationsDir string

	IsolationSetting string
	CurrentUser      bool
	BypassSetting    string
	ForceEnable      bool
	PolicyNaming     string
	All              bool
	Parser           string
	DryRun           bool
	Interactive      bool

	Debug       bool
	NoColor     bool
	DatabaseURL string

	// ConfigFile is the config file that was read, if any.
	ConfigFile string
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("schema", DefaultSchemaPath, "Path to the Prisma schema file")
	fs.String("migrations", DefaultMigrationDir, "Path to the Prisma migrations directory")
	fs.String("currentSettingIsolation", "", fmt.Sprintf("Session setting compared with the RLS column (default %q)", rls.DefaultIsolationSetting))
	fs.String("currentSetting", "", "Alias of --currentSettingIsolation")
	fs.Bool("currentUser", false, "Compare the RLS column with current_user instead of a session setting")
	fs.String("currentSettingBypass", rls.DefaultBypassSetting, "Session setting that enables the bypass policy (empty disables it)")
	fs.Bool("noBypass", false, "Do not create the bypass policy")
	fs.Bool("forceEnable", false, "Also emit FORCE ROW LEVEL SECURITY so table owners are subject to policies")
	fs.String("policyNaming", string(rls.PolicyNamingFixed), `Isolation policy naming: "fixed" (tenant_isolation_policy) or "derived" ("<table>_<column>_policy")`)
	fs.Bool("all", false, "Augment every migration instead of only the latest")
	fs.String("parser", tables.NameRegex, `CREATE TABLE detection: "regex" or "pg_query"`)
	fs.Bool("dry-run", false, "Print the statements without modifying migration files")
	fs.Bool("interactive", false, "Ask before modifying each migration file")
}

// RegisterPersistentFlags adds the flags shared by every command.
func RegisterPersistentFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (default .prisma-rls.yaml in ., ./prisma or ~/.config/prisma-rls)")
	fs.Bool("debug", false, "Enable debug logging")
	fs.Bool("no-color", false, "Disable colored output")
}

// Loader resolves configuration with its own viper instance.
type Loader struct {
	v  *viper.Viper
	fs afero.Fs
}

// NewLoader creates a loader reading files from fs.
func NewLoader(fs afero.Fs) *Loader {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// BindEnv only fails when called without a key.
	_ = v.BindEnv(KeyDatabaseURL, EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	v.SetDefault(KeySchema, DefaultSchemaPath)
	v.SetDefault(KeyMigrations, DefaultMigrationDir)
	v.SetDefault(KeyBypass, rls.DefaultBypassSetting)
	v.SetDefault(KeyPolicyNaming, string(rls.PolicyNamingFixed))
	v.SetDefault(KeyParser, tables.NameRegex)

	return &Loader{v: v, fs: fs}
}

// BindFlags binds every known flag present in flags to its viper key.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// ReadConfigFile reads an explicit config file, or searches the default
// locations when path is empty. A missing default file is not an error.
func (l *Loader) ReadConfigFile(path string) error {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}

	l.v.SetConfigName(".prisma-rls")
	l.v.SetConfigType("yaml")
	l.v.AddConfigPath(".")
	l.v.AddConfigPath("prisma")
	if home, err := homedir.Dir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "prisma-rls"))
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// LoadDotEnv loads .env and then .env.local (higher priority) when present.
// Variables already set in the environment win over .env but not over
// .env.local.
func (l *Loader) LoadDotEnv() error {
	if err := l.loadEnvFile(".env", false); err != nil {
		return err
	}
	return l.loadEnvFile(".env.local", true)
}

func (l *Loader) loadEnvFile(name string, overload bool) error {
	ok, err := afero.Exists(l.fs, name)
	if err != nil || !ok {
		return err
	}
	content, err := afero.ReadFile(l.fs, name)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	vars, err := godotenv.UnmarshalBytes(content)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	for key, value := range vars {
		if _, set := os.LookupEnv(key); set && !overload {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// Load resolves the configuration for a parsed flag set: .env files first,
// then the --config file or a discovered one, then flags and environment.
func Load(fs afero.Fs, flags *pflag.FlagSet) (*Config, error) {
	l := NewLoader(fs)
	if err := l.LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := l.BindFlags(flags); err != nil {
		return nil, err
	}

	var path string
	if f := flags.Lookup("config"); f != nil {
		path = f.Value.String()
	}
	if err := l.ReadConfigFile(path); err != nil {
		return nil, err
	}
	return l.Config(), nil
}

// Config returns the merged configuration.
func (l *Loader) Config() *Config {
	v := l.v

	isolation := v.GetString(KeyIsolation)
	if isolation == "" {
		isolation = v.GetString(KeyLegacyIsolation)
	}
	if isolation == "" {
		isolation = rls.DefaultIsolationSetting
	}

	bypass := v.GetString(KeyBypass)
	if v.GetBool(KeyNoBypass) {
		bypass = ""
	}

	return &Config{
		SchemaPath:       v.GetString(KeySchema),
		MigrationsDir:    v.GetString(KeyMigrations),
		IsolationSetting: isolation,
		CurrentUser:      v.GetBool(KeyCurrentUser),
		BypassSetting:    bypass,
		ForceEnable:      v.GetBool(KeyForceEnable),
		PolicyNaming:     v.GetString(KeyPolicyNaming),
		All:              v.GetBool(KeyAll),
		Parser:           v.GetString(KeyParser),
		DryRun:           v.GetBool(KeyDryRun),
		Interactive:      v.GetBool(KeyInteractive),
		Debug:            v.GetBool(KeyDebug),
		NoColor:          v.GetBool(KeyNoColor),
		DatabaseURL:      v.GetString(KeyDatabaseURL),
		ConfigFile:       v.ConfigFileUsed(),
	}
}

// Options converts the configuration into augmenter options.
func (c *Config) Options() (rls.Options, error) {
	o := rls.Options{
		IsolationSetting: c.IsolationSetting,
		CurrentUser:      c.CurrentUser,
		BypassSetting:    c.BypassSetting,
		ForceEnable:      c.ForceEnable,
		PolicyNaming:     rls.PolicyNaming(c.PolicyNaming),
		Mode:             rls.ModeLatest,
		DryRun:           c.DryRun,
	}
	if c.All {
		o.Mode = rls.ModeAll
	}
	if err := o.Validate(); err != nil {
		return rls.Options{}, err
	}
	return o, nil
}
