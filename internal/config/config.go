package config

import (
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "form"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "form"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes the environment variables read as settings.
	EnvPrefix = "FORM"
)

// Setting keys, shared by the config file, the environment and the CLI.
const (
	KeyStyle     = "style"
	KeyRootFile  = "root_file"
	KeyOverwrite = "overwrite"
	KeyLogLevel  = "log_level"
)

var (
	// ValidStyles lists the accepted output styles.
	ValidStyles = []string{"source", "tokens"}
	// ValidLogLevels lists the accepted log levels.
	ValidLogLevels = []string{"debug", "info", "warn", "error"}
)

// ErrConfigNotFound is returned when an explicitly requested config file
// does not exist.
var ErrConfigNotFound = errors.New("config file not found")

//go:embed config_schema.cue
var configSchema string

// Config holds the settings of a form run.
type Config struct {
	Style     string `mapstructure:"style" json:"style"`
	RootFile  string `mapstructure:"root_file" json:"root_file"`
	Overwrite bool   `mapstructure:"overwrite" json:"overwrite"`
	LogLevel  string `mapstructure:"log_level" json:"log_level"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Style:    "source",
		RootFile: "lib.rs",
		LogLevel: "info",
	}
}

// Validate checks values that may have come from the environment, which
// the CUE schema never sees.
func (c *Config) Validate() error {
	if !slices.Contains(ValidStyles, c.Style) {
		return fmt.Errorf("invalid %s %q: must be one of %v", KeyStyle, c.Style, ValidStyles)
	}
	if !slices.Contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid %s %q: must be one of %v", KeyLogLevel, c.LogLevel, ValidLogLevels)
	}
	if c.RootFile == "" || strings.ContainsAny(c.RootFile, `/\`) {
		return fmt.Errorf("invalid %s %q: must be a file name", KeyRootFile, c.RootFile)
	}
	return nil
}

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// Dir is searched for form.cue when ConfigFilePath is empty. Defaults
	// to the working directory.
	Dir string
	// FS is the filesystem config files are read from. Defaults to the OS
	// filesystem.
	FS afero.Fs
}

// Load resolves the configuration and returns it together with the path of
// the config file used, which is empty when none was found.
func Load(opts LoadOptions) (*Config, string, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault(KeyStyle, defaults.Style)
	v.SetDefault(KeyRootFile, defaults.RootFile)
	v.SetDefault(KeyOverwrite, defaults.Overwrite)
	v.SetDefault(KeyLogLevel, defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(fsys, opts.ConfigFilePath) {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		localPath := ConfigFileName + "." + ConfigFileExt
		if opts.Dir != "" {
			localPath = filepath.Join(opts.Dir, localPath)
		}
		// If no config file is found, defaults apply.
		if fileExists(fsys, localPath) {
			resolvedPath = localPath
		}
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, fsys, resolvedPath); err != nil {
			return nil, "", fmt.Errorf("load configuration %s: %w", resolvedPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolvedPath, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, fsys afero.Fs, path string) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return userValue.Err()
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return err
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return err
	}

	// Merging keeps defaults and lets the environment override the file.
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && !info.IsDir()
}
