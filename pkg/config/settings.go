package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// LocalConfigFile is the project-local developer settings filename.
	LocalConfigFile = "gitgem.local.toml"
	// GlobalConfigFile lives in the global config directory.
	GlobalConfigFile = "config.toml"

	EnvPrefix = "GITGEM"

	BackendExec  = "exec"
	BackendGoGit = "go-git"
)

// Settings holds developer-specific configuration that is NOT committed
// to version control. It is resolved with Viper precedence:
// CLI flags > GITGEM_* environment > gitgem.local.toml > ~/.gitgem/config.toml.
type Settings struct {
	Root     string          `mapstructure:"root"`
	Vendor   string          `mapstructure:"vendor"`
	LogLevel string          `mapstructure:"log-level"`
	Git      GitSettings     `mapstructure:"git"`
	Install  InstallSettings `mapstructure:"install"`
}

type GitSettings struct {
	Backend           string        `mapstructure:"backend"`
	Command           string        `mapstructure:"command"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Retries           uint          `mapstructure:"retries"`
	// AllowFileProtocol lets the exec backend clone submodules that point
	// at local repositories.
	AllowFileProtocol bool          `mapstructure:"allow-file-protocol"`
}

type InstallSettings struct {
	Jobs int `mapstructure:"jobs"`
}

// flagKeys maps command-line flag names onto settings keys.
var flagKeys = map[string]string{
	"root":                    "root",
	"vendor":                  "vendor",
	"log-level":               "log-level",
	"git-backend":             "git.backend",
	"git-command":             "git.command",
	"git-timeout":             "git.timeout",
	"git-retries":             "git.retries",
	"git-allow-file-protocol": "git.allow-file-protocol",
	"jobs":                    "install.jobs",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", "")
	v.SetDefault("vendor", "bundler")
	v.SetDefault("log-level", "info")
	v.SetDefault("git.backend", BackendExec)
	v.SetDefault("git.command", "git")
	v.SetDefault("git.timeout", 10*time.Minute)
	v.SetDefault("git.retries", 2)
	v.SetDefault("git.allow-file-protocol", false)
	v.SetDefault("install.jobs", 4)
}

// LoadSettings resolves developer settings using Viper's merge semantics.
// Flags that were set on the command line take highest precedence.
func LoadSettings(flags *pflag.FlagSet) (*Settings, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}
	globalPath := filepath.Join(home, ".gitgem", GlobalConfigFile)
	return loadSettings(flags, globalPath, LocalConfigFile)
}

// loadSettings is the internal implementation that accepts explicit paths,
// making it testable without touching the real home directory.
func loadSettings(flags *pflag.FlagSet, globalPath, localPath string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	// Lowest priority: global config, ignored if missing.
	if _, err := os.Stat(globalPath); err == nil {
		v.SetConfigFile(globalPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", globalPath, err)
		}
	}

	if _, err := os.Stat(localPath); err == nil {
		v.SetConfigFile(localPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", localPath, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Settings) Validate() error {
	switch s.Git.Backend {
	case BackendExec, BackendGoGit:
	default:
		return fmt.Errorf("git.backend must be %q or %q, got %q", BackendExec, BackendGoGit, s.Git.Backend)
	}
	if s.Install.Jobs < 1 {
		return fmt.Errorf("install.jobs must be at least 1, got %d", s.Install.Jobs)
	}
	if s.Git.Timeout < 0 {
		return fmt.Errorf("git.timeout must not be negative, got %s", s.Git.Timeout)
	}
	return nil
}
