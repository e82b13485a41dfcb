package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	AppName = "subtreesync"

	DefaultBranch       = "main"
	DefaultGitBinary    = "git"
	DefaultPrefixRoot   = "src/projects"
	DefaultTaskfile     = "Taskfile.yml"
	DefaultRegistryFile = "subtree_repos.json"
	DefaultGracePeriod  = 500 * time.Millisecond

	EnvPrefix = "SUBTREESYNC"
)

// Push strategies.
const (
	// PushStrategyPersistent splits into the dated split branch and pushes it as is.
	PushStrategyPersistent = "persistent"
	// PushStrategyEphemeral splits into a throwaway branch, pushes it with a refspec and deletes it.
	PushStrategyEphemeral = "ephemeral"
)

// Settings holds the tool settings read from subtreesync.yaml and SUBTREESYNC_* variables.
type Settings struct {
	RegistryFile  string `mapstructure:"registry_file"`
	GitBinary     string `mapstructure:"git_binary"`
	DefaultBranch string `mapstructure:"default_branch"`
	// PrefixRoot is suggested as the parent directory for new subtrees.
	PrefixRoot string `mapstructure:"prefix_root"`
	// ProtectedPrefixes are refused by remove on top of the built-in unsafe paths.
	ProtectedPrefixes []string         `mapstructure:"protected_prefixes"`
	Taskfile          TaskfileSettings `mapstructure:"taskfile"`
	Push              PushSettings     `mapstructure:"push"`
	Runner            RunnerSettings   `mapstructure:"runner"`

	// Source is the settings file that was read, empty when only defaults apply.
	Source string `mapstructure:"-"`
}

// TaskfileSettings configures the Taskfile.yml patching collaborator.
type TaskfileSettings struct {
	Path    string `mapstructure:"path"`
	Enabled bool   `mapstructure:"enabled"`
}

// PushSettings configures push.
type PushSettings struct {
	Strategy string `mapstructure:"strategy"`
	Rejoin   bool   `mapstructure:"rejoin"`
}

// RunnerSettings configures the command runner.
type RunnerSettings struct {
	Stream      bool          `mapstructure:"stream"`
	GracePeriod time.Duration `mapstructure:"grace_period"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	return &Settings{
		GitBinary:     DefaultGitBinary,
		DefaultBranch: DefaultBranch,
		PrefixRoot:    DefaultPrefixRoot,
		Taskfile:      TaskfileSettings{Path: DefaultTaskfile, Enabled: true},
		Push:          PushSettings{Strategy: PushStrategyPersistent, Rejoin: true},
		Runner:        RunnerSettings{Stream: true, GracePeriod: DefaultGracePeriod},
	}
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("registry_file", filepath.Join(configDir, DefaultRegistryFile))
	v.SetDefault("git_binary", DefaultGitBinary)
	v.SetDefault("default_branch", DefaultBranch)
	v.SetDefault("prefix_root", DefaultPrefixRoot)
	v.SetDefault("protected_prefixes", []string{})
	v.SetDefault("taskfile.path", DefaultTaskfile)
	v.SetDefault("taskfile.enabled", true)
	v.SetDefault("push.strategy", PushStrategyPersistent)
	v.SetDefault("push.rejoin", true)
	v.SetDefault("runner.stream", true)
	v.SetDefault("runner.grace_period", DefaultGracePeriod.String())
}

// LoadSettings reads subtreesync.yaml from configFile, or from the global config
// directory when configFile is empty. A missing global file is not an error.
func LoadSettings(configFile string) (*Settings, error) {
	configDir, err := GetGlobalConfigDir()
	if err != nil {
		return nil, err
	}
	return loadSettings(configDir, configFile)
}

func loadSettings(configDir, configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v, configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
	}

	var settings Settings
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&settings, hook); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	settings.Source = v.ConfigFileUsed()

	if err := settings.normalize(); err != nil {
		return nil, err
	}

	return &settings, nil
}

func (s *Settings) normalize() error {
	if s.DefaultBranch == "" {
		s.DefaultBranch = DefaultBranch
	}
	if s.GitBinary == "" {
		s.GitBinary = DefaultGitBinary
	}
	if s.Taskfile.Path == "" {
		s.Taskfile.Path = DefaultTaskfile
	}

	s.Push.Strategy = strings.ToLower(strings.TrimSpace(s.Push.Strategy))
	switch s.Push.Strategy {
	case "":
		s.Push.Strategy = PushStrategyPersistent
	case PushStrategyPersistent, PushStrategyEphemeral:
	default:
		return fmt.Errorf("invalid push.strategy %q: expected %s or %s", s.Push.Strategy, PushStrategyPersistent, PushStrategyEphemeral)
	}

	if s.Runner.GracePeriod < 0 {
		return fmt.Errorf("invalid runner.grace_period %s: must not be negative", s.Runner.GracePeriod)
	}
	if s.Runner.GracePeriod == 0 {
		s.Runner.GracePeriod = DefaultGracePeriod
	}

	registry, err := ExpandHome(s.RegistryFile)
	if err != nil {
		return err
	}
	s.RegistryFile = registry

	prefixes := make([]string, 0, len(s.ProtectedPrefixes))
	for _, p := range s.ProtectedPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	s.ProtectedPrefixes = prefixes

	return nil
}

// GetGlobalConfigDir returns the global config directory
func GetGlobalConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, ".config", AppName), nil
}

// ExpandHome returns path with a leading ~ expanded
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding home directory: %w", err)
	}

	return filepath.Join(home, path[1:]), nil
}
