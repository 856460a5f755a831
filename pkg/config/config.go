// Package config handles configuration for gaiatest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"gopkg.in/yaml.v3"
)

// Driver backends.
const (
	DriverWebDriver = "webdriver"
	DriverAgouti    = "agouti"
)

// Defaults.
const (
	DefaultServerURL      = "http://localhost:4444"
	DefaultMarionettePort = 2828
	DefaultOutputDir      = "reports"
	DefaultResourceDir    = "resources"
)

// Duration is a time.Duration written as "10s" or "250ms" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", value.Line, s)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the workspace configuration (gaiatest.yaml).
type Config struct {
	// Automation server
	ServerURL    string                 `yaml:"serverUrl"`
	Driver       string                 `yaml:"driver"` // webdriver or agouti
	Capabilities map[string]interface{} `yaml:"capabilities"`

	// Device settings
	Device         string `yaml:"device"`         // adb serial
	MarionettePort int    `yaml:"marionettePort"` // forwarded from the phone when device is set
	RestartB2G     bool   `yaml:"restartB2g"`     // restart the OS shell before the run

	// Waits
	Timeout       Duration `yaml:"timeout"`
	Interval      Duration `yaml:"interval"`
	ScriptTimeout Duration `yaml:"scriptTimeout"`
	LaunchTimeout Duration `yaml:"launchTimeout"`
	StrictLookups bool     `yaml:"strictLookups"` // fail waits on the first missing element

	// Scenario selection
	TestVars    string   `yaml:"testvars"`
	Scenarios   []string `yaml:"scenarios"`
	IncludeTags []string `yaml:"includeTags"`
	ExcludeTags []string `yaml:"excludeTags"`

	// Execution settings
	Retries     int                 `yaml:"retries"`
	StopOnFail  bool                `yaml:"stopOnFail"`
	OutputDir   string              `yaml:"outputDir"`
	ResourceDir string              `yaml:"resourceDir"`
	Artifacts   core.ArtifactConfig `yaml:"artifacts"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		ServerURL:      DefaultServerURL,
		Driver:         DriverWebDriver,
		MarionettePort: DefaultMarionettePort,
		Timeout:        Duration(10 * time.Second),
		Interval:       Duration(100 * time.Millisecond),
		ScriptTimeout:  Duration(30 * time.Second),
		LaunchTimeout:  Duration(30 * time.Second),
		OutputDir:      DefaultOutputDir,
		ResourceDir:    DefaultResourceDir,
		Artifacts:      core.DefaultArtifactConfig(),
	}
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir looks for gaiatest.yaml or gaiatest.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try gaiatest.yaml first
	configPath := filepath.Join(dir, "gaiatest.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try gaiatest.yml
	configPath = filepath.Join(dir, "gaiatest.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	return Default(), nil
}

// Validate rejects values no run can use.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverWebDriver, DriverAgouti:
	default:
		return core.ErrInvalidConfig.
			WithMessage(fmt.Sprintf("unknown driver %q (want %s or %s)", c.Driver, DriverWebDriver, DriverAgouti)).
			WithDetails(map[string]interface{}{"driver": c.Driver})
	}
	if c.Retries < 0 {
		return core.ErrInvalidConfig.WithMessage("retries must not be negative")
	}
	if c.Timeout <= 0 || c.Interval <= 0 {
		return core.ErrInvalidConfig.WithMessage("timeout and interval must be positive")
	}
	return nil
}
