package masshash

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
)

// DefaultConfigName is the file LoadConfig looks for when no path is given.
const DefaultConfigName = ".masshash.ini"

// Config represents the masshash configuration
type Config struct {
	configPath string
	ini        *ini.File
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default string // Default hash algorithm
}

// OutputConfig represents output format configuration
type OutputConfig struct {
	Format string // human, fdupes, json, yaml, tree
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // 0=quiet, 1=basic, 2=detailed, 3=trace
	Debug string // comma-separated debug flags
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	HashWorkers int    // 0 means one per CPU
	MaxSize     string // largest file to hash, e.g. "2G"; empty for no limit
}

// AllConfig represents all configuration options
type AllConfig struct {
	Hash        *HashConfig
	Output      *OutputConfig
	Verbose     *VerboseConfig
	Performance *PerformanceConfig
}

// LoadConfig loads configuration from path. A missing file yields the
// defaults without touching the disk; Save writes them out.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigName
	}
	cfg := &Config{configPath: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		if err := cfg.setDefaults(); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ini = iniFile
	return cfg, nil
}

// defaultValues lists every key LoadConfig seeds, by section.
var defaultValues = []struct {
	section, key, value string
}{
	{"filehash", "default", DefaultHashName},
	{"output", "format", "human"},
	{"verbose", "level", "0"},
	{"verbose", "debug", ""},
	{"performance", "hash_workers", "0"},
	{"performance", "max_size", ""},
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() error {
	for _, d := range defaultValues {
		section, err := c.ini.NewSection(d.section)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", d.section, err)
		}
		if _, err := section.NewKey(d.key, d.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", d.section, d.key, err)
		}
	}
	return nil
}

// Path returns the file the configuration is read from and saved to.
func (c *Config) Path() string {
	return c.configPath
}

// lookup returns the trimmed value of section.key, if the key is set.
func (c *Config) lookup(section, key string) (string, bool) {
	if !c.ini.HasSection(section) || !c.ini.Section(section).HasKey(key) {
		return "", false
	}
	return strings.TrimSpace(c.ini.Section(section).Key(key).String()), true
}

// lookupInt is lookup for integer keys. Unparseable values count as unset.
func (c *Config) lookupInt(section, key string) (int, bool) {
	raw, ok := c.lookup(section, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	hashConfig := &HashConfig{Default: DefaultHashName}
	if name, ok := c.lookup("filehash", "default"); ok {
		hashConfig.Default = name
	}
	return hashConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{Format: "human"}
	if format, ok := c.lookup("output", "format"); ok {
		outputConfig.Format = format
	}
	return outputConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{}
	if level, ok := c.lookupInt("verbose", "level"); ok {
		verboseConfig.Level = level
	}
	verboseConfig.Debug, _ = c.lookup("verbose", "debug")
	return verboseConfig
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{}
	if workers, ok := c.lookupInt("performance", "hash_workers"); ok {
		performanceConfig.HashWorkers = workers
	}
	performanceConfig.MaxSize, _ = c.lookup("performance", "max_size")
	return performanceConfig
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Hash:        c.GetHashConfig(),
		Output:      c.GetOutputConfig(),
		Verbose:     c.GetVerboseConfig(),
		Performance: c.GetPerformanceConfig(),
	}
}

// Validate checks every configured value.
func (c *Config) Validate() error {
	for _, key := range [][2]string{{"verbose", "level"}, {"performance", "hash_workers"}} {
		if raw, ok := c.lookup(key[0], key[1]); ok && raw != "" {
			if _, err := strconv.Atoi(raw); err != nil {
				return fmt.Errorf("invalid %s.%s: %q is not a number", key[0], key[1], raw)
			}
		}
	}

	all := c.GetAllConfig()
	if err := ValidateHashAlgorithm(all.Hash.Default); err != nil {
		return err
	}
	if err := ValidateOutputFormat(all.Output.Format); err != nil {
		return err
	}
	if err := ValidateVerboseLevel(all.Verbose.Level); err != nil {
		return err
	}
	if err := ValidateHashWorkers(all.Performance.HashWorkers); err != nil {
		return err
	}
	if all.Performance.MaxSize != "" {
		if _, err := ParseHumanSize(all.Performance.MaxSize); err != nil {
			return fmt.Errorf("invalid max_size: %w", err)
		}
	}
	return nil
}

// Set stores a value and saves the file.
func (c *Config) Set(section, key, value string) error {
	c.ini.Section(section).Key(key).SetValue(value)
	return c.Save()
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	return c.ini.SaveTo(c.configPath)
}

// overrideKeys maps the short override names to their section.
var overrideKeys = map[string]string{
	"default":      "filehash",
	"format":       "output",
	"level":        "verbose",
	"debug":        "verbose",
	"hash_workers": "performance",
	"max_size":     "performance",
}

// ApplyOverrides applies command-line overrides to the configuration
// Accepts strings like "default:sha256", "format:json", "level:2", "max_size:1G"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		section, ok := overrideKeys[key]
		if !ok {
			return fmt.Errorf("unsupported override key '%s' (supported: default, format, level, debug, hash_workers, max_size)", key)
		}
		c.ini.Section(section).Key(key).SetValue(value)
	}

	return nil
}

// OutputFormats lists the report formats the CLI can render.
var OutputFormats = []string{"human", "fdupes", "json", "yaml", "tree"}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	_, err := GetHashAlgorithm(algorithm)
	return err
}

// ValidateOutputFormat validates that an output format is supported
func ValidateOutputFormat(format string) error {
	for _, f := range OutputFormats {
		if strings.EqualFold(f, format) {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format: %s (supported: %s)", format, strings.Join(OutputFormats, ", "))
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < VerboseQuiet || level > VerboseTrace {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}

// ValidateHashWorkers validates a configured worker count. Zero selects one
// worker per CPU; larger values are clamped by the hasher.
func ValidateHashWorkers(workers int) error {
	if workers < 0 {
		return fmt.Errorf("hash workers must not be negative, got: %d", workers)
	}
	return nil
}
