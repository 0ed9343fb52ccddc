// Package config loads scanner settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/execscan/internal/analyze"
	"github.com/phobologic/execscan/internal/discover"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".execscan.yaml"

// Analysis defaults are those of a Parser built without options.
const (
	DefaultCall              = analyze.DefaultCall
	DefaultResultType        = analyze.DefaultResultType
	DefaultStatementWindow   = analyze.DefaultStatementWindow
	DefaultFieldRegionLines  = analyze.DefaultFieldRegionLines
	DefaultMaxExpansionDepth = analyze.DefaultMaxDepth
	DefaultTestPathPattern   = "[tT][eE][sS][tT]"
	DefaultLogLevel          = "warn"
)

var callNameRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// Config holds the analysis settings. Keys absent from a file keep their
// defaults.
type Config struct {
	sourceFile string

	// Call is the method name whose arguments are classified.
	Call string `yaml:"call"`

	// Markers are substrings that make a statement an exec use on their own.
	Markers []string `yaml:"markers"`

	// ResultType is the declared type of a variable receiving the call's
	// result that also makes a statement an exec use. Empty disables it.
	ResultType string `yaml:"result-type"`

	// StaticClasses are class names classified as fixed references.
	StaticClasses []string `yaml:"static-classes"`

	// StatementWindow is how many lines after a candidate may complete its
	// statement.
	StatementWindow int `yaml:"statement-window"`

	// FieldRegionLines bounds the field region of a class with no
	// constructor.
	FieldRegionLines int `yaml:"field-region-lines"`

	// MaxExpansionDepth bounds recursive expansion of expressions.
	MaxExpansionDepth int `yaml:"max-expansion-depth"`

	// Include and Exclude are doublestar globs over repo-relative paths.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	// TestPathPattern is the regular expression counting test paths in the
	// report.
	TestPathPattern string `yaml:"test-path-pattern"`

	LogLevel string `yaml:"log-level"`

	testPathRegex *regexp.Regexp
}

// NewDefault returns the built-in configuration.
func NewDefault() *Config {
	return &Config{
		Call:              DefaultCall,
		Markers:           append([]string(nil), analyze.DefaultMarkers...),
		ResultType:        DefaultResultType,
		StaticClasses:     append([]string(nil), analyze.DefaultStaticClasses...),
		StatementWindow:   DefaultStatementWindow,
		FieldRegionLines:  DefaultFieldRegionLines,
		MaxExpansionDepth: DefaultMaxExpansionDepth,
		Include:           nil,
		Exclude:           nil,
		TestPathPattern:   DefaultTestPathPattern,
		LogLevel:          DefaultLogLevel,
	}
}

// Load reads a configuration from a file, overlaying it on the defaults.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}
	cfg.sourceFile = filename

	// Non-positive limits fall back to their defaults.
	if cfg.StatementWindow <= 0 {
		cfg.StatementWindow = DefaultStatementWindow
	}
	if cfg.FieldRegionLines <= 0 {
		cfg.FieldRegionLines = DefaultFieldRegionLines
	}
	if cfg.MaxExpansionDepth <= 0 {
		cfg.MaxExpansionDepth = DefaultMaxExpansionDepth
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// LoadOptional loads filename when it exists and returns the defaults when
// it does not.
func LoadOptional(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		cfg := NewDefault()
		return cfg, cfg.Validate()
	}
	return Load(filename)
}

// Validate checks the configuration and compiles its patterns.
func (c *Config) Validate() error {
	var errs []error
	if !callNameRe.MatchString(c.Call) {
		errs = append(errs, fmt.Errorf("call: %q is not a method name", c.Call))
	}
	if c.StatementWindow < 0 {
		errs = append(errs, fmt.Errorf("statement-window: must not be negative"))
	}
	if c.FieldRegionLines < 0 {
		errs = append(errs, fmt.Errorf("field-region-lines: must not be negative"))
	}
	if c.MaxExpansionDepth < 0 {
		errs = append(errs, fmt.Errorf("max-expansion-depth: must not be negative"))
	}
	if err := c.Filter().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("include/exclude: %w", err))
	}
	re, err := regexp.Compile(c.TestPathPattern)
	if err != nil {
		errs = append(errs, fmt.Errorf("test-path-pattern: %w", err))
	} else {
		c.testPathRegex = re
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log-level: %w", err))
	}
	return errors.Join(errs...)
}

// Filter returns the include and exclude globs as a discovery filter.
func (c *Config) Filter() discover.Filter {
	return discover.Filter{Include: c.Include, Exclude: c.Exclude}
}

// SourceFile is the file the config was loaded from, or "" for defaults.
func (c *Config) SourceFile() string {
	return c.sourceFile
}

// IsTestPath reports whether path matches the test path pattern.
func (c *Config) IsTestPath(path string) bool {
	if c.testPathRegex == nil {
		re, err := regexp.Compile(c.TestPathPattern)
		if err != nil {
			return false
		}
		c.testPathRegex = re
	}
	return c.testPathRegex.MatchString(path)
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
