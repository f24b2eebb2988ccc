package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dotcommander/postindex/internal/content"
	"github.com/dotcommander/postindex/internal/logger"
	"github.com/dotcommander/postindex/internal/posts"
	"github.com/dotcommander/postindex/internal/project"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the postindex configuration
type Config struct {
	Root          string        `mapstructure:"root" yaml:"root,omitempty"`
	Format        string        `mapstructure:"format" yaml:"format"`
	Output        string        `mapstructure:"output" yaml:"output,omitempty"`
	OnInvalidDate string        `mapstructure:"onInvalidDate" yaml:"onInvalidDate"`
	Quiet         bool          `mapstructure:"quiet" yaml:"quiet"`
	Verbose       bool          `mapstructure:"verbose" yaml:"verbose"`
	LogLevel      string        `mapstructure:"logLevel" yaml:"logLevel"`
	Site          SiteConfig    `mapstructure:"site" yaml:"site"`
	Content       ContentConfig `mapstructure:"content" yaml:"content"`
	Watch         WatchConfig   `mapstructure:"watch" yaml:"watch"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-"`
}

// SiteConfig is the static site metadata shown around the post listing.
type SiteConfig struct {
	Lang        string       `mapstructure:"lang" yaml:"lang"`
	Title       string       `mapstructure:"title" yaml:"title"`
	Description string       `mapstructure:"description" yaml:"description"`
	Nav         []NavItem    `mapstructure:"nav" yaml:"nav"`
	Footer      FooterConfig `mapstructure:"footer" yaml:"footer"`
	SocialLinks []SocialLink `mapstructure:"socialLinks" yaml:"socialLinks"`
	Search      SearchConfig `mapstructure:"search" yaml:"search"`
}

// NavItem is one entry of the navigation bar.
type NavItem struct {
	Text string `mapstructure:"text" yaml:"text"`
	Link string `mapstructure:"link" yaml:"link"`
}

type FooterConfig struct {
	Message   string `mapstructure:"message" yaml:"message,omitempty"`
	Copyright string `mapstructure:"copyright" yaml:"copyright"`
}

type SocialLink struct {
	Icon string `mapstructure:"icon" yaml:"icon"`
	Link string `mapstructure:"link" yaml:"link"`
}

type SearchConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
}

// ContentConfig controls how post files are found and read.
type ContentConfig struct {
	Pattern          string `mapstructure:"pattern" yaml:"pattern"`
	ExcerptSeparator string `mapstructure:"excerptSeparator" yaml:"excerptSeparator"`
	Base             string `mapstructure:"base" yaml:"base"`
	CleanURLs        bool   `mapstructure:"cleanUrls" yaml:"cleanUrls"`
	RenderExcerpt    bool   `mapstructure:"renderExcerpt" yaml:"renderExcerpt"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Supported output formats.
const (
	FormatConsole  = "console"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("format", FormatConsole)
	v.SetDefault("onInvalidDate", string(posts.PolicyFail))
	v.SetDefault("quiet", false)
	v.SetDefault("verbose", false)
	v.SetDefault("logLevel", "info")

	v.SetDefault("site.lang", posts.DefaultLocale)
	v.SetDefault("site.title", "digital-traffic.net")
	v.SetDefault("site.description", "Thoughts of a Technology Consultant")
	v.SetDefault("site.nav", []map[string]any{
		{"text": "Blog", "link": "/blog/"},
		{"text": "About Me", "link": "/about/"},
	})
	v.SetDefault("site.footer.copyright", "Copyright © 2024-present Brian G. Shacklett")
	v.SetDefault("site.socialLinks", []map[string]any{
		{"icon": "github", "link": "https://github.com/bgshacklett"},
	})
	v.SetDefault("site.search.provider", "local")

	v.SetDefault("content.pattern", content.DefaultPattern)
	v.SetDefault("content.excerptSeparator", content.DefaultExcerptSeparator)
	v.SetDefault("content.base", "/")
	v.SetDefault("content.cleanUrls", false)
	v.SetDefault("content.renderExcerpt", true)

	v.SetDefault("watch.debounce", 300*time.Millisecond)
}

// Load reads configuration from defaults, the site's config file, POSTINDEX_* environment
// variables and any flags bound to v. An empty rootPath is auto-detected from the working
// directory.
func Load(v *viper.Viper, rootPath string) (*Config, error) {
	SetDefaults(v)

	if rootPath == "" {
		rootPath = v.GetString("root")
	}
	searchDir := rootPath
	if searchDir == "" {
		detected, err := project.FindSiteRoot(".")
		if err != nil {
			return nil, fmt.Errorf("error detecting site root: %w", err)
		}
		searchDir = detected
	}

	// Config file locations
	if file := project.FindConfigFile(searchDir); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", file, err)
		}
	}

	// Environment variables
	v.SetEnvPrefix("POSTINDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.File = v.ConfigFileUsed()

	if rootPath != "" {
		config.Root = rootPath
	}
	if config.Root == "" {
		config.Root = searchDir
	}
	if abs, err := filepath.Abs(config.Root); err == nil {
		config.Root = abs
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	switch config.Format {
	case FormatConsole, FormatJSON, FormatMarkdown:
	default:
		return fmt.Errorf("invalid format: %s. Must be 'console', 'json', or 'markdown'", config.Format)
	}

	if _, err := posts.ParsePolicy(config.OnInvalidDate); err != nil {
		return err
	}

	if _, err := posts.NewDateFormatter(config.Site.Lang); err != nil {
		return fmt.Errorf("site.lang: %w", err)
	}

	if !logger.ValidLevel(config.LogLevel) {
		return fmt.Errorf("invalid log level: %s. Must be 'debug', 'info', 'warn', or 'error'", config.LogLevel)
	}

	if strings.TrimSpace(config.Content.Pattern) == "" {
		return fmt.Errorf("content.pattern must not be empty")
	}
	if !doublestar.ValidatePattern(config.Content.Pattern) {
		return fmt.Errorf("content.pattern %q is not a valid glob", config.Content.Pattern)
	}

	if config.Content.ExcerptSeparator == "" {
		return fmt.Errorf("content.excerptSeparator must not be empty")
	}

	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}

	return nil
}

// Policy returns the configured invalid-date policy.
func (c *Config) Policy() posts.Policy {
	p, err := posts.ParsePolicy(c.OnInvalidDate)
	if err != nil {
		return posts.PolicyFail
	}
	return p
}

// ContentOptions converts the content settings for a content source.
func (c *Config) ContentOptions(log *logger.Logger) content.Options {
	return content.Options{
		Pattern:          c.Content.Pattern,
		ExcerptSeparator: c.Content.ExcerptSeparator,
		Base:             c.Content.Base,
		CleanURLs:        c.Content.CleanURLs,
		RenderExcerpt:    c.Content.RenderExcerpt,
		Logger:           log,
	}
}

// Default returns the configuration used when nothing is overridden.
func Default() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// SaveConfig writes config as YAML to path.
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
