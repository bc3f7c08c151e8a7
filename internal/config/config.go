// Package config loads the hermes-export configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp-forge/hermes-export/pkg/resource/httpfetch"
	"github.com/hashicorp-forge/hermes-export/pkg/s3store"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Output destinations.
const (
	DestinationFile = "file"
	DestinationS3   = "s3"
)

// Config is the hermes-export configuration.
type Config struct {
	// LogLevel is one of trace, debug, info, warn or error.
	LogLevel string `hcl:"log_level,optional"`

	Resolver *Resolver         `hcl:"resolver,block"`
	Fetch    *httpfetch.Config `hcl:"fetch,block"`
	S3       *s3store.Config   `hcl:"s3,block"`
	Markdown *Markdown         `hcl:"markdown,block"`
	Docx     *Docx             `hcl:"docx,block"`
	Output   *Output           `hcl:"output,block"`
}

// Resolver configures resource resolution for formats that embed images.
type Resolver struct {
	Concurrency    int   `hcl:"concurrency,optional"`     // Parallel fetches (0 = all at once)
	RatePerSecond  int   `hcl:"rate_per_second,optional"` // Fetch rate limit (0 = unlimited)
	TimeoutSeconds int   `hcl:"timeout_seconds,optional"` // Per-resource timeout (default: 30)
	MaxBytes       int64 `hcl:"max_bytes,optional"`       // Per-resource size limit (default: 20 MiB)
}

// Timeout returns TimeoutSeconds as a duration.
func (r *Resolver) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// Markdown configures the Markdown serializer.
type Markdown struct {
	FrontMatter bool   `hcl:"front_matter,optional"`
	Generator   string `hcl:"generator,optional"`
	LooseLists  bool   `hcl:"loose_lists,optional"`
}

// Docx configures the docx serializer.
type Docx struct {
	Creator        string `hcl:"creator,optional"`
	HighlightStyle string `hcl:"highlight_style,optional"`
}

// Output configures where artifacts are delivered.
type Output struct {
	Destination string `hcl:"destination,optional"` // "file" or "s3"
	Directory   string `hcl:"directory,optional"`   // Output directory for "file"
	Overwrite   bool   `hcl:"overwrite,optional"`   // Replace existing files
}

// Validate implements validation.Validatable.
func (o *Output) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Destination, validation.Required, validation.In(DestinationFile, DestinationS3)),
		validation.Field(&o.Directory, validation.When(o.Destination == DestinationFile, validation.Required)),
	)
}

// Validate implements validation.Validatable.
func (r *Resolver) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Concurrency, validation.Min(0)),
		validation.Field(&r.RatePerSecond, validation.Min(0)),
		validation.Field(&r.TimeoutSeconds, validation.Min(1)),
		validation.Field(&r.MaxBytes, validation.Min(int64(1))),
	)
}

// Default returns a configuration with every block set to its defaults.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills in missing blocks and optional fields. The s3 block is
// left unset when absent.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	if c.Resolver == nil {
		c.Resolver = &Resolver{}
	}
	if c.Resolver.TimeoutSeconds == 0 {
		c.Resolver.TimeoutSeconds = 30
	}
	if c.Resolver.MaxBytes == 0 {
		c.Resolver.MaxBytes = 20 << 20
	}

	if c.Fetch == nil {
		c.Fetch = &httpfetch.Config{}
	}
	c.Fetch.SetDefaults()

	if c.S3 != nil {
		c.S3.SetDefaults()
	}

	if c.Markdown == nil {
		c.Markdown = &Markdown{}
	}
	if c.Markdown.Generator == "" {
		c.Markdown.Generator = "hermes-export"
	}

	if c.Docx == nil {
		c.Docx = &Docx{}
	}
	if c.Docx.Creator == "" {
		c.Docx.Creator = "hermes-export"
	}
	if c.Docx.HighlightStyle == "" {
		c.Docx.HighlightStyle = "github"
	}

	if c.Output == nil {
		c.Output = &Output{}
	}
	if c.Output.Destination == "" {
		c.Output.Destination = DestinationFile
	}
	if c.Output.Destination == DestinationFile && c.Output.Directory == "" {
		c.Output.Directory = "."
	}
}

// Validate checks a configuration that has had its defaults applied.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.Resolver, validation.Required),
		validation.Field(&c.Output, validation.Required),
		validation.Field(&c.S3, validation.When(c.Output != nil && c.Output.Destination == DestinationS3,
			validation.Required.Error("is required when output destination is s3"))),
	)
}

// Level returns the hclog level for LogLevel.
func (c *Config) Level() hclog.Level {
	return hclog.LevelFromString(c.LogLevel)
}

// Decode parses HCL source. filename is used in diagnostics and must end in
// ".hcl".
func Decode(filename string, src []byte) (*Config, error) {
	var c Config
	if err := hclsimple.Decode(filename, src, nil, &c); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return finish(&c)
}

// LoadFile reads and parses the configuration file at path. An empty path
// returns the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	var c Config
	if err := hclsimple.DecodeFile(path, nil, &c); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	return finish(&c)
}

func finish(c *Config) (*Config, error) {
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}
