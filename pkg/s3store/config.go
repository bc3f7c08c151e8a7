// Package s3store builds S3 clients for reading document resources and
// writing export artifacts. It works with AWS S3 and S3-compatible services
// such as MinIO.
package s3store

import (
	"fmt"
	"strings"
)

// Config contains the connection settings for an S3-compatible service.
type Config struct {
	Endpoint  string `hcl:"endpoint,optional"`   // Custom endpoint (e.g., MinIO); empty uses AWS
	Region    string `hcl:"region,optional"`     // AWS region (e.g., "us-west-2")
	Bucket    string `hcl:"bucket,optional"`     // Default bucket for artifacts
	Prefix    string `hcl:"prefix,optional"`     // Optional key prefix for artifacts (e.g., "exports/")
	AccessKey string `hcl:"access_key,optional"` // Access key ID
	SecretKey string `hcl:"secret_key,optional"` // Secret access key

	RequestTimeoutSeconds int  `hcl:"request_timeout_seconds,optional"` // Request timeout (default: 30)
	InsecureSkipVerify    bool `hcl:"insecure_skip_verify,optional"`    // Skip TLS verification (testing only)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("access_key and secret_key must be set together")
	}
	if strings.HasPrefix(c.Prefix, "/") {
		return fmt.Errorf("prefix must not start with '/'")
	}
	return nil
}

// SetDefaults sets default values for optional fields.
func (c *Config) SetDefaults() {
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = 30
	}
	if c.Prefix != "" && !strings.HasSuffix(c.Prefix, "/") {
		c.Prefix += "/"
	}
}

// Key returns the object key for name under the configured prefix.
func (c *Config) Key(name string) string {
	return c.Prefix + name
}
