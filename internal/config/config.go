package config

import (
	"fmt"
	"time"
)

// DefaultPollInterval is the default value of Config.PollInterval.
const DefaultPollInterval = 50 * time.Millisecond

// Config is the content of a .walgrep.toml file.
//
// Every setting is optional; command-line flags take precedence.
type Config struct {
	// Recurse is the default for searching subdirectories.
	Recurse bool `toml:"recurse"`
	// NameOnly is the default for filename mode.
	NameOnly bool `toml:"name-only"`
	// PollInterval is how often consumers drain events, such as "50ms" or "1s".
	PollInterval Duration `toml:"poll-interval"`
	// Verbose enables logging to stderr.
	Verbose bool `toml:"verbose"`

	S3 S3Config `toml:"s3"`
}

// S3Config contains settings for searching `s3://` roots.
type S3Config struct {
	// Profile is the AWS profile used for every bucket that does not have its own.
	Profile string `toml:"profile"`
	// Region is the region used for every bucket that does not have its own.
	//
	// If empty, the region of each bucket is discovered with a HeadBucket request.
	Region string `toml:"region"`
	// Buckets contains per-bucket overrides, keyed by bucket name.
	Buckets map[string]BucketConfig `toml:"buckets"`
}

// BucketConfig contains settings for a specific bucket.
type BucketConfig struct {
	Profile string `toml:"profile"`
	Region  string `toml:"region"`
}

// ForBucket returns the effective settings for a bucket.
func (c S3Config) ForBucket(bucket string) BucketConfig {
	b := c.Buckets[bucket]
	if b.Profile == "" {
		b.Profile = c.Profile
	}
	if b.Region == "" {
		b.Region = c.Region
	}

	return b
}

// Poll returns PollInterval or DefaultPollInterval if unset.
func (c Config) Poll() time.Duration {
	if c.PollInterval <= 0 {
		return DefaultPollInterval
	}

	return time.Duration(c.PollInterval)
}

// Duration is a time.Duration written as a string such as "50ms".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration error: %w", err)
	}

	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
