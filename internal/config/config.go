// SPDX-License-Identifier: EPL-2.0

// Package config loads the multitrack configuration from YAML, .env files
// and MULTITRACK_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ik5/multitrack/capture"
	"github.com/ik5/multitrack/engine"
	"github.com/ik5/multitrack/internal/logger"
	"github.com/ik5/multitrack/loader"
	"github.com/ik5/multitrack/waveform"
)

// EnvPrefix prefixes every environment override, MULTITRACK_ENGINE_SAMPLE_RATE
// sets engine.sample_rate.
const EnvPrefix = "MULTITRACK"

const (
	minSampleRate = 8000
	maxSampleRate = 192000
)

type Config struct {
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Recorder RecorderConfig `mapstructure:"recorder" yaml:"recorder"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Minio    MinioConfig    `mapstructure:"minio" yaml:"minio"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Project  ProjectConfig  `mapstructure:"project" yaml:"project"`
}

type EngineConfig struct {
	SampleRate      int           `mapstructure:"sample_rate" yaml:"sample_rate"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	AssumedBitrate  int           `mapstructure:"assumed_bitrate" yaml:"assumed_bitrate"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	LoadConcurrency int           `mapstructure:"load_concurrency" yaml:"load_concurrency"`
	WaveformBuckets int           `mapstructure:"waveform_buckets" yaml:"waveform_buckets"`
}

type RecorderConfig struct {
	DeviceTimeout time.Duration `mapstructure:"device_timeout" yaml:"device_timeout"`
	QueueSize     int           `mapstructure:"queue_size" yaml:"queue_size"`
	Secure        bool          `mapstructure:"secure" yaml:"secure"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// DatabaseConfig enables the MySQL track store when DSN is set.
type DatabaseConfig struct {
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
	Migrate bool   `mapstructure:"migrate" yaml:"migrate"`
}

// RedisConfig enables the waveform cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// MinioConfig enables uploads when Endpoint is set.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
	PublicURL string `mapstructure:"public_url" yaml:"public_url"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// ProjectConfig names the project to open. Tracks are used when no
// database is configured.
type ProjectConfig struct {
	ID     string        `mapstructure:"id" yaml:"id"`
	Tracks []TrackConfig `mapstructure:"tracks" yaml:"tracks"`
}

type TrackConfig struct {
	ID       string  `mapstructure:"id" yaml:"id"`
	Title    string  `mapstructure:"title" yaml:"title"`
	URL      string  `mapstructure:"url" yaml:"url"`
	Volume   float64 `mapstructure:"volume" yaml:"volume"`
	Pan      float64 `mapstructure:"pan" yaml:"pan"`
	Muted    bool    `mapstructure:"muted" yaml:"muted"`
	Duration float64 `mapstructure:"duration" yaml:"duration"`
}

// Default returns the configuration used for every unset key.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			SampleRate:      loader.DefaultSampleRate,
			PollInterval:    engine.DefaultPollInterval,
			AssumedBitrate:  loader.DefaultAssumedBitrate,
			FetchTimeout:    30 * time.Second,
			LoadConcurrency: engine.DefaultLoadConcurrency,
			WaveformBuckets: waveform.DefaultBuckets,
		},
		Recorder: RecorderConfig{
			DeviceTimeout: capture.DefaultDeviceTimeout,
			QueueSize:     capture.DefaultQueueSize,
			Secure:        true,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     logger.FormatConsole,
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Database: DatabaseConfig{Migrate: true},
		Redis:    RedisConfig{TTL: 7 * 24 * time.Hour},
		Minio:    MinioConfig{Bucket: "multitrack", Region: "us-east-1"},
		Server:   ServerConfig{Addr: ":8080"},
		Project:  ProjectConfig{ID: "default"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("engine.sample_rate", d.Engine.SampleRate)
	v.SetDefault("engine.poll_interval", d.Engine.PollInterval)
	v.SetDefault("engine.assumed_bitrate", d.Engine.AssumedBitrate)
	v.SetDefault("engine.fetch_timeout", d.Engine.FetchTimeout)
	v.SetDefault("engine.load_concurrency", d.Engine.LoadConcurrency)
	v.SetDefault("engine.waveform_buckets", d.Engine.WaveformBuckets)

	v.SetDefault("recorder.device_timeout", d.Recorder.DeviceTimeout)
	v.SetDefault("recorder.queue_size", d.Recorder.QueueSize)
	v.SetDefault("recorder.secure", d.Recorder.Secure)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)

	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.migrate", d.Database.Migrate)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("minio.endpoint", d.Minio.Endpoint)
	v.SetDefault("minio.access_key", d.Minio.AccessKey)
	v.SetDefault("minio.secret_key", d.Minio.SecretKey)
	v.SetDefault("minio.bucket", d.Minio.Bucket)
	v.SetDefault("minio.region", d.Minio.Region)
	v.SetDefault("minio.use_ssl", d.Minio.UseSSL)
	v.SetDefault("minio.public_url", d.Minio.PublicURL)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("project.id", d.Project.ID)
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads path, when set, over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	e := c.Engine
	switch {
	case e.SampleRate < minSampleRate || e.SampleRate > maxSampleRate:
		return fmt.Errorf("engine.sample_rate %d outside [%d, %d]", e.SampleRate, minSampleRate, maxSampleRate)
	case e.PollInterval <= 0:
		return fmt.Errorf("engine.poll_interval must be positive, got %s", e.PollInterval)
	case e.AssumedBitrate <= 0:
		return fmt.Errorf("engine.assumed_bitrate must be positive, got %d", e.AssumedBitrate)
	case e.FetchTimeout <= 0:
		return fmt.Errorf("engine.fetch_timeout must be positive, got %s", e.FetchTimeout)
	case e.LoadConcurrency < 1:
		return fmt.Errorf("engine.load_concurrency must be at least 1, got %d", e.LoadConcurrency)
	case e.WaveformBuckets < 1:
		return fmt.Errorf("engine.waveform_buckets must be at least 1, got %d", e.WaveformBuckets)
	}

	r := c.Recorder
	switch {
	case r.DeviceTimeout <= 0:
		return fmt.Errorf("recorder.device_timeout must be positive, got %s", r.DeviceTimeout)
	case r.QueueSize < 1:
		return fmt.Errorf("recorder.queue_size must be at least 1, got %d", r.QueueSize)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if f := c.Log.Format; f != logger.FormatConsole && f != logger.FormatJSON {
		return fmt.Errorf("log.format must be %q or %q, got %q", logger.FormatConsole, logger.FormatJSON, f)
	}

	if c.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl must not be negative, got %s", c.Redis.TTL)
	}
	if c.Minio.Endpoint != "" && c.Minio.Bucket == "" {
		return errors.New("minio.bucket is required with minio.endpoint")
	}

	seen := make(map[string]bool, len(c.Project.Tracks))
	for i, t := range c.Project.Tracks {
		prefix := fmt.Sprintf("project.tracks[%d]", i)
		switch {
		case t.ID == "":
			return fmt.Errorf("%s: id is required", prefix)
		case seen[t.ID]:
			return fmt.Errorf("%s: duplicate id %q", prefix, t.ID)
		case t.Volume < 0 || t.Volume > 1:
			return fmt.Errorf("%s: volume %v outside [0, 1]", prefix, t.Volume)
		case t.Pan < -1 || t.Pan > 1:
			return fmt.Errorf("%s: pan %v outside [-1, 1]", prefix, t.Pan)
		case t.Duration < 0:
			return fmt.Errorf("%s: duration must not be negative", prefix)
		}
		seen[t.ID] = true
	}
	return nil
}

// Records converts the inline track list to engine records numbered in
// file order.
func (p ProjectConfig) Records() []engine.TrackRecord {
	recs := make([]engine.TrackRecord, 0, len(p.Tracks))
	for i, t := range p.Tracks {
		recs = append(recs, engine.TrackRecord{
			ID:          t.ID,
			ProjectID:   p.ID,
			TrackNumber: i + 1,
			Title:       t.Title,
			AudioURL:    t.URL,
			Volume:      t.Volume,
			Pan:         t.Pan,
			Muted:       t.Muted,
			Duration:    t.Duration,
		})
	}
	return recs
}

// WriteYAML writes c as a config file. Durations are written in their
// string form so Load reads them back.
func WriteYAML(w io.Writer, c Config) error {
	var root yaml.Node
	if err := root.Encode(c); err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	humanizeDurations(&root, c)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return enc.Close()
}

// humanizeDurations rewrites the duration keys of an encoded Config, which
// yaml.v3 writes as integer nanoseconds.
func humanizeDurations(root *yaml.Node, c Config) {
	durations := map[string]map[string]time.Duration{
		"engine": {
			"poll_interval": c.Engine.PollInterval,
			"fetch_timeout": c.Engine.FetchTimeout,
		},
		"recorder": {"device_timeout": c.Recorder.DeviceTimeout},
		"redis":    {"ttl": c.Redis.TTL},
	}

	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		keys, ok := durations[doc.Content[i].Value]
		if !ok {
			continue
		}
		section := doc.Content[i+1]
		for j := 0; j+1 < len(section.Content); j += 2 {
			if d, ok := keys[section.Content[j].Value]; ok {
				val := section.Content[j+1]
				val.Tag = "!!str"
				val.Value = d.String()
			}
		}
	}
}
