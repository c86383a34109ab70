package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeSegment = "segment"
	ModePerClip = "per-clip"

	OnErrorAbort    = "abort"
	OnErrorContinue = "continue"
)

// Profile is a named set of split settings selectable with --profile.
type Profile struct {
	ClipSeconds float64 `yaml:"clipSeconds"`
	Mode        string  `yaml:"mode"`
	VideoCodec  string  `yaml:"videoCodec"`
	AudioCodec  string  `yaml:"audioCodec"`
}

type Config struct {
	FFmpegBin  string `yaml:"ffmpegBin"`
	FFprobeBin string `yaml:"ffprobeBin"`

	// Split
	ClipSeconds       float64 `yaml:"clipSeconds"`
	Mode              string  `yaml:"mode"`
	OnError           string  `yaml:"onError"`
	OutputDir         string  `yaml:"outputDir"`
	VideoCodec        string  `yaml:"videoCodec"`
	AudioCodec        string  `yaml:"audioCodec"`
	SeekOffsetSeconds float64 `yaml:"seekOffsetSeconds"`
	TrimSeconds       float64 `yaml:"trimSeconds"`
	DryRun            bool    `yaml:"dryRun"`

	// Portrait sync
	Extensions     []string `yaml:"extensions"`
	Keywords       []string `yaml:"keywords"`
	IgnoreKeywords []string `yaml:"ignoreKeywords"`
	Concurrent     int      `yaml:"concurrent"`
	SettleSeconds  int      `yaml:"settleSeconds"`

	TimeoutSeconds      int `yaml:"timeoutSeconds"`
	ProbeTimeoutSeconds int `yaml:"probeTimeoutSeconds"`

	LogFile  string             `yaml:"logFile"`
	Profiles map[string]Profile `yaml:"profiles"`
}

func NewDefault() *Config {
	defaultConcurrent := runtime.NumCPU() - 1
	if defaultConcurrent < 1 {
		defaultConcurrent = 1
	}

	return &Config{
		FFmpegBin:           "ffmpeg",
		FFprobeBin:          "ffprobe",
		ClipSeconds:         5,
		Mode:                ModeSegment,
		OnError:             OnErrorAbort,
		VideoCodec:          "libx264",
		AudioCodec:          "aac",
		Extensions:          []string{"mp4", "mov", "avi", "mkv", "webm"},
		Concurrent:          defaultConcurrent,
		SettleSeconds:       2,
		TimeoutSeconds:      3600,
		ProbeTimeoutSeconds: 30,
	}
}

// DefaultPath returns ~/.config/video-splitter/config.yaml, or "" when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "video-splitter", "config.yaml")
}

// Load decodes the YAML file at path over the defaults. An empty path means
// DefaultPath; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := NewDefault()

	if path == "" {
		path = DefaultPath()
		if path == "" {
			return cfg, nil // ホームディレクトリが取れなくてもデフォルトで進む
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return cfg, nil
}

// ApplyProfile overlays the non-zero fields of the named profile.
func (c *Config) ApplyProfile(name string) (bool, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return false, fmt.Errorf("profile %q not found", name)
	}
	if p.ClipSeconds > 0 {
		c.ClipSeconds = p.ClipSeconds
	}
	if p.Mode != "" {
		c.Mode = p.Mode
	}
	if p.VideoCodec != "" {
		c.VideoCodec = p.VideoCodec
	}
	if p.AudioCodec != "" {
		c.AudioCodec = p.AudioCodec
	}
	return true, nil
}

func (c *Config) Validate() error {
	if c.ClipSeconds <= 0 {
		return fmt.Errorf("clipSeconds must be > 0, got %v", c.ClipSeconds)
	}
	switch c.Mode {
	case ModeSegment, ModePerClip:
	default:
		return fmt.Errorf("unknown mode %q (want %s or %s)", c.Mode, ModeSegment, ModePerClip)
	}
	switch c.OnError {
	case OnErrorAbort, OnErrorContinue:
	default:
		return fmt.Errorf("unknown onError policy %q (want %s or %s)", c.OnError, OnErrorAbort, OnErrorContinue)
	}
	if c.SeekOffsetSeconds < 0 {
		return fmt.Errorf("seekOffsetSeconds must be >= 0, got %v", c.SeekOffsetSeconds)
	}
	if c.TrimSeconds < 0 || c.TrimSeconds >= c.ClipSeconds {
		return fmt.Errorf("trimSeconds must be in [0, clipSeconds), got %v", c.TrimSeconds)
	}
	if c.TimeoutSeconds < 0 || c.ProbeTimeoutSeconds < 0 {
		return fmt.Errorf("timeouts must be >= 0")
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions must not be empty")
	}
	if c.Concurrent < 1 {
		c.Concurrent = 1
	}
	return nil
}

func (c *Config) ClipLength() time.Duration {
	return seconds(c.ClipSeconds)
}

func (c *Config) SeekOffset() time.Duration {
	return seconds(c.SeekOffsetSeconds)
}

func (c *Config) Trim() time.Duration {
	return seconds(c.TrimSeconds)
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

func (c *Config) Settle() time.Duration {
	return time.Duration(c.SettleSeconds) * time.Second
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s*1e6)) * time.Microsecond
}
