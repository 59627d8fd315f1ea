// Package config provides configuration loading for promptpane.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Transcripts TranscriptsConfig `koanf:"transcripts"`
	Extraction  ExtractionConfig  `koanf:"extraction"`
	Clipboard   ClipboardConfig   `koanf:"clipboard"`
	Viewport    ViewportConfig    `koanf:"viewport"`
	Sidebar     SidebarConfig     `koanf:"sidebar"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// TranscriptsConfig locates the conversation transcripts served as posts.
type TranscriptsConfig struct {
	Dir string `koanf:"dir"`
}

// ExtractionConfig configures the fact-extraction model.
type ExtractionConfig struct {
	BaseURL       string `koanf:"base_url"`
	APIKey        Secret `koanf:"api_key"`
	Model         string `koanf:"model"`
	MaxCharacters int    `koanf:"max_characters"`
}

// ClipboardConfig tunes the clipboard delivery protocol.
type ClipboardConfig struct {
	FocusTimeout Duration `koanf:"focus_timeout"`
	SettleDelay  Duration `koanf:"settle_delay"`
}

// ViewportConfig tunes the viewport resolver's reading band.
type ViewportConfig struct {
	BandTop    float64 `koanf:"band_top"`
	BandBottom float64 `koanf:"band_bottom"`
	MinRatio   float64 `koanf:"min_ratio"`
}

// SidebarConfig tunes the annotation sidebar.
type SidebarConfig struct {
	TransitionSettle Duration `koanf:"transition_settle"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// applyDefaults fills zero values with production defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8321
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Transcripts.Dir == "" {
		cfg.Transcripts.Dir = "./transcripts"
	}
	if cfg.Extraction.Model == "" {
		cfg.Extraction.Model = "gpt-4o-mini"
	}
	if cfg.Extraction.MaxCharacters == 0 {
		cfg.Extraction.MaxCharacters = 5000
	}
	if cfg.Clipboard.FocusTimeout == 0 {
		cfg.Clipboard.FocusTimeout = Duration(5 * time.Minute)
	}
	if cfg.Clipboard.SettleDelay == 0 {
		cfg.Clipboard.SettleDelay = Duration(100 * time.Millisecond)
	}
	if cfg.Viewport.BandTop == 0 {
		cfg.Viewport.BandTop = 0.20
	}
	if cfg.Viewport.BandBottom == 0 {
		cfg.Viewport.BandBottom = 0.40
	}
	if cfg.Viewport.MinRatio == 0 {
		cfg.Viewport.MinRatio = 0.10
	}
	if cfg.Sidebar.TransitionSettle == 0 {
		cfg.Sidebar.TransitionSettle = Duration(250 * time.Millisecond)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("shutdown timeout must be > 0")
	}
	if c.Extraction.MaxCharacters <= 0 {
		return fmt.Errorf("extraction max_characters must be > 0, got %d", c.Extraction.MaxCharacters)
	}
	if c.Clipboard.FocusTimeout.Duration() <= 0 {
		return fmt.Errorf("clipboard focus_timeout must be > 0")
	}
	if c.Viewport.BandTop < 0 || c.Viewport.BandTop >= c.Viewport.BandBottom || c.Viewport.BandBottom > 1 {
		return fmt.Errorf("viewport band must satisfy 0 <= band_top < band_bottom <= 1, got [%v, %v]",
			c.Viewport.BandTop, c.Viewport.BandBottom)
	}
	if c.Viewport.MinRatio < 0 || c.Viewport.MinRatio > 1 {
		return fmt.Errorf("viewport min_ratio must be in [0, 1], got %v", c.Viewport.MinRatio)
	}
	if c.Sidebar.TransitionSettle.Duration() <= 0 {
		return fmt.Errorf("sidebar transition_settle must be > 0")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}
