package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"meme-maker/internal/logger"
	"meme-maker/internal/models"

	"github.com/joho/godotenv"
)

const (
	DefaultCanvasWidth  = 1080
	DefaultCanvasHeight = 1350
	DefaultFetchTimeout = 30 * time.Second
	maxCanvasDimension  = 8192
)

// Platform selects the bridge variant.
type Platform string

const (
	PlatformAuto   Platform = "auto"
	PlatformNative Platform = "native"
	PlatformWeb    Platform = "web"
)

// Config holds every tunable of the application. Values come from the
// environment, optionally seeded from a .env file.
type Config struct {
	CanvasWidth  int
	CanvasHeight int
	DefaultFrame models.FramePreset
	Platform     Platform
	DocumentsDir string
	FetchTimeout time.Duration
	LogLevel     logger.LogLevel
	LogFormat    string
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		CanvasWidth:  DefaultCanvasWidth,
		CanvasHeight: DefaultCanvasHeight,
		DefaultFrame: models.FramePost,
		Platform:     PlatformAuto,
		DocumentsDir: defaultDocumentsDir(),
		FetchTimeout: DefaultFetchTimeout,
		LogLevel:     logger.InfoLevel,
		LogFormat:    "console",
	}
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	// Missing .env files are expected.
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []string

	if v, ok := lookup("MEME_CANVAS_WIDTH"); ok {
		n, err := parseDimension(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("MEME_CANVAS_WIDTH: %v", err))
		} else {
			cfg.CanvasWidth = n
		}
	}
	if v, ok := lookup("MEME_CANVAS_HEIGHT"); ok {
		n, err := parseDimension(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("MEME_CANVAS_HEIGHT: %v", err))
		} else {
			cfg.CanvasHeight = n
		}
	}
	if v, ok := lookup("MEME_DEFAULT_FRAME"); ok {
		p, err := models.ParseFramePreset(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("MEME_DEFAULT_FRAME: %v", err))
		} else {
			cfg.DefaultFrame = p
		}
	}
	if v, ok := lookup("MEME_PLATFORM"); ok {
		switch p := Platform(strings.ToLower(strings.TrimSpace(v))); p {
		case PlatformAuto, PlatformNative, PlatformWeb:
			cfg.Platform = p
		default:
			errs = append(errs, fmt.Sprintf("MEME_PLATFORM: unknown platform %q", v))
		}
	}
	if v, ok := lookup("MEME_DOCUMENTS_DIR"); ok && strings.TrimSpace(v) != "" {
		cfg.DocumentsDir = expandHome(strings.TrimSpace(v))
	}
	if v, ok := lookup("MEME_FETCH_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("MEME_FETCH_TIMEOUT: invalid duration %q", v))
		} else {
			cfg.FetchTimeout = d
		}
	}

	cfg.LogLevel = determineLogLevel(lookup)
	if v, ok := lookup("LOG_FORMAT"); ok {
		switch f := strings.ToLower(strings.TrimSpace(v)); f {
		case "console", "json":
			cfg.LogFormat = f
		default:
			errs = append(errs, fmt.Sprintf("LOG_FORMAT: unknown format %q", v))
		}
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// InitialSize is the canvas size used by Initialize and FrameOriginal.
func (c Config) InitialSize() models.Size {
	return models.Size{Width: c.CanvasWidth, Height: c.CanvasHeight}
}

// determineLogLevel determines appropriate log level from environment.
// DEBUG=1 wins over LOG_LEVEL.
func determineLogLevel(lookup func(string) (string, bool)) logger.LogLevel {
	if v, _ := lookup("DEBUG"); v == "1" {
		return logger.DebugLevel
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		if level, err := logger.ParseLevel(v); err == nil {
			return level
		}
	}
	return logger.InfoLevel
}

func parseDimension(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if n <= 0 || n > maxCanvasDimension {
		return 0, fmt.Errorf("dimension %d out of range (1..%d)", n, maxCanvasDimension)
	}
	return n, nil
}

func defaultDocumentsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Documents"
	}
	return filepath.Join(home, "Documents")
}

func expandHome(dir string) string {
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, dir[1:])
		}
	}
	return dir
}
