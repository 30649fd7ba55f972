// Package config loads process-level settings for the trading broker.
//
// Settings come from the environment (optionally seeded by a .env file);
// account credentials are discovered separately by internal/accounts.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// DefaultPositionSizePresets 允许的按余额百分比开仓档位
var DefaultPositionSizePresets = []int{10, 20, 25, 33, 50, 66, 100}

// Settings 进程配置
type Settings struct {
	Listen string // HTTP listen address

	APIBaseURL string // OKX REST base URL
	WSBaseURL  string // OKX public websocket URL
	Simulated  bool   // x-simulated-trading (demo trading)

	RequestTimeout  time.Duration // per-request network timeout
	RequestInterval time.Duration // minimum spacing between per-account calls

	DefaultLeverage     int
	PositionSizePresets []int

	SignalSourceURL string // external signal feed (optional)

	AccountsFile string // optional YAML accounts file
	SecretDBPath string // optional encrypted credential store
	SecretDBKey  string // 32-byte key, base64 or hex

	LogLevel string
	LogFile  string
}

// Load reads settings from the environment. A .env file in the working
// directory is applied best-effort first, real env vars win.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{
		Listen:              getenv("LISTEN", ":8000"),
		APIBaseURL:          getenv("OKX_API_URL", "https://www.okx.com"),
		WSBaseURL:           getenv("OKX_WS_URL", "wss://ws.okx.com:8443/ws/v5/public"),
		DefaultLeverage:     10,
		PositionSizePresets: DefaultPositionSizePresets,
		SignalSourceURL:     getenv("SIGNAL_SOURCE_URL", ""),
		AccountsFile:        getenv("ACCOUNTS_FILE", ""),
		SecretDBPath:        getenv("SECRET_DB", ""),
		SecretDBKey:         getenv("SECRET_DB_KEY", ""),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		LogFile:             getenv("LOG_FILE", "logs/gokx.log"),
	}

	s.Simulated = getenv("OKX_SIMULATED", "0") == "1"

	timeoutSec, err := getenvInt("REQUEST_TIMEOUT", 10)
	if err != nil {
		return nil, err
	}
	s.RequestTimeout = time.Duration(timeoutSec) * time.Second

	intervalMs, err := getenvInt("REQUEST_INTERVAL_MS", 500)
	if err != nil {
		return nil, err
	}
	s.RequestInterval = time.Duration(intervalMs) * time.Millisecond

	if s.DefaultLeverage, err = getenvInt("DEFAULT_LEVERAGE", 10); err != nil {
		return nil, err
	}

	if presets := getenv("POSITION_SIZE_PRESETS", ""); presets != "" {
		parsed, err := parsePresets(presets)
		if err != nil {
			return nil, err
		}
		s.PositionSizePresets = parsed
	}

	return s, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "config: %s must be an integer", key)
	}
	return n, nil
}

// parsePresets parses a comma-separated percentage list, e.g. "10,25,50,100".
func parsePresets(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.Wrapf(err, "config: bad preset %q", p)
		}
		if n <= 0 || n > 100 {
			return nil, errors.Errorf("config: preset %d out of range (1-100)", n)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, errors.New("config: POSITION_SIZE_PRESETS is empty")
	}
	return out, nil
}
