package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Engine struct {
	// Symbols is the fixed set of instruments the matcher tracks.
	Symbols []string
	// Strategy selects the book implementation: "locked" or "lockfree".
	Strategy string
	// MatchInterval is the pause between matcher passes over the symbol
	// list. Shorter means lower latency, more idle spin.
	MatchInterval time.Duration
}

type API struct {
	Addr string
	// PriceTick converts integer tick prices to human units in API
	// responses, e.g. "0.01" for cent ticks.
	PriceTick string
}

type Journal struct {
	// Path is the pebble directory for the trade journal. Empty disables
	// journaling.
	Path string
}

type Config struct {
	Engine  Engine
	API     API
	Journal Journal
	LogFile string
}

func Default() Config {
	return Config{
		Engine: Engine{
			Symbols:       []string{"AAPL", "MSFT", "GOOGL"},
			Strategy:      "locked",
			MatchInterval: 10 * time.Millisecond,
		},
		API: API{
			Addr:      ":8080",
			PriceTick: "0.01",
		},
		Journal: Journal{Path: "data/trades"},
		LogFile: "data/engine.log",
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if syms := os.Getenv("SYMBOLS"); syms != "" {
		parts := strings.Split(syms, ",")
		cfg.Engine.Symbols = cfg.Engine.Symbols[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Engine.Symbols = append(cfg.Engine.Symbols, p)
			}
		}
	}
	if strat := os.Getenv("BOOK_STRATEGY"); strat != "" {
		cfg.Engine.Strategy = strat
	}
	if iv := os.Getenv("MATCH_INTERVAL_MS"); iv != "" {
		if ms, err := strconv.Atoi(iv); err == nil && ms > 0 {
			cfg.Engine.MatchInterval = time.Duration(ms) * time.Millisecond
		}
	}
	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	cfg.API.PriceTick = getEnv("PRICE_TICK", cfg.API.PriceTick)
	if path, ok := os.LookupEnv("JOURNAL_PATH"); ok {
		cfg.Journal.Path = path
	}
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
