package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           int      `env:"PORT" envDefault:"10000"`
	GinMode        string   `env:"GIN_MODE" envDefault:"debug"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Presence sweeper tuning.
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL" envDefault:"5s"`
	DisconnectTimeout time.Duration `env:"DISCONNECT_TIMEOUT" envDefault:"10s"`
	LobbyKickTimeout  time.Duration `env:"LOBBY_KICK_TIMEOUT" envDefault:"60s"`
	RoomMaxAge        time.Duration `env:"ROOM_MAX_AGE" envDefault:"1h"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return env.ParseAs[Config]()
}
