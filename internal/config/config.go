package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const pathEnv = "CONFIG_PATH"

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Port     string `yaml:"port" env:"PORT" env-default:"4080"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	LogDir   string `yaml:"game-log-dir" env:"GAME_LOG_DIR" env-default:"logs"`
	Game     Game   `yaml:"game"`
	Redis    Redis  `yaml:"redis"`
	Client   Client `yaml:"client"`
}

type Game struct {
	Players         int           `yaml:"players" env:"GAME_PLAYERS" env-default:"4"`
	Rows            int           `yaml:"rows" env:"GAME_ROWS" env-default:"20"`
	Cols            int           `yaml:"cols" env:"GAME_COLS" env-default:"20"`
	Library         string        `yaml:"library" env:"GAME_LIBRARY" env-default:"original"`
	PiecesDir       string        `yaml:"pieces-dir" env:"GAME_PIECES_DIR"`
	Restrict        []int         `yaml:"restrict" env:"GAME_RESTRICT"`
	TurnTimeout     time.Duration `yaml:"turn-timeout" env:"GAME_TURN_TIMEOUT" env-default:"30s"`
	MaxIllegalMoves int           `yaml:"max-illegal-moves" env:"GAME_MAX_ILLEGAL_MOVES" env-default:"3"`
	// Games is the number of consecutive games to host; 0 runs until shutdown.
	Games int `yaml:"games" env:"GAME_COUNT" env-default:"0"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Client struct {
	ServerAddr string `yaml:"server-addr" env:"SERVER_ADDR" env-default:"127.0.0.1:4080"`
}

// MustLoad - load all configurations in config.yml file, or in the file named by CONFIG_PATH.
func MustLoad(path string) *Config {
	if override := os.Getenv(pathEnv); override != "" {
		path = override
	}

	config := &Config{}

	if _, err := os.Stat(path); err != nil {
		if err = cleanenv.ReadEnv(config); err != nil {
			panic(fmt.Errorf("unable to read config from env: %w", err))
		}
		return config
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
