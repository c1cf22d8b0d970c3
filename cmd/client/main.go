package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	app "github.com/rocketscienceinc/blokus-backend/internal"
	"github.com/rocketscienceinc/blokus-backend/internal/config"
)

// main - joins a game server and plays one game with the dummy bot.
func main() {
	configPath := flag.String("config", "config.yml", "path to config file")
	server := flag.String("server", "", "server address, overrides client.server-addr")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	if *server != "" {
		conf.Client.ServerAddr = *server
	}

	level := slog.LevelInfo
	if conf.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := app.RunClient(logger, conf); err != nil {
		fmt.Fprintf(os.Stderr, "client failed: %v\n", err)
		os.Exit(1)
	}
}
