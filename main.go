package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fpp-ws/internal/config"
	"fpp-ws/internal/fpp"
	"fpp-ws/internal/websocket"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	log.SetLevel(cfg.LogLevel)

	client := fpp.NewClient(fpp.Config{
		Host:     cfg.FPP.Host,
		Port:     cfg.FPP.Port,
		Username: cfg.FPP.Username,
		Password: cfg.FPP.Password,
		Timeout:  cfg.FPP.Timeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := websocket.NewServer(":"+cfg.ServerPort, cfg.AllowedOrigins, client, cfg.PollInterval)

	log.WithField("device", client.BaseURL()).Info("starting fpp-ws")
	if err := server.Run(ctx); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
