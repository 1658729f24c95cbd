package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/syng-dev/syng/internal/config"
	"github.com/syng-dev/syng/internal/metrics"
	"github.com/syng-dev/syng/internal/player"
	"github.com/syng-dev/syng/internal/playback"
	"github.com/syng-dev/syng/internal/source"
	"github.com/syng-dev/syng/internal/source/file"
	"github.com/syng-dev/syng/internal/source/s3"
	"github.com/syng-dev/syng/internal/source/youtube"
)

func runClient(ctx context.Context, args []string) error {
	fs := newFlagSet("client")
	room := fs.String("room", "", "room code to join (empty creates a fresh room)")
	secret := fs.String("secret", "", "room admin secret")
	configFile := fs.String("config-file", "syng.yaml", "path to the persisted config file")
	key := fs.String("key", "", "registration key (accepted but not sent to the relay)")
	server := fs.String("server", "", "relay server base URL (http://localhost:8080 when neither the config file nor SYNG_SERVER sets one)")
	if err := fs.Parse(args); err != nil {
		return newConfigError(err)
	}
	_ = key // reserved for relay registration-keyfile enforcement, see server.go

	cfg, err := config.Load(*configFile)
	if err != nil {
		return newConfigError(err)
	}
	if *room != "" {
		cfg.Config.Room = *room
	}
	if *secret != "" {
		cfg.Config.Secret = *secret
	}
	if *server != "" {
		cfg.Config.Server = *server
	}
	if cfg.Config.Server == "" {
		cfg.Config.Server = "http://localhost:8080"
	}

	registry := source.NewRegistry()
	registry.Register(file.Name, file.New)
	registry.Register(youtube.Name, youtube.New)
	registry.Register(s3.Name, s3.New)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	p := player.New("mpv", "--fullscreen", "--no-terminal")
	co := playback.New(cfg.Config.Server, cfg.Config.Room, cfg.Config.Secret, registry, p, cfg.RoomConfig(), m)

	for name, rawConfig := range cfg.Sources {
		inst, err := registry.New(name)
		if err != nil {
			continue
		}
		if err := inst.Configure(ctx, rawConfig); err != nil {
			continue
		}
		co.RegisterSource(name, inst)
	}

	if err := co.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
