// Command cursor-bot joins a room and moves a cursor in a circle. Run a few
// of them to load-test the server or to watch peers in a browser.
package main

import (
	"context"
	"flag"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colathro/multiplayer-web/internal/client"
	"github.com/colathro/multiplayer-web/internal/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	server := flag.String("server", "ws://localhost:8080/ws/", "websocket endpoint")
	room := flag.String("room", "https://example.com/", "page url to join")
	bots := flag.Int("bots", 1, "number of cursors to run")
	interval := flag.Duration("interval", 50*time.Millisecond, "time between location updates")
	radius := flag.Float64("radius", 200, "circle radius in pixels")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger.Setup(*logLevel, "console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{}, *bots)
	for i := 0; i < *bots; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			run(ctx, *server, *room, n, *interval, *radius)
		}(i)
	}
	for i := 0; i < *bots; i++ {
		<-done
	}
}

func run(ctx context.Context, server, room string, n int, interval time.Duration, radius float64) {
	c, err := client.Dial(ctx, server, room, client.Callbacks{
		OnSpawn: func(id uint64, icon string) {
			log.Debug().Int("bot", n).Uint64("peer", id).Str("icon", icon).Msg("spawn")
		},
		OnDespawn: func(id uint64) {
			log.Debug().Int("bot", n).Uint64("peer", id).Msg("despawn")
		},
	})
	if err != nil {
		log.Error().Int("bot", n).Err(err).Msg("dial failed")
		return
	}
	defer c.Close()
	log.Info().Int("bot", n).Uint64("id", c.ID()).Str("room", room).Msg("joined")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	phase := float64(n) * math.Pi / 8
	for step := 0; ; step++ {
		select {
		case <-ctx.Done():
			return
		case <-c.Done():
			log.Warn().Int("bot", n).Err(c.Err()).Msg("connection lost")
			return
		case <-ticker.C:
			angle := phase + float64(step)*0.05
			x := float32(radius + radius*math.Cos(angle))
			y := float32(radius + radius*math.Sin(angle))
			if err := c.SendLocation(x, y); err != nil {
				log.Warn().Int("bot", n).Err(err).Msg("send failed")
				return
			}
		}
	}
}
