package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nonfamousd/copperhead-server/internal/bot"
	chlog "github.com/nonfamousd/copperhead-server/internal/log"
	"github.com/nonfamousd/copperhead-server/internal/protocol"
)

func main() {
	server := flag.String("server", "ws://localhost:8000/ws/", "server WebSocket base URL")
	difficulty := flag.Int("difficulty", protocol.DefaultDifficulty, "bot difficulty (1-10)")
	name := flag.String("name", "", "display name (defaults to CopperBot L<difficulty>)")
	quiet := flag.Bool("quiet", false, "only log errors")
	flag.Parse()

	level := "info"
	if *quiet {
		level = "error"
	}
	chlog.Configure(chlog.Config{Level: level, Service: "copperbot"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := bot.NewClient(*server, *difficulty, *name)
	if err := c.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "copperbot: %v\n", err)
		os.Exit(1)
	}
}
