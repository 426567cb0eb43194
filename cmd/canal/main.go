package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	gocanal "github.com/samsamfire/gocanal"
	"github.com/samsamfire/gocanal/pkg/can"
	"github.com/samsamfire/gocanal/pkg/can/canal"
	"github.com/samsamfire/gocanal/pkg/config"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Command line arguments
	configPath := flag.String("c", "", "INI configuration file")
	canInterface := flag.String("i", "", "CAN interface e.g. canal, virtual, socketcan")
	library := flag.String("l", "", "CANAL driver library, or channel for virtual/socketcan")
	openConfig := flag.String("o", "", "CANAL config string <mode>;<serial>;<bitrate>")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *canInterface != "" {
		cfg.Interface = *canInterface
	}
	if *library != "" {
		cfg.Library = *library
	}
	if *openConfig != "" {
		cfg.OpenConfig = *openConfig
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	ctx, stop := signalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		stop()
		log.Fatal(err)
	}
}

// Done on the first SIGINT or SIGTERM. The handler is then removed so that
// a second Ctrl+C kills the process even when the driver blocks in a call.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	context.AfterFunc(ctx, stop)
	return ctx, stop
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	source, err := cfg.LabelSource()
	if err != nil {
		return err
	}
	bus, err := can.NewBus(cfg.Interface, cfg.Library)
	if err != nil {
		return err
	}
	if canalBus, ok := bus.(*canal.Bus); ok {
		canalBus.SetPollInterval(cfg.PollInterval)
	}
	log.WithFields(log.Fields{
		"interface": cfg.Interface,
		"channel":   cfg.Library,
		"config":    cfg.OpenConfig,
	}).Debug("starting client")

	client := gocanal.NewClient(bus, out, source)
	// Covers every exit path, Close only reaches the driver once
	defer client.Close()

	err = client.Open(cfg.OpenConfig, cfg.OpenFlags)
	if err != nil {
		return err
	}
	_ = client.SendOnce(cfg.Frame())
	if err := client.Run(ctx); err != nil {
		// Advisory, the channel is released either way
		log.Warnf("close : %v", err)
	}
	return nil
}
