// Command nutritrack trains the nutrition status model and serves the
// NutriTrack web page and JSON API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ezoic/nutritrack/config"
	"github.com/ezoic/nutritrack/nutrition"
	"github.com/ezoic/nutritrack/pkg/errors"
	"github.com/ezoic/nutritrack/pkg/log"
	"github.com/ezoic/nutritrack/server"
	"github.com/ezoic/nutritrack/visualize"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	printTree := flag.Bool("print-tree", false, "print the fitted tree as text and exit")
	treePNG := flag.String("tree-png", "", "write the tree diagram to this PNG file and exit")
	flag.Parse()

	if err := run(*configPath, *printTree, *treePNG); err != nil {
		log.LogError(err, "nutritrack failed")
		os.Exit(1)
	}
}

func run(configPath string, printTree bool, treePNG string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	closer := log.Configure(cfg.LogOptions())
	defer func() { _ = closer.Close() }()

	logger := log.GetLoggerWithName("main")
	logger.Info("Starting NutriTrack", log.PhaseKey, log.PhaseStartup, "config", configPath)

	model, err := nutrition.Train()
	if err != nil {
		return errors.Wrap(err, "train model")
	}

	if printTree {
		fmt.Print(model.TreeText())
		return nil
	}
	if treePNG != "" {
		png, err := visualize.TreePNG(model.Tree(), model.Columns(), model.ClassNames())
		if err != nil {
			return err
		}
		if err := os.WriteFile(treePNG, png, 0o644); err != nil {
			return errors.Wrapf(err, "write %s", treePNG)
		}
		logger.Info("Tree diagram written", "file", treePNG)
		return nil
	}

	h, err := server.NewHandler(model, cfg.Cache.ChartEntries)
	if err != nil {
		return err
	}
	srv := server.New(cfg.Server, h.Routes())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Signal received, shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		return err
	}
	return <-serveErr
}
