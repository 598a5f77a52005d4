package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"foosball/internal/back"
	"foosball/internal/config"
	"foosball/internal/metrics"
	"foosball/internal/util"
	"foosball/internal/web"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(conf)
	},
}

func serve(conf *config.Config) error {
	start := time.Now()
	m := metrics.NewService()

	b, err := openBack(conf, back.WithMetrics(m))
	if err != nil {
		return err
	}

	server, err := web.NewServer(b, conf, metrics.NewHandler())
	if err != nil {
		return util.ConcatErrors([]error{err, b.Close()})
	}

	signaled := make(chan os.Signal, 1)
	signal.Notify(signaled, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go server.Serve(&wg, done)
	m.SetStartupTime(time.Since(start))

	sig := <-signaled
	log.Infof("received signal %s", sig)

	close(done)
	wg.Wait()

	if err := b.Close(); err != nil {
		return err
	}

	log.Info("shutdown complete")

	return nil
}
