package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/matching"
	"github.com/spigell/skillmatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the matching API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		runServeCommand()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "address to listen on")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServeCommand() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, logger, _ := bootstrap()

	logger.Info("starting the skillmatch server", zap.String("version", version))

	store := corpus.NewStore(config.Corpus, logger)
	if _, err := store.Snapshot(ctx); err != nil {
		// Requests answer "no matches found" until the file becomes readable.
		logger.Warn("corpus is not loaded yet", zap.Error(err))
	}

	deps := server.Dependencies{
		Matcher: matching.NewEngine(store, logger),
	}

	client, err := newJSearchClient(config.JSearch, logger)
	if err != nil {
		logger.Warn("live job search disabled", zap.Error(err))
	} else {
		deps.Searcher = client
		deps.Salary = client
	}

	srv, err := server.New(config.Server, logger, deps)
	if err != nil {
		logger.Fatal("creating http server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("http server stopped", zap.Error(err))
	}

	logger.Info("server stopped")
}
