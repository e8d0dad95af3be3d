package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-fda/fda/internal/buildinfo"
	"github.com/go-fda/fda/internal/collect"
	fda "github.com/go-fda/fda/internal/config"
	"github.com/go-fda/fda/internal/logging"
	"github.com/go-fda/fda/internal/predict"
	"github.com/go-fda/fda/internal/server"
	"github.com/go-fda/fda/internal/setup"
	"github.com/go-fda/fda/internal/shutdown"
	"github.com/go-fda/fda/internal/smooth"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context) error {
	config := fda.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(context.Background())

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	mux := http.NewServeMux()

	collectHandler, err := collect.NewHandler(&config.Collect, env.Datasets())
	if err != nil {
		return fmt.Errorf("collect.NewHandler: %w", err)
	}
	smoothHandler, err := smooth.NewHandler(&config.Smooth, env.Datasets())
	if err != nil {
		return fmt.Errorf("smooth.NewHandler: %w", err)
	}
	predictHandler, err := predict.NewHandler(&config.Predict, env.Datasets())
	if err != nil {
		return fmt.Errorf("predict.NewHandler: %w", err)
	}

	mux.Handle("/collect", collectHandler)
	mux.Handle("/smooth", smoothHandler)
	mux.Handle("/predict", predictHandler)
	mux.Handle("/health", server.HandleHealth(ctx))

	return srv.ServeHTTPHandler(ctx, mux)
}
