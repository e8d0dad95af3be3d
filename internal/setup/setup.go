package setup

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/go-fda/fda/internal/database"
	datasetdb "github.com/go-fda/fda/internal/dataset/database"
	"github.com/go-fda/fda/internal/logging"
	"github.com/go-fda/fda/internal/srvenv"
)

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

// Setup processes the environment into config and builds the server
// environment from the providers config implements.
func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %v", err)
		}
		serverEnvOpts = append(serverEnvOpts,
			srvenv.WithDatabase(dbFromEnv),
			srvenv.WithDatasets(datasetdb.New(dbFromEnv)),
		)
	}

	return srvenv.New(serverEnvOpts...), nil
}
