package fda

import (
	"github.com/go-fda/fda/internal/collect"
	"github.com/go-fda/fda/internal/database"
	"github.com/go-fda/fda/internal/predict"
	"github.com/go-fda/fda/internal/setup"
	"github.com/go-fda/fda/internal/smooth"
)

var _ setup.DatabaseConfigProvider = (*Config)(nil)

type Config struct {
	SrvAddr  string `envconfig:"FDA_ADDR" default:":8787"`
	Collect  collect.Config
	Smooth   smooth.Config
	Predict  predict.Config
	Database database.Config
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}
