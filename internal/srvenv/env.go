package srvenv

import (
	"context"

	"github.com/go-fda/fda/internal/database"
	datasetdb "github.com/go-fda/fda/internal/dataset/database"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database *database.DB
	datasets *datasetdb.DB
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func (s *SrvEnv) Datasets() *datasetdb.DB {
	return s.datasets
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func WithDatasets(db *datasetdb.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.datasets = db
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
