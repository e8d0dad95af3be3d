package smooth

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"FDA_SMOOTH_REQUEST_TIMEOUT" default:"30s"`
	DefaultNBasis  int           `envconfig:"FDA_SMOOTH_DEFAULT_NBASIS" default:"7"`
	DefaultOrder   int           `envconfig:"FDA_SMOOTH_DEFAULT_ORDER" default:"4"`
}
