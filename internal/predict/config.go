package predict

import "time"

type Config struct {
	RequestTimeout  time.Duration `envconfig:"FDA_PREDICT_REQUEST_TIMEOUT" default:"30s"`
	MaxDataItemsLen int           `envconfig:"FDA_PREDICT_MAX_DATA_ITEMS_LEN" default:"100"`
	NNeighbors      int           `envconfig:"FDA_PREDICT_NEIGHBORS" default:"5"`
	NJobs           int           `envconfig:"FDA_PREDICT_JOBS" default:"4"`
}
