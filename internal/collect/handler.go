package collect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	datasetdb "github.com/go-fda/fda/internal/dataset/database"
	"github.com/go-fda/fda/internal/dataset/model"
	"github.com/go-fda/fda/internal/httputil"
	"github.com/go-fda/fda/internal/logging"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	Dataset    string    `json:"dataset"`
	GridPoints []float64 `json:"gridPoints,omitempty"`
	Data       []struct {
		Name   string    `json:"name,omitempty"`
		Values []float64 `json:"values"`
	} `json:"data"`
}

// NewHandler serves curve ingestion: new curves are appended to the named
// dataset, which is created on first use.
func NewHandler(cfg *Config, datasets *datasetdb.DB) (http.Handler, error) {
	return &handler{
		datasets: datasets,
		cfg:      cfg,
	}, nil
}

type handler struct {
	datasets *datasetdb.DB
	cfg      *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	samples := make([][]float64, len(req.Data))
	names := make([]string, len(req.Data))
	named := false
	for i, dat := range req.Data {
		samples[i] = dat.Values
		names[i] = dat.Name
		if dat.Name != "" {
			named = true
		}
	}
	if !named {
		names = nil
	}

	dataset, err := h.datasets.Find(ctx, req.Dataset)
	switch {
	case errors.Is(err, datasetdb.ErrNotFound):
		dataset, err = model.NewDataset(req.Dataset, req.GridPoints, samples, names, time.Now())
		if err != nil {
			httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
			return
		}
	case err != nil:
		httputil.RespInternalError(ctx, w, `{"error": "find dataset: %v"}`, err)
		return
	default:
		if err := dataset.Append(samples, names); err != nil {
			httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
			return
		}
	}

	if err := h.datasets.Store(ctx, dataset); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "store dataset: %v"}`, err)
		return
	}

	logger.Infof("Collected %d curves for dataset %s", len(samples), req.Dataset)
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status": "ok", "dataset": %q, "samples": %d}`, dataset.Name, dataset.NSamples())
}
