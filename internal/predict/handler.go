// Package predict serves functional k-nearest-neighbor regression over the
// stored datasets: queries are curves on the training grid, predictions are
// weighted averages of the nearest training responses.
package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gonum.org/v1/gonum/mat"

	datasetdb "github.com/go-fda/fda/internal/dataset/database"
	"github.com/go-fda/fda/internal/fdata"
	"github.com/go-fda/fda/internal/httputil"
	"github.com/go-fda/fda/internal/logging"
	"github.com/go-fda/fda/internal/neighbors"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	Inputs     string `json:"inputs"`
	Responses  string `json:"responses"`
	NNeighbors int    `json:"nNeighbors,omitempty"`
	Weights    string `json:"weights,omitempty"`
	Data       []struct {
		Name   string    `json:"name,omitempty"`
		Values []float64 `json:"values"`
	} `json:"data"`
}

type response struct {
	Inputs     string    `json:"inputs"`
	Responses  string    `json:"responses"`
	GridPoints []float64 `json:"gridPoints"`
	Data       []struct {
		Name   string    `json:"name,omitempty"`
		Values []float64 `json:"values"`
	} `json:"data"`
}

func NewHandler(cfg *Config, datasets *datasetdb.DB) (http.Handler, error) {
	return &handler{
		cfg:      cfg,
		datasets: datasets,
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

	if len(req.Data) == 0 {
		httputil.RespBadRequest(ctx, w, `{"error": "data must not be empty"}`)
		return
	}
	if len(req.Data) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "data items is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}

	pred, points, err := h.predict(ctx, &req)
	if err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "predict processing error, %v"}`, err)
		return
	}

	resp := response{
		Inputs:     req.Inputs,
		Responses:  req.Responses,
		GridPoints: points,
	}
	rows, cols := pred.Dims()
	for i := 0; i < rows; i++ {
		values := make([]float64, cols)
		for j := 0; j < cols; j++ {
			values[j] = pred.At(i, j)
		}
		resp.Data = append(resp.Data, struct {
			Name   string    `json:"name,omitempty"`
			Values []float64 `json:"values"`
		}{Name: req.Data[i].Name, Values: values})
	}
	bytes, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	logger.Infof("Predicted %d curves from dataset %s", rows, req.Inputs)
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}

// predict fits a functional k-nearest-neighbor regressor on the stored
// training pair and predicts the response curve for every query curve.
func (h *handler) predict(ctx context.Context, req *request) (*mat.Dense, []float64, error) {
	inputs, err := h.datasets.Find(ctx, req.Inputs)
	if err != nil {
		return nil, nil, err
	}
	responses, err := h.datasets.Find(ctx, req.Responses)
	if err != nil {
		return nil, nil, err
	}

	trainX, err := fdata.NewGrid(inputs.Samples, inputs.GridPoints)
	if err != nil {
		return nil, nil, fmt.Errorf("training inputs: %w", err)
	}
	trainY, err := fdata.NewGrid(responses.Samples, responses.GridPoints)
	if err != nil {
		return nil, nil, fmt.Errorf("training responses: %w", err)
	}

	queryRows := make([][]float64, len(req.Data))
	for i, dat := range req.Data {
		queryRows[i] = dat.Values
	}
	queries, err := fdata.NewGrid(queryRows, inputs.GridPoints)
	if err != nil {
		return nil, nil, fmt.Errorf("query curves: %w", err)
	}

	k := req.NNeighbors
	if k <= 0 {
		k = h.cfg.NNeighbors
	}
	weights := neighbors.Uniform
	if req.Weights != "" {
		weights = neighbors.Weights(req.Weights)
	}
	reg := neighbors.NewKNeighborsRegressor(
		neighbors.WithNNeighbors(k),
		neighbors.WithWeights(weights),
		neighbors.WithNJobs(h.cfg.NJobs),
	)
	if err := reg.FitFunctional(trainX, trainY); err != nil {
		return nil, nil, fmt.Errorf("fit: %w", err)
	}
	pred, err := reg.PredictFunctional(queries)
	if err != nil {
		return nil, nil, err
	}
	grid, err := pred.ToGrid(responses.GridPoints)
	if err != nil {
		return nil, nil, err
	}
	return grid.DataMatrix(), responses.GridPoints, nil
}
