// Package smooth serves basis smoothing over stored datasets: it fits a
// basis expansion to the curves of a dataset and returns the coefficients.
package smooth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-fda/fda/internal/basis"
	datasetdb "github.com/go-fda/fda/internal/dataset/database"
	"github.com/go-fda/fda/internal/fdata"
	"github.com/go-fda/fda/internal/httputil"
	"github.com/go-fda/fda/internal/logging"
	"github.com/go-fda/fda/pkg/math/lsq"
)

const maxBodyBytes = 1024 * 1024

type request struct {
	Dataset string  `json:"dataset"`
	Basis   string  `json:"basis"`
	NBasis  int     `json:"nBasis,omitempty"`
	Order   int     `json:"order,omitempty"`
	Period  float64 `json:"period,omitempty"`
	Method  string  `json:"method,omitempty"`
}

type response struct {
	Dataset      string      `json:"dataset"`
	Basis        string      `json:"basis"`
	NBasis       int         `json:"nBasis"`
	Domain       [2]float64  `json:"domain"`
	Coefficients [][]float64 `json:"coefficients"`
	SampleNames  []string    `json:"sampleNames,omitempty"`
}

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

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	dataset, err := h.datasets.Find(ctx, req.Dataset)
	if err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
		return
	}
	if dataset.NSamples() == 0 {
		httputil.RespBadRequest(ctx, w, `{"error": "dataset %q has no samples"}`, req.Dataset)
		return
	}

	domain := basis.Interval{
		Lo: dataset.GridPoints[0],
		Hi: dataset.GridPoints[len(dataset.GridPoints)-1],
	}
	b, err := h.basisFor(req, domain)
	if err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
		return
	}

	method := lsq.Method(req.Method)
	rep, err := fdata.FromData(dataset.Samples, dataset.GridPoints, b, method)
	if err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "smoothing failed: %v"}`, err)
		return
	}

	coefs := rep.Coefficients()
	rows, cols := coefs.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			out[i][j] = coefs.At(i, j)
		}
	}

	resp := response{
		Dataset:      dataset.Name,
		Basis:        b.String(),
		NBasis:       b.NBasis(),
		Domain:       [2]float64{domain.Lo, domain.Hi},
		Coefficients: out,
		SampleNames:  dataset.SampleNames,
	}
	bytes, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	logger.Infof("Smoothed dataset %s into %d basis functions", dataset.Name, b.NBasis())
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}

func (h *handler) basisFor(req request, domain basis.Interval) (basis.Basis, error) {
	nBasis := req.NBasis
	if nBasis == 0 {
		nBasis = h.cfg.DefaultNBasis
	}
	switch req.Basis {
	case "bspline", "":
		order := req.Order
		if order == 0 {
			order = h.cfg.DefaultOrder
		}
		return basis.NewBSpline(domain, nBasis, order)
	case "fourier":
		return basis.NewFourier(domain, nBasis, req.Period)
	case "monomial":
		return basis.NewMonomial(domain, nBasis)
	case "constant":
		return basis.NewConstant(domain), nil
	default:
		return nil, fmt.Errorf("unknown basis %q, expected bspline, fourier, monomial or constant", req.Basis)
	}
}
