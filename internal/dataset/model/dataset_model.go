package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Dataset is a stored collection of discretized curves sharing one grid.
type Dataset struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	GridPoints  []float64   `json:"gridPoints"`
	Samples     [][]float64 `json:"samples"`
	SampleNames []string    `json:"sampleNames,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func NewDataset(name string, gridPoints []float64, samples [][]float64, sampleNames []string, createdAt time.Time) (Dataset, error) {
	if name == "" {
		return Dataset{}, fmt.Errorf("dataset name must not be empty")
	}
	if len(gridPoints) == 0 {
		return Dataset{}, fmt.Errorf("dataset %q: grid points must not be empty", name)
	}
	for i, row := range samples {
		if len(row) != len(gridPoints) {
			return Dataset{}, fmt.Errorf(
				"dataset %q: sample %d has %d values for %d grid points", name, i, len(row), len(gridPoints),
			)
		}
	}
	if sampleNames != nil && len(sampleNames) != len(samples) {
		return Dataset{}, fmt.Errorf("dataset %q: %d names for %d samples", name, len(sampleNames), len(samples))
	}
	return Dataset{
		ID:          uuid.New(),
		Name:        name,
		GridPoints:  gridPoints,
		Samples:     samples,
		SampleNames: sampleNames,
		CreatedAt:   createdAt,
	}, nil
}

func (d Dataset) NSamples() int { return len(d.Samples) }

// Append adds curves sampled on the dataset's grid.
func (d *Dataset) Append(samples [][]float64, names []string) error {
	for i, row := range samples {
		if len(row) != len(d.GridPoints) {
			return fmt.Errorf(
				"dataset %q: appended sample %d has %d values for %d grid points",
				d.Name, i, len(row), len(d.GridPoints),
			)
		}
	}
	if names != nil && len(names) != len(samples) {
		return fmt.Errorf("dataset %q: %d names for %d appended samples", d.Name, len(names), len(samples))
	}
	if names == nil && d.SampleNames != nil {
		names = make([]string, len(samples))
	}
	if names != nil && d.SampleNames == nil {
		d.SampleNames = make([]string, len(d.Samples))
	}
	d.Samples = append(d.Samples, samples...)
	if names != nil {
		d.SampleNames = append(d.SampleNames, names...)
	}
	return nil
}
