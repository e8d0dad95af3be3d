package model

import (
	"testing"
	"time"
)

func TestNewDataset_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		dataset    string
		gridPoints []float64
		samples    [][]float64
		names      []string
		wantErr    bool
	}{
		{
			name:       "valid",
			dataset:    "growth",
			gridPoints: []float64{0, 1, 2},
			samples:    [][]float64{{1, 2, 3}},
		},
		{
			name:       "empty name",
			dataset:    "",
			gridPoints: []float64{0, 1},
			wantErr:    true,
		},
		{
			name:    "no grid points",
			dataset: "growth",
			wantErr: true,
		},
		{
			name:       "row mismatch",
			dataset:    "growth",
			gridPoints: []float64{0, 1, 2},
			samples:    [][]float64{{1, 2}},
			wantErr:    true,
		},
		{
			name:       "name count mismatch",
			dataset:    "growth",
			gridPoints: []float64{0, 1, 2},
			samples:    [][]float64{{1, 2, 3}},
			names:      []string{"a", "b"},
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewDataset(tt.dataset, tt.gridPoints, tt.samples, tt.names, time.Now())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewDataset error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDataset_Append(t *testing.T) {
	t.Parallel()
	d, err := NewDataset("growth", []float64{0, 1}, [][]float64{{1, 2}}, nil, time.Now())
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	if err := d.Append([][]float64{{3, 4}, {5, 6}}, nil); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if d.NSamples() != 3 {
		t.Fatalf("NSamples = %d, want 3", d.NSamples())
	}
	if err := d.Append([][]float64{{1, 2, 3}}, nil); err == nil {
		t.Fatal("expected an error for a sample off the grid")
	}
	if err := d.Append([][]float64{{7, 8}}, []string{"late"}); err != nil {
		t.Fatalf("Append with names: %v", err)
	}
	if len(d.SampleNames) != 4 || d.SampleNames[3] != "late" {
		t.Fatalf("SampleNames = %v, want padded names ending in late", d.SampleNames)
	}
}
