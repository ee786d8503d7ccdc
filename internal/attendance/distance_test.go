package attendance

import (
	"errors"
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
		wantErr  bool
	}{
		{
			name:     "identical vectors",
			a:        []float32{0.1, 0.2, 0.3},
			b:        []float32{0.1, 0.2, 0.3},
			expected: 0.0,
		},
		{
			name:     "pythagorean triple",
			a:        []float32{0, 0},
			b:        []float32{3, 4},
			expected: 5.0,
		},
		{
			name:     "single dimension",
			a:        []float32{1.0},
			b:        []float32{0.59},
			expected: 0.41,
		},
		{
			name:     "symmetric",
			a:        []float32{3, 4},
			b:        []float32{0, 0},
			expected: 5.0,
		},
		{
			name:    "empty a",
			a:       []float32{},
			b:       []float32{1, 2},
			wantErr: true,
		},
		{
			name:    "empty b",
			a:       []float32{1, 2},
			b:       nil,
			wantErr: true,
		},
		{
			name:    "length mismatch",
			a:       []float32{1, 2, 3},
			b:       []float32{1, 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Distance(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Distance(%v, %v) expected error, got %v", tt.a, tt.b, result)
				}
				if !IsMalformedEncoding(err) {
					t.Errorf("Distance(%v, %v) error = %v, want MalformedEncodingError", tt.a, tt.b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Distance(%v, %v) unexpected error: %v", tt.a, tt.b, err)
			}
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("Distance(%v, %v) = %v, want %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestDistanceMismatchReportsReferenceDimension(t *testing.T) {
	probe := []float32{1, 2}
	reference := []float32{1, 2, 3}

	_, err := Distance(probe, reference)
	var malformed *MalformedEncodingError
	if !errors.As(err, &malformed) {
		t.Fatalf("Distance() error = %v, want MalformedEncodingError", err)
	}
	if malformed.Want != 3 {
		t.Errorf("Want = %d, want the reference dimension 3", malformed.Want)
	}
	if malformed.Got != 2 {
		t.Errorf("Got = %d, want the probe dimension 2", malformed.Got)
	}
}
