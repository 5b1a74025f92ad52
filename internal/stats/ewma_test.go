package stats

import "testing"

// --- EWMA tests ---

func TestEWMA(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		alpha    float64
		expected float64
	}{
		{
			name:     "single value is itself",
			values:   []float64{10},
			alpha:    0.2,
			expected: 10,
		},
		{
			name:     "alpha 0.5 averages the step",
			values:   []float64{0, 10},
			alpha:    0.5,
			expected: 5,
		},
		{
			name:     "constant series stays constant",
			values:   []float64{7, 7, 7, 7},
			alpha:    0.2,
			expected: 7,
		},
		{
			name:     "empty input returns zero",
			values:   nil,
			alpha:    0.2,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EWMA(tt.values, tt.alpha)
			if !almostEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestEWMA_RecentValuesDominateWithHighAlpha(t *testing.T) {
	values := []float64{100, 100, 100, 0}
	fast := EWMA(values, 0.9)
	slow := EWMA(values, 0.1)
	if fast >= slow {
		t.Errorf("high alpha should track the recent drop harder: fast=%v slow=%v", fast, slow)
	}
}

// --- Bands tests ---

func TestBands_ConstantSeriesHasZeroWidth(t *testing.T) {
	bands, ok := Bands([]float64{10, 10, 10}, DefaultAlpha, 2)
	if !ok {
		t.Fatal("expected bands to be defined")
	}
	if !almostEqual(bands.Mean, 10) {
		t.Errorf("expected mean 10, got %v", bands.Mean)
	}
	if !almostEqual(bands.Lower, 10) || !almostEqual(bands.Upper, 10) {
		t.Errorf("expected zero-width band, got [%v, %v]", bands.Lower, bands.Upper)
	}
	if bands.SampleSize != 3 {
		t.Errorf("expected sample size 3, got %d", bands.SampleSize)
	}
}

func TestBands_TooFewSamples(t *testing.T) {
	if _, ok := Bands([]float64{10}, DefaultAlpha, 2); ok {
		t.Error("expected bands to be undefined for a single sample")
	}
	if _, ok := Bands(nil, DefaultAlpha, 2); ok {
		t.Error("expected bands to be undefined for empty input")
	}
}

func TestBands_WidenWithK(t *testing.T) {
	values := []float64{8, 12, 9, 11}
	narrow, _ := Bands(values, DefaultAlpha, 1)
	wide, _ := Bands(values, DefaultAlpha, 3)
	if wide.Upper-wide.Lower <= narrow.Upper-narrow.Lower {
		t.Errorf("k=3 band should be wider than k=1: narrow=[%v,%v] wide=[%v,%v]",
			narrow.Lower, narrow.Upper, wide.Lower, wide.Upper)
	}
}
