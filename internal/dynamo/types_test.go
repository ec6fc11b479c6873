package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func TestScale(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		param float64
		want  float64
	}{
		{"temperature unit", Temperature, 1.0, 1.0},
		{"temperature hot", Temperature, 2.0, 2.0},
		{"mass unit", Mass, 1.0, 1.0},
		{"mass heavy", Mass, 4.0, 0.5},
		{"mass light", Mass, 0.25, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scale(tt.mode, tt.param)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Scale(%v, %v) = %v, want %v", tt.mode, tt.param, got, tt.want)
			}
		})
	}
}

func TestScale_InvalidParam(t *testing.T) {
	tests := []struct {
		name  string
		param float64
	}{
		{"zero", 0},
		{"negative", -1.5},
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
	}

	for _, tt := range tests {
		for _, mode := range []Mode{Temperature, Mass} {
			_, err := Scale(mode, tt.param)
			if !errors.Is(err, ErrParameterBounds) {
				t.Errorf("%s/%s: expected ErrParameterBounds, got %v", tt.name, mode, err)
			}
			var pe *ParamError
			if !errors.As(err, &pe) || pe.Name != mode.ParamName() {
				t.Errorf("%s/%s: expected ParamError naming %s, got %v", tt.name, mode, mode.ParamName(), err)
			}
		}
	}
}

func TestScale_UnknownMode(t *testing.T) {
	if _, err := Scale(Mode(7), 1.0); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"temperature", Temperature, true},
		{"Temp", Temperature, true},
		{" T ", Temperature, true},
		{"mass", Mass, true},
		{"M", Mass, true},
		{"pressure", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if !tt.ok && !errors.Is(err, ErrUnknownMode) {
			t.Errorf("ParseMode(%q): expected ErrUnknownMode, got %v", tt.in, err)
		}
	}
}

func TestModeText(t *testing.T) {
	for _, m := range []Mode{Temperature, Mass} {
		text, err := m.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", m, err)
		}
		var back Mode
		if err := back.UnmarshalText(text); err != nil || back != m {
			t.Errorf("round trip of %v gave %v, %v", m, back, err)
		}
	}

	if _, err := Mode(3).MarshalText(); err == nil {
		t.Error("expected error marshaling unknown mode")
	}
}

func TestSimError(t *testing.T) {
	err := SimError{Frame: 150, Time: 4.5, Message: "test error", Wrapped: ErrInvalidState}
	expected := "frame 150 (t=4.5000): test error"
	if err.Error() != expected {
		t.Errorf("SimError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("SimError should unwrap to ErrInvalidState")
	}
}

func TestParallelFor_CoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 10007} {
		hits := make([]int32, n)
		ParallelFor(n, 16, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}
