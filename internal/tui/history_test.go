package tui

import (
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSeries_Basics(t *testing.T) {
	t.Parallel()
	s := NewSeries(3)
	if s.Len() != 0 || s.Latest() != 0 || s.Values() != nil {
		t.Fatalf("new series not empty: %v", s.Values())
	}
	for _, v := range []float64{1, 2, 3, 4} {
		s.Add(v)
	}
	if got := s.Values(); !slices.Equal(got, []float64{2, 3, 4}) {
		t.Errorf("Values() = %v, want [2 3 4]", got)
	}
	if s.Latest() != 4 {
		t.Errorf("Latest() = %v, want 4", s.Latest())
	}

	s.Values()[0] = 99
	if s.Values()[0] != 2 {
		t.Error("Values() exposes internal storage")
	}

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d", s.Len())
	}
}

func TestSeries_SetLimit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		limit int
		want  []float64
	}{
		{"grow keeps all", 10, []float64{1, 2, 3, 4, 5}},
		{"shrink keeps newest", 2, []float64{4, 5}},
		{"same", 5, []float64{1, 2, 3, 4, 5}},
		{"non-positive becomes one", 0, []float64{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewSeries(5)
			for v := 1.0; v <= 5; v++ {
				s.Add(v)
			}
			s.SetLimit(tt.limit)
			if got := s.Values(); !slices.Equal(got, tt.want) {
				t.Errorf("Values() = %v, want %v", got, tt.want)
			}
			s.Add(6)
			if s.Latest() != 6 || s.Len() > s.Limit() {
				t.Errorf("after Add: %v (limit %d)", s.Values(), s.Limit())
			}
		})
	}
}

func TestSeries_KeepsNewestWindowProperty(t *testing.T) {
	t.Parallel()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("values are the last limit samples added", prop.ForAll(
		func(limit int, samples []float64) bool {
			s := NewSeries(limit)
			for _, v := range samples {
				s.Add(v)
			}
			want := samples
			if len(want) > limit {
				want = want[len(want)-limit:]
			}
			if len(want) == 0 {
				return s.Values() == nil
			}
			return slices.Equal(s.Values(), want)
		},
		gen.IntRange(1, 16),
		gen.SliceOf(gen.Float64Range(0, 100)),
	))

	properties.TestingRun(t)
}
