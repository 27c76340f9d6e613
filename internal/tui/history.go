package tui

// Series keeps the most recent samples of one metric, oldest first. Once the
// limit is reached every Add evicts the oldest sample.
type Series struct {
	values []float64
	limit  int
}

// NewSeries returns an empty series holding at most limit samples.
func NewSeries(limit int) *Series {
	return &Series{limit: max(limit, 1)}
}

// Add appends v.
func (s *Series) Add(v float64) {
	if len(s.values) == s.limit {
		// Shift in place; the backing array never grows past limit.
		copy(s.values, s.values[1:])
		s.values[len(s.values)-1] = v
		return
	}
	s.values = append(s.values, v)
}

// Values returns a copy of the samples, oldest first.
func (s *Series) Values() []float64 {
	if len(s.values) == 0 {
		return nil
	}
	return append([]float64(nil), s.values...)
}

// Latest returns the newest sample, or 0 when empty.
func (s *Series) Latest() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[len(s.values)-1]
}

// Len returns the number of samples held.
func (s *Series) Len() int { return len(s.values) }

// Limit returns the maximum number of samples.
func (s *Series) Limit() int { return s.limit }

// SetLimit changes the maximum, dropping the oldest samples that no longer fit.
func (s *Series) SetLimit(limit int) {
	s.limit = max(limit, 1)
	if over := len(s.values) - s.limit; over > 0 {
		s.values = append(s.values[:0], s.values[over:]...)
	}
}

// Clear drops every sample.
func (s *Series) Clear() { s.values = s.values[:0] }
