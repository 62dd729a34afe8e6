package runtime

// SeriesValue is an append-only, time-indexed sequence of samples. Offset 0
// addresses the current (latest) sample; more negative offsets reach further
// into history. Addressing beyond the available history yields na.
type SeriesValue struct {
	Samples []Value
}

func (v *SeriesValue) Kind() Kind { return KindSeries }

// NewSeries builds a computed series from raw float samples.
func NewSeries(samples []float64) *SeriesValue {
	s := &SeriesValue{Samples: make([]Value, 0, len(samples))}
	for _, f := range samples {
		s.Samples = append(s.Samples, FloatValue{Val: f})
	}
	return s
}

func (v *SeriesValue) Len() int {
	return len(v.Samples)
}

// Append adds one sample at the current end of the series.
func (v *SeriesValue) Append(sample Value) {
	v.Samples = append(v.Samples, sample)
}

// At returns the sample at a non-positive relative offset. Out-of-history
// offsets (and positive ones, which address the future) yield na.
func (v *SeriesValue) At(offset int) Value {
	idx := len(v.Samples) - 1 + offset
	if offset > 0 || idx < 0 || idx >= len(v.Samples) {
		return NaN()
	}
	if v.Samples[idx] == nil {
		return NaN()
	}
	return v.Samples[idx]
}

// Last returns the current sample (offset 0).
func (v *SeriesValue) Last() Value {
	return v.At(0)
}

// Floats flattens the samples to float64, with NaN for non-numeric entries.
func (v *SeriesValue) Floats() []float64 {
	out := make([]float64, len(v.Samples))
	for i, sample := range v.Samples {
		if sample == nil {
			out[i] = NaN().Val
			continue
		}
		f, ok := AsFloat(sample)
		if !ok {
			f = NaN().Val
		}
		out[i] = f
	}
	return out
}

// MarketSeriesValue is a series bound directly to a live market-data field.
// It keeps the symbolic variable name it was resolved from, which the
// parameter-declaration logic records instead of the live data.
type MarketSeriesValue struct {
	SeriesValue
	Name string
}

func (v *MarketSeriesValue) Kind() Kind { return KindMarketSeries }

// NewMarketSeries wraps raw field samples together with their variable name.
func NewMarketSeries(name string, samples []float64) *MarketSeriesValue {
	ms := &MarketSeriesValue{Name: name}
	ms.SeriesValue = *NewSeries(samples)
	return ms
}
