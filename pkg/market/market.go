package market

// Context is the opaque market-data handle handed to a runtime. The engine
// never reads it directly; builtin variables and functions do.
type Context interface {
	// BarCount reports how many bars of history are loaded.
	BarCount() int

	// Field returns the per-bar samples for a named data field
	// (e.g. "open", "close", "volume"). The second result is false when
	// the feed does not carry that field.
	Field(name string) ([]float64, bool)
}

// Snapshot is an in-memory Context over OHLCV candle history.
type Snapshot struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

func (s *Snapshot) BarCount() int {
	return len(s.Close)
}

func (s *Snapshot) Field(name string) ([]float64, bool) {
	var data []float64
	switch name {
	case "open":
		data = s.Open
	case "high":
		data = s.High
	case "low":
		data = s.Low
	case "close":
		data = s.Close
	case "volume":
		data = s.Volume
	default:
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	return data, true
}
