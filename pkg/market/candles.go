package market

import (
	"fmt"

	"github.com/valyala/fastjson"
)

// ParseCandles builds a Snapshot from a JSON document of the form
//
//	[{"open":1.0,"high":2.0,"low":0.5,"close":1.5,"volume":100}, ...]
//
// The volume key is optional; when absent on every candle the snapshot
// carries no volume field at all.
func ParseCandles(data []byte) (*Snapshot, error) {
	var p fastjson.Parser
	root, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("candle document: %w", err)
	}
	candles, err := root.Array()
	if err != nil {
		return nil, fmt.Errorf("candle document must be a JSON array: %w", err)
	}

	snap := &Snapshot{}
	sawVolume := false
	for i, candle := range candles {
		if candle.Type() != fastjson.TypeObject {
			return nil, fmt.Errorf("candle %d: expected object, got %s", i, candle.Type())
		}
		for _, key := range []string{"open", "high", "low", "close"} {
			if !candle.Exists(key) {
				return nil, fmt.Errorf("candle %d: missing %q", i, key)
			}
		}
		snap.Open = append(snap.Open, candle.GetFloat64("open"))
		snap.High = append(snap.High, candle.GetFloat64("high"))
		snap.Low = append(snap.Low, candle.GetFloat64("low"))
		snap.Close = append(snap.Close, candle.GetFloat64("close"))
		if candle.Exists("volume") {
			sawVolume = true
		}
		snap.Volume = append(snap.Volume, candle.GetFloat64("volume"))
	}
	if !sawVolume {
		snap.Volume = nil
	}
	return snap, nil
}
