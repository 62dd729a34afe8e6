package market

import "testing"

const sampleCandles = `[
	{"open": 1.0, "high": 2.0, "low": 0.5, "close": 1.5, "volume": 100},
	{"open": 1.5, "high": 2.5, "low": 1.0, "close": 2.0, "volume": 150}
]`

func TestParseCandles(t *testing.T) {
	snap, err := ParseCandles([]byte(sampleCandles))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if snap.BarCount() != 2 {
		t.Fatalf("unexpected bar count %d", snap.BarCount())
	}
	closes, ok := snap.Field("close")
	if !ok || closes[0] != 1.5 || closes[1] != 2.0 {
		t.Fatalf("unexpected closes %v", closes)
	}
	volumes, ok := snap.Field("volume")
	if !ok || volumes[1] != 150 {
		t.Fatalf("unexpected volumes %v", volumes)
	}
}

func TestParseCandlesWithoutVolume(t *testing.T) {
	snap, err := ParseCandles([]byte(`[{"open":1,"high":2,"low":0.5,"close":1.5}]`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, ok := snap.Field("volume"); ok {
		t.Fatalf("volume should be absent")
	}
	if _, ok := snap.Field("close"); !ok {
		t.Fatalf("close should be present")
	}
}

func TestParseCandlesRejectsMissingField(t *testing.T) {
	if _, err := ParseCandles([]byte(`[{"open":1,"high":2,"low":0.5}]`)); err == nil {
		t.Fatalf("expected error for candle without close")
	}
}

func TestParseCandlesRejectsNonArray(t *testing.T) {
	if _, err := ParseCandles([]byte(`{"open":1}`)); err == nil {
		t.Fatalf("expected error for non-array document")
	}
}

func TestFieldUnknown(t *testing.T) {
	snap := &Snapshot{Close: []float64{1}}
	if _, ok := snap.Field("vwap"); ok {
		t.Fatalf("unknown field must report absence")
	}
}
