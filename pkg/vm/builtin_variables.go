package vm

import (
	"pine/runtime-go/pkg/runtime"
)

// defaultVariables seeds the global scope. Market fields are accessors so
// every lookup reflects the live context; constants are plain values.
var defaultVariables = map[string]runtime.Value{
	"open":   fieldAccessor("open"),
	"high":   fieldAccessor("high"),
	"low":    fieldAccessor("low"),
	"close":  fieldAccessor("close"),
	"volume": fieldAccessor("volume"),
	"hl2":    blendAccessor("hl2", []string{"high", "low"}),
	"hlc3":   blendAccessor("hlc3", []string{"high", "low", "close"}),
	"ohlc4":  blendAccessor("ohlc4", []string{"open", "high", "low", "close"}),

	"n": runtime.AccessorValue{Name: "n", Get: func(h runtime.Host) (runtime.Value, error) {
		return runtime.IntegerValue{Val: int64(h.MarketData().BarCount() - 1)}, nil
	}},

	"na": runtime.NaN(),

	// Plot style enumeration.
	"line":      runtime.IntegerValue{Val: StyleLine},
	"stepline":  runtime.IntegerValue{Val: StyleStepline},
	"histogram": runtime.IntegerValue{Val: StyleHistogram},
	"circles":   runtime.IntegerValue{Val: StyleCircles},
	"area":      runtime.IntegerValue{Val: StyleArea},
	"columns":   runtime.IntegerValue{Val: StyleColumns},
	// "cross" names the crossing function; the style constant gets a prefix.
	"style_cross": runtime.IntegerValue{Val: StyleCross},

	"black":   runtime.ColorValue{Val: "#000000"},
	"blue":    runtime.ColorValue{Val: "#0000FF"},
	"aqua":    runtime.ColorValue{Val: "#00FFFF"},
	"fuchsia": runtime.ColorValue{Val: "#FF00FF"},
	"gray":    runtime.ColorValue{Val: "#808080"},
	"green":   runtime.ColorValue{Val: "#008000"},
	"lime":    runtime.ColorValue{Val: "#00FF00"},
	"maroon":  runtime.ColorValue{Val: "#800000"},
	"navy":    runtime.ColorValue{Val: "#000080"},
	"olive":   runtime.ColorValue{Val: "#808000"},
	"orange":  runtime.ColorValue{Val: "#FFA500"},
	"purple":  runtime.ColorValue{Val: "#800080"},
	"red":     runtime.ColorValue{Val: "#FF0000"},
	"silver":  runtime.ColorValue{Val: "#C0C0C0"},
	"teal":    runtime.ColorValue{Val: "#008080"},
	"white":   runtime.ColorValue{Val: "#FFFFFF"},
	"yellow":  runtime.ColorValue{Val: "#FFFF00"},
}

// fieldAccessor builds a market series straight from one data field. A feed
// without the field (no volume, say) surfaces as an unimplemented variable.
func fieldAccessor(field string) runtime.AccessorValue {
	return runtime.AccessorValue{Name: field, Get: func(h runtime.Host) (runtime.Value, error) {
		data, ok := h.MarketData().Field(field)
		if !ok {
			return nil, runtime.ErrNotImplemented
		}
		return runtime.NewMarketSeries(field, data), nil
	}}
}

// blendAccessor averages several fields per bar (hl2, hlc3, ohlc4).
func blendAccessor(name string, fields []string) runtime.AccessorValue {
	return runtime.AccessorValue{Name: name, Get: func(h runtime.Host) (runtime.Value, error) {
		ctx := h.MarketData()
		samples := make([]float64, ctx.BarCount())
		for _, field := range fields {
			data, ok := ctx.Field(field)
			if !ok {
				return nil, runtime.ErrNotImplemented
			}
			for i := range samples {
				if i < len(data) {
					samples[i] += data[i]
				}
			}
		}
		for i := range samples {
			samples[i] /= float64(len(fields))
		}
		return runtime.NewMarketSeries(name, samples), nil
	}}
}
