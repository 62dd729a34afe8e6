package vm

import (
	"pine/runtime-go/pkg/runtime"
)

// Plot style constants, exposed to scripts as builtin variables
// (plot(close, "c", style=histogram) etc.).
const (
	StyleLine int64 = iota + 1
	StyleStepline
	StyleHistogram
	StyleCross
	StyleArea
	StyleColumns
	StyleCircles
)

// DrawCommand is one accumulated chart instruction. Commands are append-only:
// once added to a renderer's output they are never mutated. A command is also
// a script value, so a plot's result can feed a later fill call.
type DrawCommand struct {
	Type    string // line, bar, marker, band, hline, fill
	Title   string
	Series  runtime.Value // plotted series, or the price level for hline
	Series2 runtime.Value // fill only
	Mark    string        // marker glyph ("+" or "o")
	Color   string
	Width   int64
	Opacity float64 // 0 means unset; otherwise transparency% / 100
}

func (c *DrawCommand) Kind() runtime.Kind { return runtime.KindCommand }

// styleType maps a style enumeration value to the drawn element type and an
// optional marker glyph. Unknown styles fall back to a plain line.
func styleType(style int64) (string, string) {
	switch style {
	case StyleLine, StyleStepline:
		return "line", ""
	case StyleHistogram, StyleColumns:
		return "bar", ""
	case StyleCross:
		return "marker", "+"
	case StyleCircles:
		return "marker", "o"
	case StyleArea:
		return "band", ""
	default:
		return "line", ""
	}
}

// resolveColor flattens a color argument to its token text; a series-valued
// color resolves to its most recent sample.
func resolveColor(v runtime.Value) (string, bool) {
	if v == nil {
		return "", false
	}
	if runtime.IsSeries(v) {
		v = seriesOf(v).Last()
	}
	switch c := v.(type) {
	case runtime.ColorValue:
		return c.Val, true
	case runtime.StringValue:
		return c.Val, true
	default:
		return "", false
	}
}

// seriesOf unwraps either series flavour to the underlying SeriesValue.
func seriesOf(v runtime.Value) *runtime.SeriesValue {
	switch s := v.(type) {
	case *runtime.SeriesValue:
		return s
	case *runtime.MarketSeriesValue:
		return &s.SeriesValue
	default:
		return nil
	}
}
