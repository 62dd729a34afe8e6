package main

import (
	"fmt"
	"os"

	"pine/runtime-go/pkg/ast"
	"pine/runtime-go/pkg/market"
	"pine/runtime-go/pkg/runtime"
	"pine/runtime-go/pkg/vm"
)

const cliToolVersion = "pinevm 0.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}
	switch args[0] {
	case "--help", "-h":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	}
	if len(args) != 2 {
		printUsage()
		return 1
	}

	script, err := loadScript(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	snapshot, err := loadCandles(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	scanner := vm.NewScanner(snapshot)
	if _, err := scanner.EvalScript(script); err != nil {
		fmt.Fprintf(os.Stderr, "scan pass failed: %v\n", err)
		return 1
	}

	fmt.Fprintln(os.Stdout, "inputs:")
	for _, in := range scanner.Inputs {
		fmt.Fprintf(os.Stdout, "  %s (%s) default=%s", in.Title, in.Type, formatValue(in.Default))
		if in.Min != nil {
			fmt.Fprintf(os.Stdout, " min=%s", formatValue(in.Min))
		}
		if in.Max != nil {
			fmt.Fprintf(os.Stdout, " max=%s", formatValue(in.Max))
		}
		fmt.Fprintln(os.Stdout)
	}

	renderer := vm.NewRenderer(snapshot, vm.Defaults(scanner.Inputs))
	result, err := renderer.EvalScript(script)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render pass failed: %v\n", err)
		return 1
	}

	fmt.Fprintln(os.Stdout, "plots:")
	for _, cmd := range renderer.Plots {
		fmt.Fprintf(os.Stdout, "  %s %q series=%s", cmd.Type, cmd.Title, formatValue(cmd.Series))
		if cmd.Series2 != nil {
			fmt.Fprintf(os.Stdout, " series2=%s", formatValue(cmd.Series2))
		}
		if cmd.Color != "" {
			fmt.Fprintf(os.Stdout, " color=%s", cmd.Color)
		}
		if cmd.Width != 0 {
			fmt.Fprintf(os.Stdout, " width=%d", cmd.Width)
		}
		if cmd.Opacity != 0 {
			fmt.Fprintf(os.Stdout, " opacity=%.2f", cmd.Opacity)
		}
		fmt.Fprintln(os.Stdout)
	}
	if result != nil && result.Kind() != runtime.KindNil {
		fmt.Fprintf(os.Stdout, "result: %s\n", formatValue(result))
	}
	return 0
}

func loadScript(path string) (vm.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ast.DecodeScript(data)
}

func loadCandles(path string) (*market.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return market.ParseCandles(data)
}

func formatValue(v runtime.Value) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case runtime.BoolValue:
		return fmt.Sprintf("%t", val.Val)
	case runtime.IntegerValue:
		return fmt.Sprintf("%d", val.Val)
	case runtime.FloatValue:
		return fmt.Sprintf("%g", val.Val)
	case runtime.StringValue:
		return fmt.Sprintf("%q", val.Val)
	case runtime.ColorValue:
		return val.Val
	case *runtime.MarketSeriesValue:
		return fmt.Sprintf("%s[%d bars]", val.Name, val.Len())
	case *runtime.SeriesValue:
		return fmt.Sprintf("series[%d bars]", val.Len())
	default:
		return val.Kind().String()
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: pinevm <script.yml> <candles.json>")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Runs the input-scanning pass over the script, then the rendering pass")
	fmt.Fprintln(os.Stderr, "with the declared defaults, and prints the collected parameter schema")
	fmt.Fprintln(os.Stderr, "and draw commands.")
}
