// Command valuecore-demo exercises the value/registry/engine/provenance
// stack end to end: it registers a small set of calculations over a
// supplied JSON input payload, evaluates one, and prints its provenance
// trace. Mirrors the flag+JSON-payload shape of services/calc-engine in the
// teacher, generalised from a fixed FSAP identity check to an arbitrary
// registered calculation.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"valuecore/pkg/core/config"
	"valuecore/pkg/core/engine"
	"valuecore/pkg/core/policy"
	"valuecore/pkg/core/provenance"
	"valuecore/pkg/core/registry"
	"valuecore/pkg/core/value"
)

// payload is the demo's input shape: a flat map of named numeric inputs,
// e.g. {"revenue": 100, "cogs": 60}.
type payload map[string]any

func main() {
	calcName := flag.String("calc", "gross_margin", "Registered calculation to evaluate")
	dataStr := flag.String("data", "", "JSON object of named input values")
	configPath := flag.String("config", "", "Optional YAML policy config file")
	allowPartial := flag.Bool("allow-partial", false, "Substitute none-Values for missing inputs")
	explain := flag.Bool("explain", true, "Print the provenance trace for the result")
	flag.Parse()

	if err := config.LoadEnv(""); err != nil {
		fmt.Fprintf(os.Stderr, "[valuecore-demo] no .env loaded: %v\n", err)
	}

	p := policy.Default
	if *configPath != "" {
		f, err := config.LoadYAML(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[valuecore-demo] config load failed: %v\n", err)
			os.Exit(1)
		}
		p = f.Default.ToPolicy()
	}

	if *dataStr == "" {
		fmt.Fprintln(os.Stderr, "Error: no -data payload provided")
		os.Exit(1)
	}
	var data payload
	if err := json.Unmarshal([]byte(*dataStr), &data); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling data: %v\n", err)
		os.Exit(1)
	}

	reg := registry.New()
	ns := reg.Namespace("demo")
	registerDemoCalculations(ns)
	reg.Materialize()

	eng := engine.New(reg)

	recorder := provenance.NewRecorder(provenance.DefaultConfig)
	ctx := provenance.WithRecorder(context.Background(), recorder)
	ctx = policy.WithPolicy(ctx, p)

	inputs := make(map[string]any, len(data))
	for k, v := range data {
		inputs[k] = v
	}

	result, err := eng.Calculate(ctx, "demo."+*calcName, inputs, &p, *allowPartial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s = %s\n", *calcName, result.String())

	if *explain {
		fmt.Println(recorder.Explain(result.ProvenanceID(), 0))
	}
}

// registerDemoCalculations wires up a small illustrative set of
// calculations: gross_margin = (revenue - cogs) / revenue and net_income =
// revenue - cogs - opex. The JSON inputs are lifted as Dimensionless, so
// gross_margin's result is Dimensionless too, not a Ratio.
func registerDemoCalculations(ns *registry.Namespace) {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	must(ns.Register("gross_margin", []string{"revenue", "cogs"}, func(inputs []value.Value) (value.Value, error) {
		ctx := context.Background()
		diff, err := value.Subtract(ctx, inputs[0], inputs[1])
		if err != nil {
			return value.Value{}, err
		}
		return value.Divide(ctx, diff, inputs[0])
	}))

	must(ns.Register("net_income", []string{"revenue", "cogs", "opex"}, func(inputs []value.Value) (value.Value, error) {
		ctx := context.Background()
		gross, err := value.Subtract(ctx, inputs[0], inputs[1])
		if err != nil {
			return value.Value{}, err
		}
		return value.Subtract(ctx, gross, inputs[2])
	}))
}
