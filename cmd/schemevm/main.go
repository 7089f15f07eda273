// Command schemevm boots a signed bytecode file (§4.8) and runs it to
// completion. Grounded on the teacher's cmd/barn/main.go: flag-parsed
// CLI, log.Printf for startup banners, log.Fatalf for unrecoverable
// errors, trimmed to this package's surface — no DB/server inspection
// flags, since there's no object database or network listener here.
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"schemevm/builtins"
	"schemevm/loader"
	"schemevm/module"
	"schemevm/trace"
	"schemevm/types"
	"schemevm/vm"
)

func main() {
	bcPath := flag.String("bc", "", "Bytecode file to boot (required)")
	moduleName := flag.String("module", "scheme", "Name of the current module bindings are installed into")
	traceEnabled := flag.Bool("trace", false, "Enable execution tracing")
	traceFilter := flag.String("trace-filter", "", "Trace filter pattern (comma-separated globs)")

	flag.Parse()

	if *bcPath == "" {
		log.Fatalf("usage: schemevm -bc <file.bc>")
	}

	var tracer *trace.Tracer
	if *traceEnabled {
		var filters []string
		if *traceFilter != "" {
			filters = strings.Split(*traceFilter, ",")
			for i := range filters {
				filters[i] = strings.TrimSpace(filters[i])
			}
		}
		tracer = trace.New(filters, os.Stderr)
		log.Printf("tracing enabled (filters: %v)", filters)
	} else {
		tracer = trace.NewDisabled()
	}

	registry := module.NewRegistry()
	mod := registry.Get(*moduleName)
	engine := vm.New(mod, tracer)
	builtins.Install(mod, engine)

	f, err := os.Open(*bcPath)
	if err != nil {
		log.Fatalf("opening %s: %v", *bcPath, err)
	}
	defer f.Close()

	log.Printf("schemevm: booting %s", *bcPath)
	if err := loader.Load(f, engine, false); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a boot error to a process exit code. §7's Exit
// condition is raised by (exit code) with an integer payload; an
// uncaught Exit propagates out of Load as a *vm.Condition wrapping it,
// and that code — not a blanket failure status — is what the process
// should report. Any other error is an ordinary uncaught condition, so
// it's logged and reported as a generic failure.
func exitCodeFor(err error) int {
	cond, ok := err.(*vm.Condition)
	if !ok || cond.Value.Kind != types.CondExit {
		log.Printf("%v", err)
		return 1
	}
	code, ok := cond.Value.Payload.(types.SmallInt)
	if !ok {
		return 1
	}
	return int(code)
}
