// Command mcore drives one end-to-end run of the core: launch the
// parser subprocess, decode its XML reply into IIR, lower and run the
// requested script, and report the profiling counters spec §6
// describes — the rough shape of sentra/cmd/sentra/main.go's
// flag-parse-then-dispatch structure, generalized from "run one of
// several VM commands" to "run one parsed program through the
// analysis/interpreter/JIT pipeline".
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"mcore/internal/analysis"
	"mcore/internal/config"
	"mcore/internal/errors"
	"mcore/internal/frontend"
	"mcore/internal/iir"
	"mcore/internal/interp"
	"mcore/internal/jit"
	"mcore/internal/lowering"
	"mcore/internal/metrics"
	"mcore/internal/runtime"
	"mcore/internal/store"
	"mcore/internal/symtab"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "mcore:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.NewRegistry()
	cfg.Register(config.Var{Name: "parser_path", Kind: config.KindString, Default: "mparser"})
	sourceFile, err := cfg.ParseArgs(args)
	if err != nil {
		return err
	}
	if sourceFile == "" {
		return fmt.Errorf("usage: mcore [-name value ...] FILE")
	}

	heartbeat := time.Duration(cfg.GetInt("heartbeat_interval_ms")) * time.Millisecond
	client, err := frontend.Launch(cfg.GetString("parser_path"),
		int(cfg.GetInt("parser_connect_retries")), heartbeat, cfg.GetBool("verbose"))
	if err != nil {
		return fmt.Errorf("launching front end: %w", err)
	}
	defer client.Shutdown()

	reply, err := client.ParseFile(sourceFile)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", sourceFile, err)
	}
	if frontend.IsErrorList(reply) {
		return errors.NewParseError(reply, sourceFile, 0, 0)
	}

	symbols := symtab.NewTable()
	funcs, err := frontend.Decode(reply, symbols)
	if err != nil {
		return err
	}

	byName := map[string]*iir.ProgFunction{}
	var script *iir.ProgFunction
	for _, fn := range funcs {
		byName[fn.Name] = fn
		if fn.IsScript {
			script = fn
		}
		lowering.Lower(symbols, fn)
	}
	if script == nil && len(funcs) > 0 {
		script = funcs[0]
	}
	if script == nil {
		return fmt.Errorf("%s: no script or function to run", sourceFile)
	}

	mtr := metrics.NewRegistry()
	mgr := analysis.NewManager()
	inf := &analysis.Inferer{
		Manager: mgr,
		Libs:    map[string]*iir.LibFunction{},
		Resolve: func(name string) *iir.ProgFunction { return byName[name] },
	}
	spec := jit.New(mgr, inf, mtr, symbols)

	in := interp.New(symbols)
	if cfg.GetBool("jit_enable") {
		in.JIT = spec.Hook
	}
	for name, fn := range byName {
		in.BindGlobal(name, fn)
	}

	runID := uuid.NewString()
	var db *store.Store
	if dsn := cfg.GetString("store_dsn"); dsn != "" {
		db, err = store.Open(dsn)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer db.Close()
	}

	if _, err := in.Call(script, runtime.NewArrayObj(0), 0); err != nil {
		return fmt.Errorf("running %s: %w", sourceFile, err)
	}

	for _, line := range mtr.Report() {
		fmt.Println(line)
	}
	if db != nil {
		snap := map[string]int64{}
		for _, name := range []string{
			metrics.NumStmts, metrics.MaxLoopDepth, metrics.NumCallSites,
			metrics.FuncCompCount, metrics.FuncVersCount, metrics.ArrayCopyCount,
			metrics.AnaTimeTotal, metrics.CompTimeTotal,
		} {
			snap[name] = mtr.Get(name)
		}
		if err := db.SaveCounters(runID, snap); err != nil {
			return fmt.Errorf("saving counters: %w", err)
		}
	}
	return nil
}
