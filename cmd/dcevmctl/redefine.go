/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dcevm/dcevm/internal/config"
	"github.com/dcevm/dcevm/internal/errs"
	"github.com/dcevm/dcevm/internal/metrics"
	"github.com/dcevm/dcevm/internal/redefine"
	"github.com/dcevm/dcevm/internal/runtimehost"
	"github.com/dcevm/dcevm/internal/trace"
)

func newRedefineCmd() *cobra.Command {
	var (
		advanced       bool
		forwardPoints  bool
		traceLevel     int
		timing         bool
		newBytesPath   string
		configFilePath string
	)

	cmd := &cobra.Command{
		Use:   "redefine",
		Short: "Redefine sample.Point against the built-in sample runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFilePath)
			if err != nil {
				return err
			}
			cfg.Redefinition.AllowAdvancedClassRedefinition = advanced
			cfg.Redefinition.UseMethodForwardPoints = forwardPoints
			cfg.Redefinition.TraceRedefineClasses = traceLevel
			cfg.Redefinition.TimeRedefineClasses = timing

			trace.Init(trace.Config{Level: cfg.Redefinition.TraceRedefineClasses, Timed: cfg.Redefinition.TimeRedefineClasses})

			newBytes, err := resolveNewBytes(newBytesPath)
			if err != nil {
				return err
			}

			rt := newSampleRuntime()
			controller := &redefine.CommitController{
				Registry:       rt.Registry,
				Config:         cfg.Redefinition,
				ClassLoader:    rt.Loader,
				Verifier:       rt.Verifier,
				Roots:          rt.Roots,
				Heap:           rt.Heap,
				Compiler:       rt.Compiler,
				Breakpoints:    rt.Breakpoints,
				NativeBindings: rt.Bindings,
				Threads:        rt.Threads,
				Metrics:        metrics.Noop(),
			}

			result := controller.RedefineClasses([]redefine.ClassDef{
				{ClassName: "sample.Point", Bytes: newBytes},
			})

			printResult(result)
			if result.Code != errs.NONE {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&advanced, "advanced", false, "use advanced redefinition mode instead of compatibility mode")
	cmd.Flags().BoolVar(&forwardPoints, "forward-points", false, "attempt interpreter frame forwarding")
	cmd.Flags().IntVar(&traceLevel, "trace-level", 0, "TraceRedefineClasses verbosity (0-5)")
	cmd.Flags().BoolVar(&timing, "timing", false, "enable per-phase elapsed timers")
	cmd.Flags().StringVar(&newBytesPath, "new-bytes", "", "path to a JSON class spec; defaults to a built-in added-field demo")
	cmd.Flags().StringVar(&configFilePath, "config", "", "path to a dcevmctl config file")

	return cmd
}

// resolveNewBytes reads path if given, otherwise marshals a built-in
// demo spec that adds field z to sample.Point (scenario 3 of the
// seeded end-to-end test suite).
func resolveNewBytes(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	spec := runtimehost.ClassSpec{
		Name:  "sample.Point",
		Super: "sample.Object",
		Fields: []runtimehost.FieldSpec{
			{Name: "x", Descriptor: "I"},
			{Name: "y", Descriptor: "I"},
			{Name: "z", Descriptor: "I"},
		},
		Methods: []runtimehost.MethodSpec{
			{Name: "<init>", Descriptor: "()V"},
			{Name: "magnitude", Descriptor: "()I"},
		},
	}
	return spec.Marshal(), nil
}

func printResult(r redefine.Result) {
	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()

	if r.Code == errs.NONE {
		fmt.Printf("%s tx=%s revision=%d transformers=%v\n", ok("COMMITTED"), r.TransactionID, r.Revision, r.InstanceTransformers)
		return
	}
	fmt.Printf("%s code=%s tx=%s\n", bad("ROLLED BACK"), r.Code, r.TransactionID)
}
