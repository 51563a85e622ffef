/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Command dcevmctl is a demonstration front end over the redefinition
// engine: it seeds a small in-process sample runtime, loads a class, and
// submits a redefinition against it so the pipeline can be exercised and
// observed outside of a test binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dcevmctl",
		Short: "Exercise the dynamic code evolution engine against a sample runtime",
	}
	root.AddCommand(newRedefineCmd())
	return root
}
