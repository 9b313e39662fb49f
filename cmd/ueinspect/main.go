// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The ueinspect tool inspects the live object graph of a running
// Unreal-Engine-style process. Run "ueinspect help" for a list of
// commands, or "ueinspect shell" for an interactive console.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func main() {
	root := &cobra.Command{
		Use:   "ueinspect",
		Short: "Inspect the live UObject graph of a running process",
	}
	root.AddCommand(
		attachCmd(),
		baseCmd(),
		versionCmd(),
		addressesCmd(),
		parseCmd(),
		packagesCmd(),
		objectsCmd(),
		searchCmd(),
		detailsCmd(),
		instanceCmd(),
		inspectorCmd(),
		elementsCmd(),
		instancesCmd(),
		fnameCmd(),
		objectCmd(),
		huntCmd(),
		processesCmd(),
		shellCmd(),
	)
	if err := root.Execute(); err != nil {
		exitf("%v\n", err)
	}
}
