// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Walk a located structure into Storage (fname-pool, guobject-array)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "fname-pool",
			Short: "Parse the NamePool into a NameTable",
			Run: func(cmd *cobra.Command, args []string) {
				pid := requirePid(cmd)
				f, err := openAttachVersioned(pid)
				if err != nil {
					die(err)
				}
				if _, err := f.GetFNamePoolAddress(); err != nil {
					die(err)
				}
				n, err := f.ParseFNamePool(context.Background())
				if err != nil {
					die(err)
				}
				fmt.Printf("parsed %d names\n", n)
			},
		},
		&cobra.Command{
			Use:   "guobject-array",
			Short: "Parse GUObjectArray into an ObjectTable, requires fname-pool first",
			Run: func(cmd *cobra.Command, args []string) {
				pid := requirePid(cmd)
				f, err := openAttachVersioned(pid)
				if err != nil {
					die(err)
				}
				if _, err := f.GetFNamePoolAddress(); err != nil {
					die(err)
				}
				if _, err := f.ParseFNamePool(context.Background()); err != nil {
					die(err)
				}
				if _, err := f.GetGUObjectArrayAddress(); err != nil {
					die(err)
				}
				n, err := f.ParseGUObjectArray(context.Background())
				if err != nil {
					die(err)
				}
				fmt.Printf("parsed %d objects\n", n)
			},
		},
	)
	for _, sub := range cmd.Commands() {
		pidFlag(sub)
	}
	return cmd
}
