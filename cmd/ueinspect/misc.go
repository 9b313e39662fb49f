// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ueinspect/ueinspect/internal/model"
)

func fnameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fname",
		Short: "Resolve a bare NameID against the parsed NamePool",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			id, _ := cmd.Flags().GetUint32("id")
			f, err := readySession(pid)
			if err != nil {
				die(err)
			}
			s, err := f.AnalyzeFName(model.NameID(id))
			if err != nil {
				die(err)
			}
			fmt.Println(s)
		},
	}
	pidFlag(cmd)
	cmd.Flags().Uint32("id", 0, "NameID to resolve")
	return cmd
}

func objectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object",
		Short: "Print the raw ObjectRecord at an address",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			addrStr, _ := cmd.Flags().GetString("address")
			addr := parseAddressArg(addrStr)
			f, err := readySession(pid)
			if err != nil {
				die(err)
			}
			rec, err := f.AnalyzeObject(addr)
			if err != nil {
				die(err)
			}
			fmt.Printf("%s\nclass: %s\nouter: %s\nflags: %#x\nresolved: %v\n",
				rec.FullName, rec.ClassPtr, rec.OuterPtr, uint32(rec.Flags), rec.Resolved)
		},
	}
	pidFlag(cmd)
	cmd.Flags().String("address", "", "object address")
	cmd.MarkFlagRequired("address")
	return cmd
}
