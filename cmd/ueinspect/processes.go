// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ueinspect/ueinspect/internal/facade"
)

func processesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "processes",
		Short: "List candidate processes on the local machine",
		Run: func(cmd *cobra.Command, args []string) {
			procs, err := facade.FetchSystemProcesses()
			if err != nil {
				die(err)
			}
			t := newTable()
			t.AppendHeader(table.Row{"PID", "Name"})
			for _, p := range procs {
				t.AppendRow(table.Row{p.PID, p.Name})
			}
			t.Render()
		},
	}
}
