// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ueinspect/ueinspect/internal/discovery"
)

func huntCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hunt",
		Short: "Run a CheckValue proximity scan around a pivot address",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			pivotStr, _ := cmd.Flags().GetString("pivot")
			window, _ := cmd.Flags().GetInt64("window")
			stride, _ := cmd.Flags().GetInt64("stride")
			width, _ := cmd.Flags().GetInt("width")
			value, _ := cmd.Flags().GetUint64("value")

			pivot := parseAddressArg(pivotStr)
			f, err := openAttach(pid)
			if err != nil {
				die(err)
			}
			cv := &discovery.CheckValue{
				Pivot:      pivot,
				WindowSize: window,
				Stride:     stride,
				Numeric:    &discovery.NumericPredicate{Width: width, Value: value},
			}
			addr, ok, err := f.HuntValue(cv)
			if err != nil {
				die(err)
			}
			if !ok {
				fmt.Println("no match")
				return
			}
			fmt.Println(addr.String())
		},
	}
	pidFlag(cmd)
	cmd.Flags().String("pivot", "", "address to scan around")
	cmd.Flags().Int64("window", 4096, "bytes scanned on each side of pivot")
	cmd.Flags().Int64("stride", 4, "byte stride between candidate slots")
	cmd.Flags().Int("width", 4, "numeric width in bytes: 4 or 8")
	cmd.Flags().Uint64("value", 0, "exact value to match")
	cmd.MarkFlagRequired("pivot")
	cmd.MarkFlagRequired("value")
	return cmd
}
