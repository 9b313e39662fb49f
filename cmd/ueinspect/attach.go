// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ueinspect/ueinspect/internal/facade"
)

func pidFlag(cmd *cobra.Command) {
	cmd.Flags().Int("pid", 0, "process ID to attach to")
	cmd.MarkFlagRequired("pid")
}

func requirePid(cmd *cobra.Command) int {
	pid, err := cmd.Flags().GetInt("pid")
	if err != nil || pid <= 0 {
		exitf("a positive --pid is required\n")
	}
	return pid
}

// openAttachVersioned attaches and resolves the engine version, the
// shared prerequisite every locator needs before scanning the main
// module: the version selects the LayoutProfile the locators and their
// validators read.
func openAttachVersioned(pid int) (*facade.Facade, error) {
	f, err := openAttach(pid)
	if err != nil {
		return nil, err
	}
	if _, err := f.GetUEVersion(context.Background()); err != nil {
		return nil, fmt.Errorf("determine engine version: %w", err)
	}
	return f, nil
}

func attachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Verify the target process can be attached to",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			f, err := openAttach(pid)
			if err != nil {
				die(err)
			}
			msg, _ := f.ShowBaseAddress()
			fmt.Printf("attached to pid %d\n%s", pid, msg)
		},
	}
	pidFlag(cmd)
	return cmd
}

func baseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "base",
		Short: "Print the module map of the target process",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			f, err := openAttach(pid)
			if err != nil {
				die(err)
			}
			out, err := f.ShowBaseAddress()
			if err != nil {
				die(err)
			}
			fmt.Print(out)
		},
	}
	pidFlag(cmd)
	return cmd
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Detect and print the target's engine major version",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			f, err := openAttachVersioned(pid)
			if err != nil {
				die(err)
			}
			v, _ := f.GetUEVersion(context.Background())
			fmt.Println(v)
		},
	}
	pidFlag(cmd)
	return cmd
}

// locatorCmd builds one "addresses <what>" subcommand: attach, resolve
// version, run the given locator, print the resulting address.
func locatorCmd(use, short string, locate func(pid int) (fmt.Stringer, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			addr, err := locate(pid)
			if err != nil {
				die(err)
			}
			fmt.Println(addr.String())
		},
	}
	pidFlag(cmd)
	return cmd
}

func addressesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "Locate well-known structures (fname-pool, guobject-array, gworld)",
	}
	cmd.AddCommand(
		locatorCmd("fname-pool", "Locate the NamePool", func(pid int) (fmt.Stringer, error) {
			f, err := openAttachVersioned(pid)
			if err != nil {
				return nil, err
			}
			return f.GetFNamePoolAddress()
		}),
		locatorCmd("guobject-array", "Locate the GUObjectArray", func(pid int) (fmt.Stringer, error) {
			f, err := openAttachVersioned(pid)
			if err != nil {
				return nil, err
			}
			return f.GetGUObjectArrayAddress()
		}),
		locatorCmd("gworld", "Locate GWorld", func(pid int) (fmt.Stringer, error) {
			f, err := openAttachVersioned(pid)
			if err != nil {
				return nil, err
			}
			return f.GetGWorldAddress()
		}),
	)
	return cmd
}
