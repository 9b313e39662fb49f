// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/ueinspect/ueinspect/internal/facade"
	"github.com/ueinspect/ueinspect/internal/model"
)

// shellSession holds the one Facade a REPL invocation keeps alive across
// commands — unlike the one-shot cobra subcommands, which each rebuild
// their own attach from scratch.
type shellSession struct {
	f *facade.Facade
}

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive console against one attached process",
		Run: func(cmd *cobra.Command, args []string) {
			runShell()
		},
	}
}

func runShell() {
	rl, err := readline.New("ueinspect> ")
	if err != nil {
		exitf("readline: %v\n", err)
	}
	defer rl.Close()

	sess := &shellSession{}
	fmt.Println(`ueinspect interactive console. Type "help" for commands, "exit" to quit.`)
	for {
		line, err := rl.Readline()
		if err == io.EOF {
			return
		}
		if err != nil {
			// Ctrl-C and other readline errors: re-prompt rather than
			// exit, the same as a blank line.
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}
		sess.dispatch(line)
	}
}

func (s *shellSession) requireAttached() bool {
	if s.f == nil {
		fmt.Println("not attached; run: attach <pid>")
		return false
	}
	return true
}

func (s *shellSession) dispatch(line string) {
	fields := strings.Fields(line)
	cmd, rest := fields[0], fields[1:]

	switch cmd {
	case "help":
		fmt.Println(`commands:
  attach <pid>
  base
  version
  addresses fname-pool|guobject-array|gworld
  parse fname-pool|guobject-array
  packages
  objects <package> <category>
  search <query> <Object|Member>
  details <address>
  instance <instance-address> <class-address>
  inspector <instance-address>
  elements <array-address> <inner-type> <element-size> <sub-type-address> <count>
  instances <class-address>
  fname <id>
  object <address>
  processes
  exit`)
	case "attach":
		s.cmdAttach(rest)
	case "base":
		s.cmdBase()
	case "version":
		s.cmdVersion()
	case "addresses":
		s.cmdAddresses(rest)
	case "parse":
		s.cmdParse(rest)
	case "packages":
		s.cmdPackages()
	case "objects":
		s.cmdObjects(rest)
	case "search":
		s.cmdSearch(rest)
	case "details":
		s.cmdDetails(rest)
	case "instance":
		s.cmdInstance(rest)
	case "inspector":
		s.cmdInspector(rest)
	case "elements":
		s.cmdElements(rest)
	case "instances":
		s.cmdInstances(rest)
	case "fname":
		s.cmdFname(rest)
	case "object":
		s.cmdObject(rest)
	case "processes":
		procs, err := facade.FetchSystemProcesses()
		if err != nil {
			fmt.Println(err)
			return
		}
		for _, p := range procs {
			fmt.Printf("%d\t%s\n", p.PID, p.Name)
		}
	default:
		fmt.Printf("unknown command %q; try \"help\"\n", cmd)
	}
}

func (s *shellSession) cmdAttach(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: attach <pid>")
		return
	}
	pid, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	f, err := openAttach(pid)
	if err != nil {
		fmt.Println(err)
		return
	}
	s.f = f
	fmt.Printf("attached to pid %d\n", pid)
}

func (s *shellSession) cmdBase() {
	if !s.requireAttached() {
		return
	}
	out, err := s.f.ShowBaseAddress()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Print(out)
}

func (s *shellSession) cmdVersion() {
	if !s.requireAttached() {
		return
	}
	v, err := s.f.GetUEVersion(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(v)
}

func (s *shellSession) cmdAddresses(args []string) {
	if !s.requireAttached() || len(args) != 1 {
		fmt.Println("usage: addresses fname-pool|guobject-array|gworld")
		return
	}
	var addr fmt.Stringer
	var err error
	switch args[0] {
	case "fname-pool":
		addr, err = s.f.GetFNamePoolAddress()
	case "guobject-array":
		addr, err = s.f.GetGUObjectArrayAddress()
	case "gworld":
		addr, err = s.f.GetGWorldAddress()
	default:
		fmt.Println("unknown target", args[0])
		return
	}
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(addr.String())
}

func (s *shellSession) cmdParse(args []string) {
	if !s.requireAttached() || len(args) != 1 {
		fmt.Println("usage: parse fname-pool|guobject-array")
		return
	}
	switch args[0] {
	case "fname-pool":
		n, err := s.f.ParseFNamePool(context.Background())
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("parsed %d names\n", n)
	case "guobject-array":
		n, err := s.f.ParseGUObjectArray(context.Background())
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("parsed %d objects\n", n)
	default:
		fmt.Println("unknown target", args[0])
	}
}

func (s *shellSession) cmdPackages() {
	if !s.requireAttached() {
		return
	}
	rows, err := s.f.GetPackages()
	if err != nil {
		fmt.Println(err)
		return
	}
	renderPackages(rows)
}

func (s *shellSession) cmdObjects(args []string) {
	if !s.requireAttached() || len(args) != 2 {
		fmt.Println("usage: objects <package> <category>")
		return
	}
	rows, err := s.f.GetObjects(args[0], args[1])
	if err != nil {
		fmt.Println(err)
		return
	}
	renderObjects(rows)
}

func (s *shellSession) cmdSearch(args []string) {
	if !s.requireAttached() || len(args) != 2 {
		fmt.Println("usage: search <query> <Object|Member>")
		return
	}
	rows, err := s.f.GlobalSearch(args[0], args[1])
	if err != nil {
		fmt.Println(err)
		return
	}
	renderSearch(rows)
}

func (s *shellSession) cmdDetails(args []string) {
	if !s.requireAttached() || len(args) != 1 {
		fmt.Println("usage: details <address>")
		return
	}
	addr, err := facade.ParseAddress(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	info, err := s.f.GetObjectDetails(addr)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%s (%s) @ %s\n", info.Record.FullName, info.Record.TypeName, info.Record.Address)
	if len(info.Inheritance) > 0 {
		renderHierarchy(info.Inheritance)
	}
	if len(info.Properties) > 0 {
		renderProperties(info.Properties, namesResolver(s.f))
	}
	if len(info.EnumValues) > 0 {
		renderEnumValues(info.EnumValues, namesResolver(s.f))
	}
}

func (s *shellSession) cmdInstance(args []string) {
	if !s.requireAttached() || len(args) != 2 {
		fmt.Println("usage: instance <instance-address> <class-address>")
		return
	}
	inst, err := facade.ParseAddress(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	class, err := facade.ParseAddress(args[1])
	if err != nil {
		fmt.Println(err)
		return
	}
	rows, err := s.f.GetInstanceDetails(inst, class)
	if err != nil {
		fmt.Println(err)
		return
	}
	renderSamples(rows)
}

func (s *shellSession) cmdInspector(args []string) {
	if !s.requireAttached() || len(args) != 1 {
		fmt.Println("usage: inspector <instance-address>")
		return
	}
	addr, err := facade.ParseAddress(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	rows, err := s.f.AddInspector(addr)
	if err != nil {
		fmt.Println(err)
		return
	}
	renderHierarchy(rows)
}

func (s *shellSession) cmdElements(args []string) {
	if !s.requireAttached() || len(args) != 5 {
		fmt.Println("usage: elements <array-address> <inner-type> <element-size> <sub-type-address> <count>")
		return
	}
	arr, err := facade.ParseAddress(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	elemSize, err := strconv.ParseUint(args[2], 0, 32)
	if err != nil {
		fmt.Println(err)
		return
	}
	subType, err := facade.ParseAddress(args[3])
	if err != nil {
		fmt.Println(err)
		return
	}
	count, err := strconv.Atoi(args[4])
	if err != nil {
		fmt.Println(err)
		return
	}
	rows, err := s.f.GetArrayElements(arr, args[1], uint32(elemSize), subType, count)
	if err != nil {
		fmt.Println(err)
		return
	}
	renderSamples(rows)
}

func (s *shellSession) cmdInstances(args []string) {
	if !s.requireAttached() || len(args) != 1 {
		fmt.Println("usage: instances <class-address>")
		return
	}
	class, err := facade.ParseAddress(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	rows, err := s.f.SearchObjectInstances(class)
	if err != nil {
		fmt.Println(err)
		return
	}
	renderInstanceMatches(rows)
}

func (s *shellSession) cmdFname(args []string) {
	if !s.requireAttached() || len(args) != 1 {
		fmt.Println("usage: fname <id>")
		return
	}
	id, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		fmt.Println(err)
		return
	}
	str, err := s.f.AnalyzeFName(model.NameID(id))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(str)
}

func (s *shellSession) cmdObject(args []string) {
	if !s.requireAttached() || len(args) != 1 {
		fmt.Println("usage: object <address>")
		return
	}
	addr, err := facade.ParseAddress(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	rec, err := s.f.AnalyzeObject(addr)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%s\nclass: %s\nouter: %s\nflags: %#x\nresolved: %v\n",
		rec.FullName, rec.ClassPtr, rec.OuterPtr, uint32(rec.Flags), rec.Resolved)
}
