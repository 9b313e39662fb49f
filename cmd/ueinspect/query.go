// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ueinspect/ueinspect/internal/facade"
	"github.com/ueinspect/ueinspect/internal/model"
)

func namesResolver(f *facade.Facade) func(model.NameID) string {
	return func(id model.NameID) string {
		s, err := f.AnalyzeFName(id)
		if err != nil {
			return "?"
		}
		return s
	}
}

func packagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List every loaded package with its object count",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			f, err := readySession(pid)
			if err != nil {
				die(err)
			}
			rows, err := f.GetPackages()
			if err != nil {
				die(err)
			}
			renderPackages(rows)
		},
	}
	pidFlag(cmd)
	return cmd
}

func objectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "objects",
		Short: "List objects in a package filtered by meta-class",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			pkg, _ := cmd.Flags().GetString("package")
			category, _ := cmd.Flags().GetString("category")
			f, err := readySession(pid)
			if err != nil {
				die(err)
			}
			rows, err := f.GetObjects(pkg, category)
			if err != nil {
				die(err)
			}
			renderObjects(rows)
		},
	}
	pidFlag(cmd)
	cmd.Flags().String("package", "", "package name to list")
	cmd.Flags().String("category", "Class", "meta-class: Class, Struct, Enum, Function")
	cmd.MarkFlagRequired("package")
	return cmd
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search objects and members by substring",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			q, _ := cmd.Flags().GetString("query")
			mode, _ := cmd.Flags().GetString("mode")
			f, err := readySession(pid)
			if err != nil {
				die(err)
			}
			rows, err := f.GlobalSearch(q, mode)
			if err != nil {
				die(err)
			}
			renderSearch(rows)
		},
	}
	pidFlag(cmd)
	cmd.Flags().String("query", "", "substring to search for")
	cmd.Flags().String("mode", "Object", "Object or Member")
	cmd.MarkFlagRequired("query")
	return cmd
}

func detailsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "details",
		Short: "Show the reflected detail view of one object",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			addrStr, _ := cmd.Flags().GetString("address")
			addr := parseAddressArg(addrStr)
			f, err := readySession(pid)
			if err != nil {
				die(err)
			}
			info, err := f.GetObjectDetails(addr)
			if err != nil {
				die(err)
			}
			fmt.Printf("%s (%s) @ %s\n", info.Record.FullName, info.Record.TypeName, info.Record.Address)
			if len(info.Inheritance) > 0 {
				fmt.Println("\nInheritance:")
				renderHierarchy(info.Inheritance)
			}
			if len(info.Properties) > 0 {
				fmt.Println("\nProperties:")
				renderProperties(info.Properties, namesResolver(f))
			}
			if len(info.EnumValues) > 0 {
				fmt.Println("\nEnum values:")
				renderEnumValues(info.EnumValues, namesResolver(f))
			}
			if info.Function != nil {
				fmt.Printf("\nFunction: returns %s, %d parameter(s), exec offset %#x\n",
					info.Function.ReturnTypeName, len(info.Function.Params), info.Function.ExecOffset)
			}
		},
	}
	pidFlag(cmd)
	cmd.Flags().String("address", "", "object address (0x... or decimal)")
	cmd.MarkFlagRequired("address")
	return cmd
}

func instanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Decode a live instance's properties against its class",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			instStr, _ := cmd.Flags().GetString("instance")
			classStr, _ := cmd.Flags().GetString("class")
			inst := parseAddressArg(instStr)
			class := parseAddressArg(classStr)
			f, err := readySession(pid)
			if err != nil {
				die(err)
			}
			rows, err := f.GetInstanceDetails(inst, class)
			if err != nil {
				die(err)
			}
			renderSamples(rows)
		},
	}
	pidFlag(cmd)
	cmd.Flags().String("instance", "", "instance address")
	cmd.Flags().String("class", "", "class address to decode against")
	cmd.MarkFlagRequired("instance")
	cmd.MarkFlagRequired("class")
	return cmd
}

func inspectorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspector",
		Short: "Show an instance's class hierarchy, leaf-most class first",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			addrStr, _ := cmd.Flags().GetString("instance")
			addr := parseAddressArg(addrStr)
			f, err := readySession(pid)
			if err != nil {
				die(err)
			}
			rows, err := f.AddInspector(addr)
			if err != nil {
				die(err)
			}
			renderHierarchy(rows)
		},
	}
	pidFlag(cmd)
	cmd.Flags().String("instance", "", "instance address")
	cmd.MarkFlagRequired("instance")
	return cmd
}

func elementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elements",
		Short: "Decode count elements of a container's inner type",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			arrStr, _ := cmd.Flags().GetString("array")
			innerType, _ := cmd.Flags().GetString("inner-type")
			elemSize, _ := cmd.Flags().GetUint32("element-size")
			subTypeStr, _ := cmd.Flags().GetString("sub-type-address")
			count, _ := cmd.Flags().GetInt("count")
			arr := parseAddressArg(arrStr)
			subType := parseAddressArg(orZero(subTypeStr))
			f, err := readySession(pid)
			if err != nil {
				die(err)
			}
			rows, err := f.GetArrayElements(arr, innerType, elemSize, subType, count)
			if err != nil {
				die(err)
			}
			renderSamples(rows)
		},
	}
	pidFlag(cmd)
	cmd.Flags().String("array", "", "container data pointer")
	cmd.Flags().String("inner-type", "", "inner property type, e.g. IntProperty")
	cmd.Flags().Uint32("element-size", 0, "stride between elements in bytes")
	cmd.Flags().String("sub-type-address", "0", "inner object class / struct / enum address, if any")
	cmd.Flags().Int("count", 0, "number of elements to decode")
	cmd.MarkFlagRequired("array")
	cmd.MarkFlagRequired("inner-type")
	cmd.MarkFlagRequired("element-size")
	cmd.MarkFlagRequired("count")
	return cmd
}

func instancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "Find every live instance of a class or its descendants",
		Run: func(cmd *cobra.Command, args []string) {
			pid := requirePid(cmd)
			classStr, _ := cmd.Flags().GetString("class")
			class := parseAddressArg(classStr)
			f, err := readySession(pid)
			if err != nil {
				die(err)
			}
			rows, err := f.SearchObjectInstances(class)
			if err != nil {
				die(err)
			}
			renderInstanceMatches(rows)
		},
	}
	pidFlag(cmd)
	cmd.Flags().String("class", "", "class address")
	cmd.MarkFlagRequired("class")
	return cmd
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
