// This file is part of self-vm.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command svmrun assembles a source file and runs it on the reference
// interpreter, following original_source/vm.cpp's main(): assemble, run to
// completion, report the result, and exit nonzero on anything but halt.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v2"

	"github.com/tomkod/self-vm/asm"
	"github.com/tomkod/self-vm/vm"
)

func newOpener(includeDirs []string) asm.Opener {
	return func(path string) (io.ReadCloser, error) {
		if f, err := os.Open(path); err == nil {
			return f, nil
		}
		for _, dir := range includeDirs {
			f, err := os.Open(filepath.Join(dir, path))
			if err == nil {
				return f, nil
			}
		}
		return nil, errors.Errorf("%s: not found in cwd or any --include-dir", path)
	}
}

func dumpMachine(w io.Writer, m *vm.Machine, instCount, dataCount int) {
	names := make(map[vm.OpCode]string, 26)
	for _, mn := range vm.Mnemonics() {
		names[mn.Code] = mn.Name
	}

	fmt.Fprintln(w, "------------")
	fmt.Fprintln(w, "memory dump:")
	start := m.DataOffset - instCount*vm.InstSize
	if start < 0 {
		start = 0
	}
	for i := start; i < m.DataOffset; i += vm.InstSize {
		name, ok := names[vm.OpCode(m.Mem[i+2])]
		if !ok {
			name = "invalid"
		}
		fmt.Fprintf(w, "%d [%d]: %d %d %s\n", i, i-m.DataOffset, m.Mem[i], m.Mem[i+1], name)
	}
	fmt.Fprintln(w, "------------")
	end := m.DataOffset + dataCount
	if end > m.MemSize {
		end = m.MemSize
	}
	for i := m.DataOffset; i < end; i++ {
		fmt.Fprintf(w, "%d [%d]: %d\n", i, i-m.DataOffset, m.Mem[i])
	}
}

func run(c *cli.Context) error {
	source := c.Args().First()
	if source == "" {
		return cli.Exit("usage: svmrun [flags] <source>", 1)
	}

	log := logrus.StandardLogger()
	var verboseOpts []asm.Option
	if c.Bool("verbose") {
		log.SetLevel(logrus.DebugLevel)
		verboseOpts = append(verboseOpts, asm.Verbose(log))
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	opener := newOpener(c.StringSlice("include-dir"))
	src, lineMap, err := asm.ReadSource(opener, source, verboseOpts...)
	if err != nil {
		var rerr *asm.ReadError
		if errors.As(err, &rerr) {
			fmt.Printf("error at %s line %d\n", rerr.File, rerr.Line)
			return cli.Exit("", 1)
		}
		fmt.Fprintln(os.Stderr, err)
		return cli.Exit("", 1)
	}

	sym := asm.NewSymbols()
	ops, err := asm.Assemble(src, sym, verboseOpts...)
	if err != nil {
		var aerr *asm.Error
		if errors.As(err, &aerr) {
			file, line := asm.DecodeLine(lineMap, aerr.Line)
			fmt.Printf("error at %s line %d\n", file, line)
			return cli.Exit("", 1)
		}
		fmt.Fprintln(os.Stderr, err)
		return cli.Exit("", 1)
	}

	vmOpts := []vm.Option{
		vm.MaxCycles(c.Int64("max-cycles")),
		vm.MemMargins(c.Int("code-margin"), c.Int("data-margin")),
	}
	if c.Bool("verbose") {
		vmOpts = append(vmOpts, vm.Logger(log))
	}
	m := vm.New(ops, vmOpts...)

	start := time.Now()
	res, err := m.Run()
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.Exit("", 2)
	}

	if c.Bool("stats") {
		mhz := float64(m.Cycles) / elapsed.Seconds() / 1e6
		fmt.Printf("executed %d cycles in %v (%.3f MHz)\n", m.Cycles, elapsed, mhz)
	}

	fmt.Println(res.String())
	if res.Ok() {
		return nil
	}
	if c.Bool("dump") {
		dumpMachine(os.Stdout, m, 128, 32)
	}
	return cli.Exit("", 2)
}

func main() {
	app := &cli.App{
		Name:      "svmrun",
		Usage:     "assemble and run a self-vm source file",
		ArgsUsage: "<source>",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "max-cycles", Value: 500000000, Usage: "cycle budget before reporting infinite loop"},
			&cli.IntFlag{Name: "code-margin", Value: 100000, Usage: "extra code-region headroom in words"},
			&cli.IntFlag{Name: "data-margin", Value: 1000000, Usage: "data-region size in words"},
			&cli.BoolFlag{Name: "dump", Usage: "dump memory on a non-halt result"},
			&cli.BoolFlag{Name: "stats", Usage: "print cycle count and throughput on exit"},
			&cli.StringSliceFlag{Name: "include-dir", Usage: "extra search root for `include` (repeatable)"},
			&cli.BoolFlag{Name: "verbose", Usage: "log assembly and execution diagnostics"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
