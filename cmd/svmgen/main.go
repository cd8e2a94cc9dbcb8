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

// Command svmgen writes the self-interpreter generator's output, an
// assembly program implementing a self-hosting interpreter, to a file or
// to standard output.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v2"

	"github.com/tomkod/self-vm/selfgen"
)

func run(c *cli.Context) error {
	if c.Bool("stdout") {
		if err := selfgen.Generate(os.Stdout); err != nil {
			return errors.Wrap(err, "generate")
		}
		return nil
	}

	out := c.Args().First()
	if out == "" {
		return cli.Exit("usage: svmgen [flags] <output>", 1)
	}

	f, err := os.Create(out)
	if err != nil {
		return errors.Wrapf(err, "create %s", out)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := selfgen.Generate(w); err != nil {
		return errors.Wrap(err, "generate")
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "flush %s", out)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", out)
	return nil
}

func main() {
	app := &cli.App{
		Name:      "svmgen",
		Usage:     "write the self-interpreter generator's output",
		ArgsUsage: "<output>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "stdout", Usage: "write to standard output instead of a file"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
