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

package asm

import "github.com/sirupsen/logrus"

// Option configures optional diagnostics for ReadSource and Assemble,
// following the same functional-options shape as vm.Option.
type Option func(*config)

type config struct {
	log *logrus.Logger
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Verbose enables debug-level logging to l: ReadSource logs one line per
// resolved include (file, nesting depth), and Assemble logs one line per
// defined label or constant. Omit it (the default) for silent operation.
func Verbose(l *logrus.Logger) Option {
	return func(c *config) { c.log = l }
}
