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

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Opener resolves a source path to a readable stream. rootPath is passed
// verbatim; an include path is the including file's directory (with its
// trailing separator, if any) concatenated with the include token. The
// core package never touches the file system directly — callers own that
// policy entirely, per the "file-name resolution callback" boundary this
// package is built against.
type Opener func(path string) (io.ReadCloser, error)

// LineMap records that source line LocalLine of File became MergedLine of
// the buffer ReadSource produces. Entries are appended in traversal order
// and are only ever scanned in reverse, by DecodeLine.
type LineMap struct {
	File       string
	LocalLine  int
	MergedLine int
}

// ReadError reports a source-reading failure — a missing include target or
// a malformed include directive — at the (file, local line) of the
// including line itself, not the file that couldn't be opened. Unlike
// Error's merged-buffer Line, ReadError's Line is already a local source
// coordinate: no line-map decoding is needed.
type ReadError struct {
	File string
	Line int
	Msg  string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s line %d: %s", e.File, e.Line, e.Msg)
}

// openFailure marks an opener(path) failure as it travels up the recursion
// so that exactly one level — the caller that knows the include directive's
// own (file, line) — can convert it into a ReadError. Once converted it is
// plain *ReadError again and propagates untouched.
type openFailure struct {
	path  string
	cause error
}

func (e openFailure) Error() string {
	return fmt.Sprintf("open %s: %v", e.path, e.cause)
}

// ReadSource reads rootPath through opener, recursively expanding
// `include <path>` directives (the path resolved relative to the
// including file's own directory), and returns the merged byte buffer
// along with the line map needed to translate a buffer line number back
// into (file, local line). Pass Verbose(logger) to log each resolved
// include.
func ReadSource(opener Opener, rootPath string, opts ...Option) ([]byte, []LineMap, error) {
	cfg := newConfig(opts)
	var buf []byte
	var lineMap []LineMap
	mergedLine := 1
	if err := readWithInclude(cfg, opener, rootPath, &buf, &lineMap, &mergedLine, 0); err != nil {
		var of openFailure
		if errors.As(err, &of) {
			return nil, nil, errors.Wrapf(of.cause, "file %s not found", of.path)
		}
		return nil, nil, err
	}
	return buf, lineMap, nil
}

func readWithInclude(cfg *config, opener Opener, filePath string, buf *[]byte, lineMap *[]LineMap, mergedLine *int, depth int) error {
	dir, file := splitDir(filePath)
	localLine := 1
	*lineMap = append(*lineMap, LineMap{File: file, LocalLine: localLine, MergedLine: *mergedLine})
	if cfg.log != nil {
		cfg.log.WithField("file", file).WithField("depth", depth).Debug("self-vm: resolved include")
	}

	rc, err := opener(filePath)
	if err != nil {
		return openFailure{path: filePath, cause: err}
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		cmd, rest, ok := firstToken(line)
		if ok && cmd == "include" {
			arg, _, ok := firstToken(rest)
			if !ok {
				return &ReadError{File: file, Line: localLine, Msg: "malformed include directive"}
			}
			if err := readWithInclude(cfg, opener, dir+arg, buf, lineMap, mergedLine, depth+1); err != nil {
				var of openFailure
				if errors.As(err, &of) {
					return &ReadError{File: file, Line: localLine, Msg: fmt.Sprintf("include of missing file %s", dir+arg)}
				}
				return err
			}
			localLine++
			*lineMap = append(*lineMap, LineMap{File: file, LocalLine: localLine, MergedLine: *mergedLine})
			continue
		}
		*buf = append(*buf, line...)
		*buf = append(*buf, '\n')
		localLine++
		*mergedLine++
	}
	if err := sc.Err(); err != nil {
		return errors.Wrapf(err, "reading %s", filePath)
	}
	return nil
}

// splitDir splits filePath into a directory (retaining its trailing
// separator, if any) and a base file name, without touching the file
// system — this mirrors original_source/vm.cpp's stripFile exactly rather
// than using path/filepath, since the original treats '/' and '\\'
// identically regardless of host OS.
func splitDir(filePath string) (dir, file string) {
	i := strings.LastIndexAny(filePath, `/\`)
	if i < 0 {
		return "", filePath
	}
	return filePath[:i+1], filePath[i+1:]
}

func firstToken(s string) (tok string, rest string, ok bool) {
	i := 0
	for i < len(s) && s[i] <= 32 {
		i++
	}
	j := i
	for j < len(s) && s[j] > 32 {
		j++
	}
	if j == i {
		return "", "", false
	}
	return s[i:j], s[j:], true
}

// DecodeLine converts a merged-buffer line number into the original
// source coordinate it came from, by taking the last line map entry whose
// MergedLine is <= mergedLine (original_source/vm.cpp's
// decodeErrorFileAndLine, scanned in reverse).
func DecodeLine(lineMap []LineMap, mergedLine int) (file string, localLine int) {
	for i := len(lineMap) - 1; i >= 0; i-- {
		p := lineMap[i]
		if mergedLine >= p.MergedLine {
			return p.File, mergedLine - p.MergedLine + p.LocalLine
		}
	}
	return "", mergedLine
}
