// Copyright 2025 walteh LLC
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

// Package listing builds input patterns, enumerates the files they match and
// writes them to list files.
package listing

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🧩 BuildPattern joins directory, prefix and suffix into
// <directory>/<prefix>*<suffix> and collapses doubled separators in one pass.
func BuildPattern(directory, prefix, suffix string) string {
	pattern := directory + "/" + prefix + "*" + suffix
	return strings.ReplaceAll(pattern, "//", "/")
}

// 🔍 Enumerate returns every regular file matching pattern, in directory
// order. Wildcards do not match a leading dot. The literal directory part of the pattern must exist and be
// readable, otherwise an *IOError is returned. Matching nothing is not an
// error.
func Enumerate(ctx context.Context, pattern string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	base, rest := doublestar.SplitPattern(pattern)
	if rest == "" {
		return nil, errors.Errorf("pattern %q has no file component", pattern)
	}

	info, err := os.Stat(base)
	if err != nil {
		return nil, &IOError{Op: "stat", Path: base, Err: err}
	}
	if !info.IsDir() {
		return nil, &IOError{Op: "stat", Path: base, Err: errors.Errorf("not a directory")}
	}

	logger.Debug().Str("base", base).Str("pattern", rest).Msg("enumerating files")

	matches, err := doublestar.Glob(os.DirFS(base), rest, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		if errors.Is(err, doublestar.ErrBadPattern) {
			return nil, errors.Errorf("bad pattern %q: %w", pattern, err)
		}
		return nil, &IOError{Op: "read", Path: base, Err: err}
	}

	// keep the directory text as given so listed paths look like the pattern
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if hidden(rest, m) {
			logger.Debug().Str("file", m).Msg("skipping hidden file")
			continue
		}
		files = append(files, joinBase(base, pattern, m))
	}

	logger.Debug().Int("count", len(files)).Msg("files enumerated")

	return files, nil
}

// hidden reports whether a wildcard in pattern matched the leading dot of a
// path element in match. A dot has to be spelled out to be matched, as in a
// shell glob.
func hidden(pattern, match string) bool {
	pparts := strings.Split(pattern, "/")
	mparts := strings.Split(match, "/")
	for i, m := range mparts {
		if !strings.HasPrefix(m, ".") {
			continue
		}
		if i >= len(pparts) || !strings.HasPrefix(pparts[i], ".") {
			return true
		}
	}
	return false
}

// joinBase prefixes a match relative to base with base as it appears in
// pattern
func joinBase(base, pattern, match string) string {
	switch {
	case base == "/":
		return "/" + match
	case base == "." && !strings.HasPrefix(pattern, "./"):
		return match
	default:
		return base + "/" + match
	}
}

// 📝 WriteList writes one path per line to path, truncating any previous
// content. The file is flushed and closed before WriteList returns.
func WriteList(ctx context.Context, path string, files []string) (err error) {
	logger := zerolog.Ctx(ctx)

	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close", Path: path, Err: cerr}
		}
	}()

	w := bufio.NewWriter(f)
	for _, file := range files {
		if _, err := w.WriteString(file + "\n"); err != nil {
			return &IOError{Op: "write", Path: path, Err: err}
		}
	}
	if err := w.Flush(); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	logger.Debug().Str("list_file", path).Int("count", len(files)).Msg("list file written")

	return nil
}

// 📖 ReadList reads a list file written by WriteList
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	var files []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		files = append(files, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return files, nil
}
