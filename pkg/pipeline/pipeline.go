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

package pipeline

import (
	"context"
	"io/fs"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/mergerc/pkg/config"
	"github.com/walteh/mergerc/pkg/listing"
	"github.com/walteh/mergerc/pkg/log"
	"github.com/walteh/mergerc/pkg/merge"
	"gitlab.com/tozd/go/errors"
)

// 🚦 Stage is how far a job got
type Stage int

const (
	StageStart Stage = iota
	StagePatternBuilt
	StageListWritten
	StageInvoked
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StagePatternBuilt:
		return "pattern-built"
	case StageListWritten:
		return "list-written"
	case StageInvoked:
		return "invoked"
	default:
		return "unknown"
	}
}

// 📋 ListState compares a list file on disk with the files a plan found
type ListState int

const (
	ListMissing ListState = iota
	ListCurrent
	ListStale
)

func (s ListState) String() string {
	switch s {
	case ListMissing:
		return "missing"
	case ListCurrent:
		return "current"
	case ListStale:
		return "stale"
	default:
		return "unknown"
	}
}

// 📦 Result describes one job run
type Result struct {
	Job        string
	Pattern    string
	Files      []string
	ListFile   string
	Invocation *merge.Invocation
	Stage      Stage
	Skipped    bool
	ExitCode   int
	Elapsed    time.Duration

	// set by Plan only
	ListState ListState
	Listed    []string // current content of the list file
}

// 🚀 Run takes one job through pattern, list file and invocation. The files
// are enumerated once; the list file and the count handed to the tool both
// come from that one enumeration. The tool runs only after the list file is
// closed.
func (r *Runner) Run(ctx context.Context, job *config.Job) (*Result, error) {
	ctx = zerolog.Ctx(ctx).With().Str("job", job.Name).Logger().WithContext(ctx)
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)
	start := time.Now()

	logger.Debug().Stringer("merge", job).Msg("running merge job")

	res := &Result{Job: job.Name, ListFile: job.ListFile, Stage: StageStart}
	defer func() {
		res.Elapsed = time.Since(start)
		console.EndJob(ctx, job.Name)
	}()

	res.Pattern = listing.BuildPattern(job.Directory, job.Prefix, job.Suffix)
	res.Stage = StagePatternBuilt
	logger.Debug().Str("pattern", res.Pattern).Msg("pattern built")

	console.StartJob(ctx, log.JobOperation{
		Name:       job.Name,
		Pattern:    res.Pattern,
		ListFile:   job.ListFile,
		OutputFile: job.OutputFile,
	})

	files, err := listing.Enumerate(ctx, res.Pattern)
	if err != nil {
		return res, errors.Errorf("enumerating %s: %w", res.Pattern, err)
	}
	res.Files = files

	for _, f := range files {
		console.LogFile(ctx, job.Name, f)
	}

	if err := listing.WriteList(ctx, job.ListFile, files); err != nil {
		return res, errors.Errorf("writing list file: %w", err)
	}
	res.Stage = StageListWritten

	res.Invocation = merge.NewInvocation(job, len(files))

	if len(files) == 0 {
		if job.SkipEmpty {
			res.Skipped = true
			logger.Info().Str("pattern", res.Pattern).Msg("no files matched, skipping merge")
			return res, nil
		}
		logger.Warn().Str("pattern", res.Pattern).Msg("no files matched, merging zero files")
	}

	if err := ctx.Err(); err != nil {
		return res, errors.Errorf("job cancelled before invocation: %w", err)
	}

	logger.Info().
		Int("count", len(files)).
		Str("list_file", job.ListFile).
		Str("output_file", job.OutputFile).
		Str("command", res.Invocation.CommandLine()).
		Msg("invoking merge tool")

	code, err := r.invoker.Invoke(ctx, res.Invocation, job.Timeout)
	res.Stage = StageInvoked
	res.ExitCode = code
	if err != nil {
		return res, errors.Errorf("invoking %s: %w", job.Tool, err)
	}

	return res, nil
}

// 🔍 Plan builds the pattern, enumerates the files and renders the
// invocation without writing or running anything. An existing list file is
// read back and compared with the files found.
func (r *Runner) Plan(ctx context.Context, job *config.Job) (*Result, error) {
	res := &Result{Job: job.Name, ListFile: job.ListFile, Stage: StageStart}

	res.Pattern = listing.BuildPattern(job.Directory, job.Prefix, job.Suffix)
	res.Stage = StagePatternBuilt

	files, err := listing.Enumerate(ctx, res.Pattern)
	if err != nil {
		return res, errors.Errorf("enumerating %s: %w", res.Pattern, err)
	}
	res.Files = files
	res.Invocation = merge.NewInvocation(job, len(files))
	res.Skipped = len(files) == 0 && job.SkipEmpty

	listed, err := listing.ReadList(job.ListFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		res.ListState = ListMissing
	case err != nil:
		return res, errors.Errorf("reading list file: %w", err)
	case slices.Equal(listed, files):
		res.ListState = ListCurrent
		res.Listed = listed
	default:
		res.ListState = ListStale
		res.Listed = listed
	}

	return res, nil
}

// 🔀 ListDiff returns the planned files missing from the list file and the
// listed files that no longer match
func (res *Result) ListDiff() (added, removed []string) {
	listed := make(map[string]bool, len(res.Listed))
	for _, f := range res.Listed {
		listed[f] = true
	}
	found := make(map[string]bool, len(res.Files))
	for _, f := range res.Files {
		found[f] = true
		if !listed[f] {
			added = append(added, f)
		}
	}
	for _, f := range res.Listed {
		if !found[f] {
			removed = append(removed, f)
		}
	}
	return added, removed
}
