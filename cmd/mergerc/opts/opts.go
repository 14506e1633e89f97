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

package opts

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/walteh/mergerc/pkg/config"
	"github.com/walteh/mergerc/pkg/merge"
	"gitlab.com/tozd/go/errors"
)

// DefaultConfigFile is read when --config is not given
const DefaultConfigFile = ".mergerc.hcl"

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	Debug      bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// Invoker returns the invoker running merge tools with the command's stdio
func (o *RootOpts) Invoker() merge.Invoker {
	inv := merge.NewExecInvoker()
	if o.Stdout != nil {
		inv.Stdout = o.Stdout
	}
	if o.Stderr != nil {
		inv.Stderr = o.Stderr
	}
	return inv
}

// JobFlags are per-job settings given on the command line. Set flags override
// the matching field of every configured job.
type JobFlags struct {
	Directory  string
	Prefix     string
	Suffix     string
	ListFile   string
	OutputFile string
	Macro      string
	Tool       string
	Timeout    time.Duration
	SkipEmpty  bool
	Async      bool
}

// Register adds the job flags to cmd
func (f *JobFlags) Register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.Directory, "dir", "", "directory scanned for input files")
	fs.StringVar(&f.Prefix, "prefix", "", "input filename prefix")
	fs.StringVar(&f.Suffix, "suffix", "", "input filename suffix")
	fs.StringVar(&f.ListFile, "list", "", "list file to write")
	fs.StringVar(&f.OutputFile, "output", "", "merged output file")
	fs.StringVar(&f.Macro, "macro", "", "merge macro (default "+config.DefaultMacro+")")
	fs.StringVar(&f.Tool, "tool", "", "program running the macro (default "+config.DefaultTool+")")
	fs.DurationVar(&f.Timeout, "timeout", 0, "kill the merge tool after this long (0 waits forever)")
	fs.BoolVar(&f.SkipEmpty, "skip-empty", false, "do not run the merge tool when nothing matched")
	fs.BoolVar(&f.Async, "async", false, "run jobs concurrently")
}

// definesJob reports whether a job-defining flag was given
func (f *JobFlags) definesJob(cmd *cobra.Command) bool {
	for _, name := range []string{"dir", "prefix", "suffix", "list", "output"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// apply copies every changed flag onto job
func (f *JobFlags) apply(cmd *cobra.Command, job *config.Job) {
	changed := cmd.Flags().Changed
	if changed("dir") {
		job.Directory = f.Directory
	}
	if changed("prefix") {
		job.Prefix = f.Prefix
	}
	if changed("suffix") {
		job.Suffix = f.Suffix
	}
	if changed("list") {
		job.ListFile = f.ListFile
	}
	if changed("output") {
		job.OutputFile = f.OutputFile
	}
	if changed("macro") {
		job.Macro = f.Macro
	}
	if changed("tool") {
		job.Tool = f.Tool
	}
	if changed("timeout") {
		job.Timeout = f.Timeout
	}
	if changed("skip-empty") {
		job.SkipEmpty = f.SkipEmpty
	}
}

// ResolveConfig loads the config file, applies the job flags and keeps the
// jobs named in names (all of them when names is empty). Without a config
// file the flags alone describe a single job.
func (o *RootOpts) ResolveConfig(ctx context.Context, cmd *cobra.Command, flags *JobFlags, names []string) (*config.Config, error) {
	var cfg *config.Config

	_, statErr := os.Stat(o.ConfigFile)
	switch {
	case statErr == nil:
		loaded, err := config.Load(ctx, o.ConfigFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	case cmd.Flags().Changed("config"):
		return nil, errors.Errorf("loading config: %w", statErr)
	case flags.definesJob(cmd):
		cfg = &config.Config{Jobs: []*config.Job{{}}}
	default:
		return nil, errors.Errorf("no config file %s found and no --dir given", o.ConfigFile)
	}

	for _, job := range cfg.Jobs {
		flags.apply(cmd, job)
	}
	if cmd.Flags().Changed("async") {
		cfg.Async = flags.Async
	}

	if len(names) > 0 {
		selected := make([]*config.Job, 0, len(names))
		for _, name := range names {
			job, ok := cfg.Find(name)
			if !ok {
				return nil, errors.Errorf("no merge job named %q", name)
			}
			selected = append(selected, job)
		}
		cfg.Jobs = selected
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}
