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

package commands

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/mergerc/cmd/mergerc/opts"
	"github.com/walteh/mergerc/pkg/log"
	"github.com/walteh/mergerc/pkg/pipeline"
	"gitlab.com/tozd/go/errors"
)

// NewRunCmd creates a new run command
func NewRunCmd(rootOpts *opts.RootOpts) *cobra.Command {
	flags := &opts.JobFlags{}

	cmd := &cobra.Command{
		Use:   "run [job...]",
		Short: "List input files and run the merge macro",
		Long: `Run merges the input files of each selected job (all jobs by default).
For every job it will:
1. Build the <directory>/<prefix>*<suffix> pattern
2. Write every matching file to the list file
3. Run the merge tool on the list file and wait for it

If the merge tool fails, mergerc exits with the tool's exit code.`,
		Example: `  mergerc run
  mergerc run embed-only
  mergerc run --dir ./intermediate_merge --prefix sim.d --suffix .root --list files.list --output merged.root`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "run").Logger().WithContext(cmd.Context())

			cfg, err := rootOpts.ResolveConfig(ctx, cmd, flags, args)
			if err != nil {
				return err
			}

			console := log.FromContext(ctx)
			console.Header("merging files")

			runner := pipeline.NewRunner(rootOpts.Invoker(), cfg.Async)
			results, err := runner.RunAll(ctx, cfg.Jobs)

			console.LogNewline()
			for i, res := range results {
				switch {
				case res == nil:
					console.Infof("%s: not started", cfg.Jobs[i].Name)
				case res.Skipped:
					console.Warningf("%s: no files matched %s, merge skipped", res.Job, res.Pattern)
				case res.Stage == pipeline.StageInvoked && res.ExitCode == 0:
					console.Successf("%s: merged %d files into %s (%s)", res.Job, res.Invocation.Count, res.Invocation.OutputFile, res.Elapsed.Round(time.Millisecond))
				default:
					console.Errorf("%s: failed after stage %s", res.Job, res.Stage)
				}
			}
			if err != nil {
				return errors.Errorf("running merge jobs: %w", err)
			}

			return nil
		},
	}

	flags.Register(cmd)

	return cmd
}
