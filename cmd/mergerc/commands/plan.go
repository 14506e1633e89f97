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
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/mergerc/cmd/mergerc/opts"
	"github.com/walteh/mergerc/pkg/log"
	"github.com/walteh/mergerc/pkg/pipeline"
	"gitlab.com/tozd/go/errors"
)

// NewPlanCmd creates a new plan command
func NewPlanCmd(rootOpts *opts.RootOpts) *cobra.Command {
	flags := &opts.JobFlags{}
	var showFiles bool

	cmd := &cobra.Command{
		Use:   "plan [job...]",
		Short: "Show what run would merge without doing it",
		Long: `Plan enumerates the input files of each selected job and prints the
command run would execute. An existing list file is compared with the
files found. No list file is written and nothing is run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "plan").Logger().WithContext(cmd.Context())
			console := log.FromContext(ctx)

			cfg, err := rootOpts.ResolveConfig(ctx, cmd, flags, args)
			if err != nil {
				return err
			}

			runner := pipeline.NewRunner(rootOpts.Invoker(), false)

			data := pterm.TableData{{"job", "pattern", "files", "list file", "list", "command"}}
			planned := make([]*pipeline.Result, 0, len(cfg.Jobs))
			for _, job := range cfg.Jobs {
				res, err := runner.Plan(ctx, job)
				if err != nil {
					return errors.Errorf("planning merge job %q: %w", job.Name, err)
				}
				command := res.Invocation.CommandLine()
				if res.Skipped {
					command = "(skipped, nothing matched)"
				}
				data = append(data, []string{res.Job, res.Pattern, strconv.Itoa(len(res.Files)), res.ListFile, res.ListState.String(), command})
				planned = append(planned, res)
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return errors.Errorf("rendering plan: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)

			for _, res := range planned {
				switch {
				case res.Skipped:
					console.Infof("%s: nothing matched %s, run would skip the merge", res.Job, res.Pattern)
				case res.ListState == pipeline.ListStale:
					added, removed := res.ListDiff()
					console.Infof("%s: %s is stale (%d new, %d gone)", res.Job, res.ListFile, len(added), len(removed))
				}
			}

			if showFiles {
				for _, res := range planned {
					printFiles(cmd.OutOrStdout(), res)
				}
			}

			return nil
		},
	}

	flags.Register(cmd)
	cmd.Flags().BoolVar(&showFiles, "files", false, "also print every matched file, marked against the existing list file")

	return cmd
}

// printFiles prints the planned files of res. With an existing list file,
// files it lacks are marked + and listed files that no longer match are
// marked -.
func printFiles(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "\n%s:\n", res.Job)
	if res.ListState == pipeline.ListMissing {
		for _, f := range res.Files {
			fmt.Fprintf(w, "  %s\n", f)
		}
		return
	}

	added, removed := res.ListDiff()
	isNew := make(map[string]bool, len(added))
	for _, f := range added {
		isNew[f] = true
	}
	for _, f := range res.Files {
		mark := " "
		if isNew[f] {
			mark = "+"
		}
		fmt.Fprintf(w, "%s %s\n", mark, f)
	}
	for _, f := range removed {
		fmt.Fprintf(w, "- %s\n", f)
	}
}
