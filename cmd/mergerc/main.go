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

package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/mergerc/cmd/mergerc/commands"
	"github.com/walteh/mergerc/cmd/mergerc/opts"
	"github.com/walteh/mergerc/pkg/log"
	"github.com/walteh/mergerc/pkg/merge"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code. A failing
// merge tool's own exit code is passed through.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootOpts := &opts.RootOpts{Stdout: stdout, Stderr: stderr}

	rootCmd := newRootCmd(rootOpts)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	// setupLogging runs once flags are parsed, so the console and the
	// context logger are attached there
	var console *log.Logger
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		logger := setupLogging(stderr, rootOpts.Debug)
		console = log.New(stdout, logger)
		cmd.SetContext(log.NewContext(logger.WithContext(cmd.Context()), console))
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if console == nil {
			console = log.New(stdout, setupLogging(stderr, rootOpts.Debug))
		}
		console.Errorf("%v", err)
		return merge.ExitCode(err)
	}
	return 0
}

// newRootCmd creates the root command with every subcommand attached
func newRootCmd(rootOpts *opts.RootOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mergerc",
		Short: "List input files and hand them to a ROOT merge macro",
		Long: `mergerc collects the files matching <directory>/<prefix>*<suffix>,
writes them one per line to a list file and runs

    root -b -q 'MergeFiles.C(<count>, "<list file>", "<output file>")'

Jobs come from a config file (.hcl, .yaml, .yml or .json) or from flags.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Add shared flags
	addRootFlags(rootCmd, rootOpts)

	// Add commands
	rootCmd.AddCommand(
		commands.NewRunCmd(rootOpts),
		commands.NewPlanCmd(rootOpts),
		newVersionCmd(),
	)

	return rootCmd
}
