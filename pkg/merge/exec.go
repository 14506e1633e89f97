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

package merge

import (
	"context"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Invoker runs an invocation and reports the tool's exit code
type Invoker interface {
	Invoke(ctx context.Context, inv *Invocation, timeout time.Duration) (int, error)
}

var _ Invoker = (*ExecInvoker)(nil)

// 🏃 ExecInvoker runs the tool as a child process and waits for it
type ExecInvoker struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Dir    string
}

// 🏗️ NewExecInvoker creates an invoker wired to the process' own stdio
func NewExecInvoker() *ExecInvoker {
	return &ExecInvoker{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// 🚀 Invoke runs inv to completion. A zero timeout waits forever. Every
// failure is a *ProcessError carrying the exit code to forward.
func (e *ExecInvoker) Invoke(ctx context.Context, inv *Invocation, timeout time.Duration) (int, error) {
	logger := zerolog.Ctx(ctx)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	argv := inv.Argv()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	cmd.Dir = e.Dir

	logger.Debug().Strs("argv", argv).Dur("timeout", timeout).Msg("starting merge tool")

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err == nil {
		logger.Debug().Dur("elapsed", elapsed).Msg("merge tool finished")
		return 0, nil
	}

	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ExitNotFound, &ProcessError{Tool: inv.Tool, Code: ExitNotFound, Err: err}
	case errors.Is(err, fs.ErrPermission):
		return ExitCannotExecute, &ProcessError{Tool: inv.Tool, Code: ExitCannotExecute, Err: err}
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ExitTimeout, &ProcessError{Tool: inv.Tool, Code: ExitTimeout, Err: errors.Errorf("timed out after %s: %w", timeout, ctx.Err())}
	case ctx.Err() != nil:
		return ExitFailure, &ProcessError{Tool: inv.Tool, Code: ExitFailure, Err: ctx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitCode(exitErr)
		logger.Debug().Int("exit_code", code).Dur("elapsed", elapsed).Msg("merge tool failed")
		return code, &ProcessError{Tool: inv.Tool, Code: code, Err: err}
	}

	return ExitFailure, &ProcessError{Tool: inv.Tool, Code: ExitFailure, Err: err}
}

// exitCode returns the code of an exited tool, or 128 plus the signal number
// when a signal killed it
func exitCode(exitErr *exec.ExitError) int {
	if code := exitErr.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitSignalBase + int(ws.Signal())
	}
	return ExitFailure
}
