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
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// 🚦 Exit codes reported when the tool did not produce one itself.
// They follow the shell's conventions.
const (
	ExitFailure       = 1
	ExitTimeout       = 124
	ExitCannotExecute = 126
	ExitNotFound      = 127
	ExitSignalBase    = 128
)

// ErrExternalProcess matches every *ProcessError through errors.Is
var ErrExternalProcess = errors.Base("external process error")

// 💥 ProcessError reports a merge tool that could not run or failed
type ProcessError struct {
	Tool string
	Code int
	Err  error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %v", e.Tool, e.Code, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

func (e *ProcessError) Is(target error) bool {
	return target == ErrExternalProcess
}

// 🎯 ExitCode returns the exit code err asks the process to exit with: the
// tool's code for a *ProcessError, ExitFailure for anything else and 0 for nil
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var perr *ProcessError
	if errors.As(err, &perr) && perr.Code != 0 {
		return perr.Code
	}
	return ExitFailure
}
