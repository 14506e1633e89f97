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

// Package merge hands a written list file to the external merge macro.
package merge

import (
	"fmt"
	"strings"

	"github.com/walteh/mergerc/pkg/config"
)

// 📦 Invocation carries everything the external tool is called with
type Invocation struct {
	Tool       string
	ToolFlags  []string
	Macro      string
	Count      int
	ListFile   string
	OutputFile string
}

// 🏗️ NewInvocation builds the invocation for job over count listed files
func NewInvocation(job *config.Job, count int) *Invocation {
	return &Invocation{
		Tool:       job.Tool,
		ToolFlags:  append([]string(nil), job.ToolFlags...),
		Macro:      job.Macro,
		Count:      count,
		ListFile:   job.ListFile,
		OutputFile: job.OutputFile,
	}
}

// MacroCall renders Macro(N, "list", "out")
func (inv *Invocation) MacroCall() string {
	return fmt.Sprintf("%s(%d, %q, %q)", inv.Macro, inv.Count, inv.ListFile, inv.OutputFile)
}

// Argv is the argument vector the tool is executed with. It is what a shell
// would pass for CommandLine.
func (inv *Invocation) Argv() []string {
	argv := make([]string, 0, len(inv.ToolFlags)+2)
	argv = append(argv, inv.Tool)
	argv = append(argv, inv.ToolFlags...)
	return append(argv, inv.MacroCall())
}

// CommandLine renders the shell form, e.g.
//
//	root -b -q 'MergeFiles.C(2, "files.list", "merged.root")'
func (inv *Invocation) CommandLine() string {
	parts := make([]string, 0, len(inv.ToolFlags)+2)
	parts = append(parts, inv.Tool)
	parts = append(parts, inv.ToolFlags...)
	parts = append(parts, "'"+strings.ReplaceAll(inv.MacroCall(), "'", `'\''`)+"'")
	return strings.Join(parts, " ")
}
