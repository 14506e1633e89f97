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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ⚙️ Defaults applied by Validate to unset job fields
const (
	DefaultJobName = "merge"
	DefaultMacro   = "MergeFiles.C"
	DefaultTool    = "root"
)

// DefaultToolFlags are passed to the tool ahead of the macro call.
var DefaultToolFlags = []string{"-b", "-q"}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📦 Job describes one merge: which files to collect, where to list them and
// what to hand the list to.
type Job struct {
	Name       string        // Job name, unique within a config
	Directory  string        // Directory scanned for inputs
	Prefix     string        // Filename prefix before the wildcard
	Suffix     string        // Filename suffix after the wildcard
	ListFile   string        // Path of the list file to write
	OutputFile string        // Path of the merged artifact
	Macro      string        // Macro invoked by the tool
	Tool       string        // External program, looked up in PATH
	ToolFlags  []string      // Flags passed before the macro call
	Timeout    time.Duration // Zero means no timeout
	SkipEmpty  bool          // Skip the invocation when nothing matched
}

// 📚 Config represents the complete configuration
type Config struct {
	Jobs  []*Job
	Async bool
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().Int("jobs", len(cfg.Jobs)).Bool("async", cfg.Async).Msg("configuration loaded")

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid and fills in defaults
func (cfg *Config) Validate() error {
	if len(cfg.Jobs) == 0 {
		return errors.Errorf("at least one merge job is required")
	}

	names := make(map[string]bool, len(cfg.Jobs))
	lists := make(map[string]string, len(cfg.Jobs))
	outputs := make(map[string]string, len(cfg.Jobs))

	for i, job := range cfg.Jobs {
		if job == nil {
			return errors.Errorf("merge job %d is empty", i)
		}
		if job.Name == "" {
			if len(cfg.Jobs) == 1 {
				job.Name = DefaultJobName
			} else {
				job.Name = fmt.Sprintf("%s-%d", DefaultJobName, i)
			}
		}
		if err := job.Validate(); err != nil {
			return errors.Errorf("merge job %q: %w", job.Name, err)
		}
		if names[job.Name] {
			return errors.Errorf("duplicate merge job name %q", job.Name)
		}
		names[job.Name] = true

		// concurrent jobs must not write the same files
		if !cfg.Async {
			continue
		}
		list, output := filepath.Clean(job.ListFile), filepath.Clean(job.OutputFile)
		if other, ok := lists[list]; ok {
			return errors.Errorf("merge jobs %q and %q share list_file %s", other, job.Name, job.ListFile)
		}
		lists[list] = job.Name
		if other, ok := outputs[output]; ok {
			return errors.Errorf("merge jobs %q and %q share output_file %s", other, job.Name, job.OutputFile)
		}
		outputs[output] = job.Name
	}

	return nil
}

// 🔍 Validate checks a single job and fills in its defaults
func (job *Job) Validate() error {
	// Check required fields
	if job.Directory == "" {
		return errors.Errorf("directory is required")
	}
	if job.ListFile == "" {
		return errors.Errorf("list_file is required")
	}
	if job.OutputFile == "" {
		return errors.Errorf("output_file is required")
	}
	if job.Timeout < 0 {
		return errors.Errorf("timeout must not be negative, got %s", job.Timeout)
	}
	if strings.ContainsAny(job.ListFile, `"'`) || strings.ContainsAny(job.OutputFile, `"'`) {
		return errors.Errorf("list_file and output_file must not contain quotes")
	}

	// Set defaults
	if job.Macro == "" {
		job.Macro = DefaultMacro
	}
	if job.Tool == "" {
		job.Tool = DefaultTool
	}
	if job.ToolFlags == nil {
		job.ToolFlags = append([]string(nil), DefaultToolFlags...)
	}

	return nil
}

// 🎯 Find returns the job with the given name
func (cfg *Config) Find(name string) (*Job, bool) {
	for _, job := range cfg.Jobs {
		if job.Name == name {
			return job, true
		}
	}
	return nil, false
}

// 📝 String returns a string representation of the job
func (job *Job) String() string {
	return fmt.Sprintf("%s: %s/%s*%s -> %s -> %s", job.Name, job.Directory, job.Prefix, job.Suffix, job.ListFile, job.OutputFile)
}

// 📄 fileJob is the on-disk shape of a job, shared by every format
type fileJob struct {
	Name       string   `json:"name" yaml:"name" hcl:"name,label"`
	Directory  string   `json:"directory" yaml:"directory" hcl:"directory,optional"`
	Prefix     string   `json:"prefix,omitempty" yaml:"prefix,omitempty" hcl:"prefix,optional"`
	Suffix     string   `json:"suffix,omitempty" yaml:"suffix,omitempty" hcl:"suffix,optional"`
	ListFile   string   `json:"list_file" yaml:"list_file" hcl:"list_file,optional"`
	OutputFile string   `json:"output_file" yaml:"output_file" hcl:"output_file,optional"`
	Macro      string   `json:"macro,omitempty" yaml:"macro,omitempty" hcl:"macro,optional"`
	Tool       string   `json:"tool,omitempty" yaml:"tool,omitempty" hcl:"tool,optional"`
	ToolFlags  []string `json:"tool_flags,omitempty" yaml:"tool_flags,omitempty" hcl:"tool_flags,optional"`
	Timeout    string   `json:"timeout,omitempty" yaml:"timeout,omitempty" hcl:"timeout,optional"`
	SkipEmpty  bool     `json:"skip_empty,omitempty" yaml:"skip_empty,omitempty" hcl:"skip_empty,optional"`
}

// 📄 fileConfig is the on-disk shape of a config
type fileConfig struct {
	Async bool      `json:"async,omitempty" yaml:"async,omitempty" hcl:"async,optional"`
	Jobs  []fileJob `json:"merges" yaml:"merges" hcl:"merge,block"`
}

// 🔄 toConfig converts the on-disk shape into a Config
func (fc *fileConfig) toConfig() (*Config, error) {
	cfg := &Config{Async: fc.Async}
	for _, fj := range fc.Jobs {
		job := &Job{
			Name:       fj.Name,
			Directory:  fj.Directory,
			Prefix:     fj.Prefix,
			Suffix:     fj.Suffix,
			ListFile:   fj.ListFile,
			OutputFile: fj.OutputFile,
			Macro:      fj.Macro,
			Tool:       fj.Tool,
			ToolFlags:  fj.ToolFlags,
			SkipEmpty:  fj.SkipEmpty,
		}
		if fj.Timeout != "" {
			d, err := time.ParseDuration(fj.Timeout)
			if err != nil {
				return nil, errors.Errorf("parsing timeout of merge job %q: %w", fj.Name, err)
			}
			job.Timeout = d
		}
		cfg.Jobs = append(cfg.Jobs, job)
	}
	return cfg, nil
}
