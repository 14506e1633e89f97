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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		config      string
		env         map[string]string
		wantErr     bool
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:     "valid_yaml",
			filename: "config.yaml",
			config: `
async: true
merges:
  - name: embed
    directory: ./intermediate_merge/
    prefix: sPhenixG4_forTrackCutStudy_embedOnly0t99_g4svtxeval.d
    suffix: m12y2022.root
    list_file: embed.list
    output_file: embed.root
    timeout: 90s
    skip_empty: true
  - name: pileup
    directory: ./pileup
    suffix: .root
    list_file: pileup.list
    output_file: pileup.root
    macro: HaddFiles.C
    tool: /opt/root/bin/root
    tool_flags: ["-l", "-b", "-q"]
`,
			check: func(t *testing.T, cfg *Config) {
				require.Len(t, cfg.Jobs, 2, "should have 2 jobs")
				assert.True(t, cfg.Async, "async should be true")

				embed := cfg.Jobs[0]
				assert.Equal(t, "embed", embed.Name, "name should match")
				assert.Equal(t, "./intermediate_merge/", embed.Directory, "directory should be kept verbatim")
				assert.Equal(t, "sPhenixG4_forTrackCutStudy_embedOnly0t99_g4svtxeval.d", embed.Prefix, "prefix should match")
				assert.Equal(t, "m12y2022.root", embed.Suffix, "suffix should match")
				assert.Equal(t, "embed.list", embed.ListFile, "list file should match")
				assert.Equal(t, "embed.root", embed.OutputFile, "output file should match")
				assert.Equal(t, 90*time.Second, embed.Timeout, "timeout should be parsed")
				assert.True(t, embed.SkipEmpty, "skip_empty should be true")
				assert.Equal(t, DefaultMacro, embed.Macro, "macro should default")
				assert.Equal(t, DefaultTool, embed.Tool, "tool should default")
				assert.Equal(t, []string{"-b", "-q"}, embed.ToolFlags, "tool flags should default")

				pileup := cfg.Jobs[1]
				assert.Equal(t, "HaddFiles.C", pileup.Macro, "macro should match")
				assert.Equal(t, "/opt/root/bin/root", pileup.Tool, "tool should match")
				assert.Equal(t, []string{"-l", "-b", "-q"}, pileup.ToolFlags, "tool flags should match")
				assert.Empty(t, pileup.Prefix, "prefix should be empty")
				assert.Zero(t, pileup.Timeout, "timeout should be zero")
			},
		},
		{
			name:     "valid_hcl_with_env",
			filename: "config.hcl",
			env:      map[string]string{"MERGERC_TEST_ROOT": "/data/run12"},
			config: `
merge "embed" {
  directory   = "${env.MERGERC_TEST_ROOT}/intermediate_merge"
  prefix      = "sim.d"
  suffix      = ".root"
  list_file   = "embed.list"
  output_file = "embed.root"
  timeout     = "5m"
}
`,
			check: func(t *testing.T, cfg *Config) {
				require.Len(t, cfg.Jobs, 1, "should have 1 job")
				job := cfg.Jobs[0]
				assert.Equal(t, "embed", job.Name, "label should become the name")
				assert.Equal(t, "/data/run12/intermediate_merge", job.Directory, "env should be interpolated")
				assert.Equal(t, 5*time.Minute, job.Timeout, "timeout should be parsed")
				assert.False(t, cfg.Async, "async should default to false")
			},
		},
		{
			name:     "valid_json",
			filename: "config.json",
			config: `{
  "merges": [
    {
      "directory": "in",
      "prefix": "a",
      "suffix": ".root",
      "list_file": "./lists/files.list",
      "output_file": "merged.root"
    }
  ]
}`,
			check: func(t *testing.T, cfg *Config) {
				require.Len(t, cfg.Jobs, 1, "should have 1 job")
				assert.Equal(t, DefaultJobName, cfg.Jobs[0].Name, "single unnamed job should get the default name")
				assert.Equal(t, "./lists/files.list", cfg.Jobs[0].ListFile, "list file should be kept as written")
			},
		},
		{
			name:     "unnamed_jobs_are_numbered",
			filename: "config.yaml",
			config: `
merges:
  - directory: a
    list_file: a.list
    output_file: a.root
  - directory: b
    list_file: b.list
    output_file: b.root
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "merge-0", cfg.Jobs[0].Name, "first job name")
				assert.Equal(t, "merge-1", cfg.Jobs[1].Name, "second job name")
			},
		},
		{
			name:        "no_jobs",
			filename:    "config.yaml",
			config:      "async: true\n",
			wantErr:     true,
			errContains: "at least one merge job is required",
		},
		{
			name:     "missing_directory",
			filename: "config.yaml",
			config: `
merges:
  - list_file: a.list
    output_file: a.root
`,
			wantErr:     true,
			errContains: "directory is required",
		},
		{
			name:     "missing_list_file",
			filename: "config.yaml",
			config: `
merges:
  - directory: a
    output_file: a.root
`,
			wantErr:     true,
			errContains: "list_file is required",
		},
		{
			name:     "missing_output_file",
			filename: "config.hcl",
			config: `
merge "a" {
  directory = "a"
  list_file = "a.list"
}
`,
			wantErr:     true,
			errContains: "output_file is required",
		},
		{
			name:     "unknown_field",
			filename: "config.yaml",
			config: `
merges:
  - directory: a
    list_file: a.list
    output_file: a.root
    destination: nowhere
`,
			wantErr:     true,
			errContains: "parsing YAML",
		},
		{
			name:     "bad_timeout",
			filename: "config.yaml",
			config: `
merges:
  - name: slow
    directory: a
    list_file: a.list
    output_file: a.root
    timeout: forever
`,
			wantErr:     true,
			errContains: `parsing timeout of merge job "slow"`,
		},
		{
			name:     "duplicate_names",
			filename: "config.yaml",
			config: `
merges:
  - name: same
    directory: a
    list_file: a.list
    output_file: a.root
  - name: same
    directory: b
    list_file: b.list
    output_file: b.root
`,
			wantErr:     true,
			errContains: `duplicate merge job name "same"`,
		},
		{
			name:     "async_shared_list_file",
			filename: "config.yaml",
			config: `
async: true
merges:
  - name: one
    directory: a
    list_file: same.list
    output_file: a.root
  - name: two
    directory: b
    list_file: same.list
    output_file: b.root
`,
			wantErr:     true,
			errContains: "share list_file",
		},
		{
			name:     "async_shared_output_file_spelled_differently",
			filename: "config.yaml",
			config: `
async: true
merges:
  - name: one
    directory: a
    list_file: a.list
    output_file: ./out/merged.root
  - name: two
    directory: b
    list_file: b.list
    output_file: out//merged.root
`,
			wantErr:     true,
			errContains: "share output_file",
		},
		{
			name:     "sequential_shared_list_file",
			filename: "config.yaml",
			config: `
merges:
  - name: one
    directory: a
    list_file: same.list
    output_file: a.root
  - name: two
    directory: b
    list_file: same.list
    output_file: b.root
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Len(t, cfg.Jobs, 2, "sequential jobs may reuse a list file")
			},
		},
		{
			name:        "unsupported_extension",
			filename:    "config.toml",
			config:      "",
			wantErr:     true,
			errContains: "no parser found",
		},
	}

	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			// Create temporary config file
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, tt.filename)
			err := os.WriteFile(configPath, []byte(tt.config), 0644)
			require.NoError(t, err, "writing config file should succeed")

			// Load config
			cfg, err := Load(ctx, configPath)
			if tt.wantErr {
				require.Error(t, err, "Load should return error")
				assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				return
			}

			require.NoError(t, err, "Load should succeed")
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	_, err := Load(ctx, filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err, "Load should fail for a missing file")
	assert.ErrorIs(t, err, os.ErrNotExist, "error should wrap os.ErrNotExist")
}

func TestJobValidate(t *testing.T) {
	tests := []struct {
		name        string
		job         Job
		errContains string
	}{
		{
			name:        "negative_timeout",
			job:         Job{Directory: "a", ListFile: "a.list", OutputFile: "a.root", Timeout: -time.Second},
			errContains: "timeout must not be negative",
		},
		{
			name:        "quoted_output",
			job:         Job{Directory: "a", ListFile: "a.list", OutputFile: `a".root`},
			errContains: "must not contain quotes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			require.Error(t, err, "Validate should fail")
			assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
		})
	}
}

func TestConfigFind(t *testing.T) {
	cfg := &Config{Jobs: []*Job{{Name: "a"}, {Name: "b"}}}

	job, ok := cfg.Find("b")
	require.True(t, ok, "job b should be found")
	assert.Equal(t, "b", job.Name, "found job should match")

	_, ok = cfg.Find("c")
	assert.False(t, ok, "job c should not be found")
}

func TestJobString(t *testing.T) {
	job := &Job{
		Name:       "embed",
		Directory:  "./in",
		Prefix:     "sim.d",
		Suffix:     ".root",
		ListFile:   "embed.list",
		OutputFile: "embed.root",
	}
	assert.Equal(t, "embed: ./in/sim.d*.root -> embed.list -> embed.root", job.String(), "String() should match")
}
