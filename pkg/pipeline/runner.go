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

	"github.com/walteh/mergerc/pkg/config"
	"github.com/walteh/mergerc/pkg/merge"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🏃 Runner executes merge jobs. Progress goes to the console logger carried
// by the context (see log.NewContext).
type Runner struct {
	invoker merge.Invoker
	async   bool
}

// 🏗️ NewRunner creates a new runner
func NewRunner(invoker merge.Invoker, async bool) *Runner {
	return &Runner{
		invoker: invoker,
		async:   async,
	}
}

// 🏃 RunAll runs every job and returns their results in job order. Results
// of jobs that never started are nil. The first failure stops the run; in
// async mode it cancels the jobs still running.
func (r *Runner) RunAll(ctx context.Context, jobs []*config.Job) ([]*Result, error) {
	if r.async {
		return r.runAsync(ctx, jobs)
	}
	return r.runSync(ctx, jobs)
}

// 🔄 runSync runs jobs one after another
func (r *Runner) runSync(ctx context.Context, jobs []*config.Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return results, errors.Errorf("run cancelled: %w", err)
		}
		res, err := r.Run(ctx, job)
		results[i] = res
		if err != nil {
			return results, errors.Errorf("merge job %q: %w", job.Name, err)
		}
	}
	return results, nil
}

// ⚡ runAsync runs every job in its own goroutine
func (r *Runner) runAsync(ctx context.Context, jobs []*config.Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)

	for i, job := range jobs {
		g.Go(func() error {
			res, err := r.Run(gctx, job)
			results[i] = res
			if err != nil {
				return errors.Errorf("merge job %q: %w", job.Name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
