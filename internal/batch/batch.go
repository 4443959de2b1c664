// Package batch builds many session extracts concurrently. Session builds
// share no state, so the only coordination needed is a concurrency cap;
// one session's failure is captured in its result and never aborts the
// rest of the batch.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/calebeynon/MarketRuns-sub000/internal/build"
	"github.com/calebeynon/MarketRuns-sub000/internal/experiment"
	"github.com/calebeynon/MarketRuns-sub000/internal/extract"
	"github.com/calebeynon/MarketRuns-sub000/internal/logging"
)

// defaultLimit caps concurrent session builds.
const defaultLimit = 4

// Job is one session's input files. ChatPath may be empty for chat-free
// sessions.
type Job struct {
	Name     string
	WidePath string
	ChatPath string
}

// Result is the outcome of one job. Err is set when loading or building
// failed; Exp and Report are nil in that case except that Report may carry
// partial accounting.
type Result struct {
	Job    Job
	Exp    *experiment.Experiment
	Report *build.Report
	Err    error
}

// Run builds all jobs with at most limit running at once (0 means the
// default). Results come back in job order regardless of completion order.
func Run(ctx context.Context, b *build.Builder, jobs []Job, limit int) []Result {
	if limit <= 0 {
		limit = defaultLimit
	}

	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Job: job, Err: err}
				return nil
			}
			results[i] = runOne(b, job)
			return nil
		})
	}
	g.Wait()
	return results
}

func runOne(b *build.Builder, job Job) Result {
	table, err := extract.LoadTableFile(job.WidePath)
	if err != nil {
		return Result{Job: job, Err: fmt.Errorf("job %s: %w", job.Name, err)}
	}

	var chat []extract.ChatRow
	if job.ChatPath != "" {
		chat, err = extract.LoadChatFile(job.ChatPath)
		if err != nil {
			return Result{Job: job, Err: fmt.Errorf("job %s: %w", job.Name, err)}
		}
	}

	exp, rep, err := b.Build(table, chat)
	if err != nil {
		return Result{Job: job, Report: rep, Err: fmt.Errorf("job %s: %w", job.Name, err)}
	}
	logging.Info("job built", "job", job.Name, "build", rep.BuildID, "sessions", rep.Sessions)
	return Result{Job: job, Exp: exp, Report: rep}
}

// Merge folds the sessions of all successful results into one Experiment.
// Duplicate session codes keep the first occurrence.
func Merge(name string, results []Result) *experiment.Experiment {
	merged := experiment.New(name)
	for _, res := range results {
		if res.Err != nil || res.Exp == nil {
			continue
		}
		for _, s := range res.Exp.Sessions() {
			merged.AddSession(s)
		}
	}
	return merged
}
