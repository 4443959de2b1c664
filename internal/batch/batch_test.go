package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/calebeynon/MarketRuns-sub000/internal/build"
)

const wideHeader = "participant.label,participant.id_in_session,session.code," +
	"market.1.player.id_in_group,market.1.player.round_number_in_segment," +
	"market.1.player.period_in_round,market.1.player.sold,market.1.player.round_1_payoff\n"

func writeWide(t *testing.T, dir, name, sessionCode string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := wideHeader + fmt.Sprintf("A,1,%s,1,1,1,0,10\n", sessionCode)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunBuildsAllJobs(t *testing.T) {
	dir := t.TempDir()
	jobs := []Job{
		{Name: "j1", WidePath: writeWide(t, dir, "s1.csv", "s1")},
		{Name: "j2", WidePath: writeWide(t, dir, "s2.csv", "s2")},
		{Name: "j3", WidePath: writeWide(t, dir, "s3.csv", "s3")},
	}

	results := Run(context.Background(), build.New(build.Options{}), jobs, 2)
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Err != nil {
			t.Errorf("job %d failed: %v", i, res.Err)
			continue
		}
		if res.Job.Name != jobs[i].Name {
			t.Errorf("result %d out of job order: %s", i, res.Job.Name)
		}
		if res.Exp == nil || res.Report.Sessions != 1 {
			t.Errorf("job %d: unexpected result %+v", i, res.Report)
		}
	}
}

func TestRunCapturesPerJobErrors(t *testing.T) {
	dir := t.TempDir()
	jobs := []Job{
		{Name: "good", WidePath: writeWide(t, dir, "good.csv", "s1")},
		{Name: "bad", WidePath: filepath.Join(dir, "does-not-exist.csv")},
	}

	results := Run(context.Background(), build.New(build.Options{}), jobs, 0)
	if results[0].Err != nil {
		t.Errorf("good job should succeed: %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("missing input file must surface as a job error")
	}
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	jobs := []Job{
		{Name: "j1", WidePath: writeWide(t, dir, "s1.csv", "s1")},
		{Name: "j2", WidePath: writeWide(t, dir, "s2.csv", "s2")},
		{Name: "dup", WidePath: writeWide(t, dir, "dup.csv", "s1")},
		{Name: "bad", WidePath: filepath.Join(dir, "missing.csv")},
	}

	results := Run(context.Background(), build.New(build.Options{}), jobs, 0)
	merged := Merge("all", results)

	// s1 kept once (first occurrence), s2 kept, failed job contributes nothing.
	if got := len(merged.Sessions()); got != 2 {
		t.Errorf("want 2 merged sessions, got %d", got)
	}
	if merged.Session("s1") == nil || merged.Session("s2") == nil {
		t.Error("expected sessions s1 and s2 in the merge")
	}
}
