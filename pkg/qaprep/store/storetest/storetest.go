// Package storetest holds the behaviour every store.Store must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
	"github.com/cognicore/qaprep/pkg/qaprep/store"
)

// Run checks the stores returned by open against the store.Store contract.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("RecordAndGet", func(t *testing.T) { testRecordAndGet(t, open(t)) })
	t.Run("Finish", func(t *testing.T) { testFinish(t, open(t)) })
	t.Run("Stages", func(t *testing.T) { testStages(t, open(t)) })
	t.Run("List", func(t *testing.T) { testList(t, open(t)) })
	t.Run("Unknown", func(t *testing.T) { testUnknown(t, open(t)) })
}

func testRecordAndGet(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	run, err := st.RecordRun(ctx, store.Run{Command: "preprocess", Input: "raw.json", Output: "clean.csv"})
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if run.ID == "" || run.StartedAt.IsZero() || run.Status != store.StatusRunning {
		t.Fatalf("RecordRun did not fill defaults: %+v", run)
	}

	got, found, err := st.GetRun(ctx, run.ID)
	if err != nil || !found {
		t.Fatalf("GetRun: found=%v err=%v", found, err)
	}
	if got.Command != "preprocess" || got.Input != "raw.json" || got.Output != "clean.csv" {
		t.Errorf("unexpected run %+v", got)
	}
	if d := got.StartedAt.Sub(run.StartedAt); d < -time.Millisecond || d > time.Millisecond {
		t.Errorf("StartedAt drifted by %v", d)
	}
}

func testFinish(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	ok, _ := st.RecordRun(ctx, store.Run{Command: "features"})
	bad, _ := st.RecordRun(ctx, store.Run{Command: "features"})

	if err := st.FinishRun(ctx, ok.ID, store.Result{Rows: 3, Columns: []string{"a", "b"}}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := st.FinishRun(ctx, bad.ID, store.Result{Err: errors.New("missing columns")}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, _, _ := st.GetRun(ctx, ok.ID)
	if got.Status != store.StatusSucceeded || got.Rows != 3 || len(got.Columns) != 2 || got.FinishedAt.IsZero() {
		t.Errorf("unexpected succeeded run %+v", got)
	}
	got, _, _ = st.GetRun(ctx, bad.ID)
	if got.Status != store.StatusFailed || got.Error != "missing columns" {
		t.Errorf("unexpected failed run %+v", got)
	}
}

func testStages(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	run, _ := st.RecordRun(ctx, store.Run{Command: "run"})
	stages := []store.Stage{
		{Name: "load", Elapsed: 2 * time.Millisecond},
		{Name: "preprocess:context", Elapsed: time.Second},
		{Name: "save", Elapsed: time.Millisecond, Error: "disk full"},
	}
	for _, s := range stages {
		if err := st.AddStage(ctx, run.ID, s); err != nil {
			t.Fatalf("AddStage: %v", err)
		}
	}

	got, _, _ := st.GetRun(ctx, run.ID)
	if len(got.Stages) != len(stages) {
		t.Fatalf("expected %d stages, got %d", len(stages), len(got.Stages))
	}
	for i := range stages {
		if got.Stages[i] != stages[i] {
			t.Errorf("stage %d = %+v, want %+v", i, got.Stages[i], stages[i])
		}
	}
}

func testList(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	var ids []string
	for i := 0; i < 3; i++ {
		r, err := st.RecordRun(ctx, store.Run{Command: "run"})
		if err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
		ids = append(ids, r.ID)
	}

	runs, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("runs not newest first: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func testUnknown(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	if _, found, err := st.GetRun(ctx, "nope"); err != nil || found {
		t.Errorf("GetRun(unknown) = found %v, err %v", found, err)
	}
	if err := st.FinishRun(ctx, "nope", store.Result{}); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("FinishRun(unknown) = %v, want ErrNotFound", err)
	}
	if err := st.AddStage(ctx, "nope", store.Stage{Name: "x"}); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("AddStage(unknown) = %v, want ErrNotFound", err)
	}
}
