// Command qaprep cleans question-answer corpora and extracts structural
// text features for downstream model training.
//
// Usage:
//
//	qaprep preprocess qa.jsonl                 # data/raw/qa.jsonl → data/processed/qa.csv
//	qaprep dropnulls qa.csv                    # → data/processed/qa_nonnull.csv
//	qaprep features qa_nonnull.csv --xlsx      # → data/features/qa_nonnull_features.csv
//	qaprep run data/raw/qa.jsonl out.csv --columns context,question
//	qaprep runs --limit 5
//
// Bare input names are looked up in paths.raw or paths.processed, and a
// missing OUTPUT is placed in paths.processed or paths.features.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if terr := a.teardown(); terr != nil && err == nil {
		err = terr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "qaprep: %v\n", err)
		os.Exit(1)
	}
}
