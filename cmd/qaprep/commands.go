package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/qaprep/pkg/qaprep"
	"github.com/cognicore/qaprep/pkg/qaprep/config"
)

type fileCommand func(p *qaprep.Prep, ctx context.Context, in, out string, cols []string) (qaprep.Report, error)

// fileStage describes one INPUT [OUTPUT] command. A bare INPUT name that
// is not in the working directory is looked up in inputDir; a missing
// OUTPUT becomes outputDir/<input stem><suffix>.csv.
type fileStage struct {
	use, short  string
	run         fileCommand
	defaultCols func(*app) []string
	inputDir    func(config.PathsConfig) string
	outputDir   func(config.PathsConfig) string
	suffix      string
}

func rawDir(p config.PathsConfig) string       { return p.Raw }
func processedDir(p config.PathsConfig) string { return p.Processed }
func featuresDir(p config.PathsConfig) string  { return p.Features }

func newFileCmd(a *app, st fileStage) *cobra.Command {
	var cols []string
	cmd := &cobra.Command{
		Use:   st.use + " INPUT [OUTPUT]",
		Short: st.short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(cols) == 0 && st.defaultCols != nil {
				cols = st.defaultCols(a)
			}
			in := resolveInput(st.inputDir(a.cfg.Paths), args[0])
			out := defaultOutput(st.outputDir(a.cfg.Paths), in, st.suffix)
			if len(args) == 2 {
				out = args[1]
			}
			rep, err := st.run(a.prep, cmd.Context(), in, out, cols)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&cols, "columns", nil, "columns to process (comma separated)")
	return cmd
}

func resolveInput(dir, in string) string {
	if dir == "" || filepath.Dir(in) != "." {
		return in
	}
	if _, err := os.Stat(in); err == nil {
		return in
	}
	if candidate := filepath.Join(dir, in); fileExists(candidate) {
		return candidate
	}
	return in
}

func defaultOutput(dir, in, suffix string) string {
	stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	return filepath.Join(dir, stem+suffix+".csv")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func newPreprocessCmd(a *app) *cobra.Command {
	return newFileCmd(a, fileStage{
		use:       "preprocess",
		short:     "Clean raw records into <col>_clean columns (all columns by default)",
		run:       (*qaprep.Prep).PreprocessFile,
		inputDir:  rawDir,
		outputDir: processedDir,
	})
}

func newDropNullsCmd(a *app) *cobra.Command {
	return newFileCmd(a, fileStage{
		use:       "dropnulls",
		short:     "Drop rows with missing cleaned text and coerce it to strings",
		run:       (*qaprep.Prep).DropNullsFile,
		inputDir:  processedDir,
		outputDir: processedDir,
		suffix:    "_nonnull",
	})
}

func newFeaturesCmd(a *app) *cobra.Command {
	cmd := newFileCmd(a, fileStage{
		use:       "features",
		short:     "Extract text features from cleaned columns (all *_clean columns by default)",
		run:       (*qaprep.Prep).FeaturesFile,
		inputDir:  processedDir,
		outputDir: featuresDir,
		suffix:    "_features",
	})
	cmd.Flags().BoolVar(&a.xlsx, "xlsx", false, "also write an .xlsx copy of the output")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	return newFileCmd(a, fileStage{
		use:         "run",
		short:       "Clean and extract features in one pass (text.columns by default)",
		run:         (*qaprep.Prep).RunFile,
		defaultCols: func(a *app) []string { return a.cfg.Text.Columns },
		inputDir:    rawDir,
		outputDir:   featuresDir,
		suffix:      "_features",
	})
}

func newRunsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := a.prep.Store().ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCOMMAND\tSTATUS\tROWS\tSTARTED\tDURATION\tOUTPUT")
			for _, r := range runs {
				dur := "-"
				if !r.FinishedAt.IsZero() {
					dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					r.ID, r.Command, r.Status, r.Rows,
					r.StartedAt.Local().Format(time.DateTime), dur, r.Output)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

func printReport(w io.Writer, rep qaprep.Report) {
	fmt.Fprintf(w, "run %s: wrote %d rows x %d columns to %s\n", rep.RunID, rep.Rows, len(rep.Columns), rep.Output)
	if rep.Dropped > 0 {
		fmt.Fprintf(w, "dropped %d rows with missing text\n", rep.Dropped)
	}
	if len(rep.Columns) > 0 {
		fmt.Fprintf(w, "columns: %s\n", strings.Join(rep.Columns, ", "))
	}
}
