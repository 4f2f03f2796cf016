// Package report renders the end-of-run summary and publishes the error log
// next to the converted tree.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"flacmirror/internal/runstate"
)

// Summary carries everything the final report needs from the run.
type Summary struct {
	Snapshot    runstate.Snapshot
	Failures    []runstate.FailureRecord
	SourceBytes int64
	DryRun      bool
}

// Write renders the summary table and, when jobs failed, the failed-file
// list with a pointer to the persisted error log.
func Write(out io.Writer, summary Summary, errorLogPath string) {
	colorize := shouldColorize(out)

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSummaryTable(summary))

	headline := headlineFor(summary)
	fmt.Fprintln(out, colorizeHeadline(headline, summary, colorize))

	if len(summary.Failures) == 0 {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Failed files:")
	for _, failure := range summary.Failures {
		fmt.Fprintf(out, "  %s (%s)\n", failure.Path, failure.Cause)
	}
	if errorLogPath != "" {
		fmt.Fprintf(out, "Encoder diagnostics: %s\n", errorLogPath)
	}
}

func renderSummaryTable(summary Summary) string {
	convertedLabel, skippedLabel, failedLabel := "Converted", "Skipped", "Failed"
	if summary.DryRun {
		convertedLabel, skippedLabel = "Would convert", "Would skip"
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Outcome", "Files"})
	tw.AppendRow(table.Row{convertedLabel, summary.Snapshot.Success})
	tw.AppendRow(table.Row{skippedLabel, summary.Snapshot.Skipped})
	if !summary.DryRun {
		tw.AppendRow(table.Row{failedLabel, summary.Snapshot.Failed})
	}
	tw.AppendFooter(table.Row{"Total", summary.Snapshot.Total})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func headlineFor(summary Summary) string {
	snap := summary.Snapshot
	if summary.DryRun {
		return fmt.Sprintf("Dry run: %d of %d files would be converted (%s of source audio).",
			snap.Success, snap.Total, humanize.IBytes(uint64(summary.SourceBytes)))
	}
	resolution := 100 * time.Millisecond
	if snap.Elapsed >= time.Minute {
		resolution = time.Second
	}
	elapsed := snap.Elapsed.Round(resolution)
	if snap.Failed > 0 {
		return fmt.Sprintf("Finished with errors in %s: %d converted, %d skipped, %d failed.",
			elapsed, snap.Success, snap.Skipped, snap.Failed)
	}
	return fmt.Sprintf("Finished in %s: %d converted, %d skipped.",
		elapsed, snap.Success, snap.Skipped)
}

func colorizeHeadline(headline string, summary Summary, colorize bool) string {
	if !colorize {
		return headline
	}
	painter := color.New(color.FgGreen)
	if summary.Snapshot.Failed > 0 {
		painter = color.New(color.FgRed)
	}
	// color honors NO_COLOR globally; force the decision made from the
	// writer we are actually printing to.
	painter.EnableColor()
	return painter.Sprint(headline)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

