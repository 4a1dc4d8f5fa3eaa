package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
)

func WriteTable(r *Report, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "\n=== Descriptor Check ===\n\n")
	writeFilesTable(tw, r)
	writeIssuesTable(tw, r)
	writeSummaryTable(tw, r)

	tw.Flush()
}

func writeFilesTable(tw *tabwriter.Writer, r *Report) {
	header := []string{"File", "Kind", "Name", "Status", "Errors", "Warnings", "Time"}
	writeHeader(tw, header)

	for _, f := range r.Files {
		row := []string{
			orDash(f.Path),
			string(f.Kind),
			orDash(f.Name),
			strings.ToUpper(string(f.Status)),
			fmt.Sprintf("%d", f.ErrorCount()),
			fmt.Sprintf("%d", f.WarningCount()),
			fmtDuration(f.Duration),
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	fmt.Fprintln(tw)
}

func writeIssuesTable(tw *tabwriter.Writer, r *Report) {
	total := r.Summary.Errors + r.Summary.Warnings
	if total == 0 {
		return
	}
	fmt.Fprintf(tw, "Issues (%d)\n\n", total)
	writeHeader(tw, []string{"File", "Severity", "Path", "Message"})

	for _, f := range r.Files {
		for _, i := range f.Issues {
			row := []string{orDash(f.Path), string(i.Severity), orDash(i.Path), i.Message}
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
	}
	fmt.Fprintln(tw)
}

func writeSummaryTable(tw *tabwriter.Writer, r *Report) {
	fmt.Fprintf(tw, "Summary\n\n")
	writeHeader(tw, []string{"Kind", "Files", "Valid", "Invalid", "Unreadable", "Errors", "Warnings"})

	kinds := make([]descriptor.Kind, 0, len(r.Summary.ByKind))
	for k := range r.Summary.ByKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, k := range kinds {
		writeCounts(tw, string(k), r.Summary.ByKind[k])
	}
	writeCounts(tw, "total", r.Summary.Counts)
	fmt.Fprintln(tw)
}

func writeHeader(tw *tabwriter.Writer, header []string) {
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintln(tw, strings.Join(sep, "\t"))
}

func writeCounts(tw *tabwriter.Writer, label string, c Counts) {
	fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
		label, c.Total, c.Valid, c.Invalid, c.Unreadable, c.Errors, c.Warnings)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func fmtDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%.1fµs", float64(d.Microseconds()))
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
