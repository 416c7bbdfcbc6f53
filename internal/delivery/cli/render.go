package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"dutree/internal/domain/report"
)

func printReport(w io.Writer, rep *report.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if rep.ID != "" {
		fmt.Fprintf(tw, "id\t%s\n", rep.ID)
	}
	fmt.Fprintf(tw, "transcript\t%s\n", rep.Name)
	fmt.Fprintf(tw, "digest\t%s\n", rep.Digest)
	fmt.Fprintf(tw, "lines\t%d\n", rep.Lines)
	fmt.Fprintf(tw, "entries\t%d dirs, %d files\n", rep.DirCount, rep.FileCount)
	fmt.Fprintf(tw, "total size\t%d\n", rep.TotalSize)
	fmt.Fprintf(tw, "sum of dirs <= %d\t%d\n", rep.Threshold, rep.SumAtMost)
	fmt.Fprintf(tw, "available\t%d of %d\n", rep.Available, rep.Capacity)
	fmt.Fprintf(tw, "needed for %d free\t%d\n", rep.Required, rep.Needed)
	if c := rep.DeleteCandidate; c != nil {
		fmt.Fprintf(tw, "delete\t%s (%d)\n", c.Path, c.Size)
	} else {
		fmt.Fprintf(tw, "delete\tnone\n")
	}

	return tw.Flush()
}

func printReportList(w io.Writer, reports []*report.Report) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintln(w, "no reports")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tNAME\tTOTAL\tSUM\tDELETE")
	for _, rep := range reports {
		candidate := "none"
		if c := rep.DeleteCandidate; c != nil {
			candidate = fmt.Sprintf("%s (%d)", c.Path, c.Size)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			rep.ID, rep.CreatedAt.Local().Format(time.DateTime), rep.Name, rep.TotalSize, rep.SumAtMost, candidate)
	}
	return tw.Flush()
}
