package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// PageBreak separates units in text output.
const PageBreak = "\f"

// WriteText renders units as plain text for terminal previews.
func WriteText(w io.Writer, units []Unit) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for _, u := range units {
		fmt.Fprintln(tw, u.Title)
		for _, line := range u.Header {
			fmt.Fprintln(tw, line)
		}
		fmt.Fprintln(tw)

		for _, t := range u.Tables {
			fmt.Fprintln(tw, t.Title)
			fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
			for _, row := range t.Rows {
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
			footer := make([]string, len(t.Headers))
			if n := len(footer); n > 0 {
				if n > 1 {
					footer[n-2] = t.FooterLabel
				}
				footer[n-1] = t.FooterTotal
			}
			fmt.Fprintln(tw, strings.Join(footer, "\t"))
			fmt.Fprintln(tw)
		}

		if u.Final != nil {
			fmt.Fprintln(tw, u.Final.Title)
			for _, line := range u.Final.Lines {
				fmt.Fprintf(tw, "%s\t%s\n", line.Label, line.Value)
			}
			fmt.Fprintln(tw, strings.Join(u.Final.Signatures, "\t"))
		}

		if u.PageBreakAfter {
			fmt.Fprintln(tw, PageBreak)
		}
	}
	return tw.Flush()
}
