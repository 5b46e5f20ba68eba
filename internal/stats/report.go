package stats

import (
	"fmt"
	"io"

	"github.com/rodaine/table"

	"cdncrawler/internal/model"
)

// Report prints a summary for every prefix of store, in sorted order, and
// returns the summaries it printed.
func Report(w io.Writer, store model.Store, window int) []Summary {
	summaries := make([]Summary, 0, len(store))
	for _, prefix := range store.Prefixes() {
		s := Summarize(prefix, store[prefix], window)
		Render(w, s)
		summaries = append(summaries, s)
	}
	return summaries
}

// Render prints one summary as a two column table headed by the prefix.
func Render(w io.Writer, s Summary) {
	if s.Insufficient {
		fmt.Fprintln(w, s.Prefix)
		fmt.Fprintln(w, "\tNot enough data")
		return
	}

	tbl := table.New(s.Prefix, "").WithWriter(w).WithPadding(4)

	count := fmt.Sprint(s.Total)
	if s.Used < s.Total {
		count = fmt.Sprintf("%d (but only using the last %d)", s.Total, s.Used)
	}
	tbl.AddRow("COUNT", count)
	tbl.AddRow("HIT RATIO", fmt.Sprintf("%.1f%%", s.HitRatio))

	if !s.Instrumented {
		tbl.AddRow("AVERAGE", ms(s.Mean))
		tbl.AddRow("MEDIAN", ms(s.Median))
		tbl.Print()
		return
	}

	tbl.AddRow("AVERAGE (all)", ms(s.Mean))
	tbl.AddRow("MEDIAN (all)", ms(s.Median))
	for _, b := range s.Breakdown {
		tbl.AddRow(fmt.Sprintf("AVERAGE (%s)", b.Label), ms(b.Mean))
		tbl.AddRow(fmt.Sprintf("MEDIAN (%s)", b.Label), ms(b.Median))
	}
	tbl.Print()
	if s.BreakdownErr != nil {
		fmt.Fprintf(w, "\t%v\n", s.BreakdownErr)
	}
}

func ms(seconds float64) string {
	return fmt.Sprintf("%.2fms", seconds*1000)
}
