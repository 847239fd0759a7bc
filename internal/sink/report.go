package sink

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"

	"webcorpus/internal/crawler"
	"webcorpus/internal/model"
)

// ReportFile is the default name for the Markdown crawl report.
const ReportFile = "crawl_report.md"

// WriteReport renders a human-readable Markdown summary of a crawl run.
func WriteReport(w io.Writer, result *crawler.Result) error {
	md := markdown.NewMarkdown(w)

	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + result.Seed + "`"},
			{"Started", result.Started.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.Finished.Sub(result.Started).String()},
			{"Termination", terminationText(result.Termination)},
			{"Pages Fetched", strconv.Itoa(result.Fetched())},
			{"Pages Failed", strconv.Itoa(result.Failed())},
			{"Links Discovered", strconv.Itoa(len(result.Extracted))},
		},
	})
	md.PlainText("")

	writeDepthTable(md, result)
	writeFailureTable(md, result)

	return md.Build()
}

func terminationText(t crawler.Termination) string {
	switch t {
	case crawler.TerminationExhausted:
		return "Complete (frontier exhausted)"
	case crawler.TerminationPageLimit:
		return "Stopped at page limit"
	case crawler.TerminationCancelled:
		return "Cancelled (partial results)"
	default:
		return string(t)
	}
}

// writeDepthTable summarizes fetched and failed pages per crawl depth.
func writeDepthTable(md *markdown.Markdown, result *crawler.Result) {
	type depthStats struct {
		fetched int
		failed  int
	}
	byDepth := make(map[int]*depthStats)
	var depths []int
	for _, rec := range result.Records {
		st, ok := byDepth[rec.Depth]
		if !ok {
			st = &depthStats{}
			byDepth[rec.Depth] = st
			depths = append(depths, rec.Depth)
		}
		switch rec.Status {
		case model.StatusFetched:
			st.fetched++
		case model.StatusFailed:
			st.failed++
		}
	}
	sort.Ints(depths)

	md.H2("Pages by Depth")
	md.PlainText("")

	rows := make([][]string, 0, len(depths))
	for _, d := range depths {
		st := byDepth[d]
		rows = append(rows, []string{
			strconv.Itoa(d),
			strconv.Itoa(st.fetched),
			strconv.Itoa(st.failed),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Depth", "Fetched", "Failed"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailureTable lists failed pages grouped by failure kind. The
// section is omitted when every fetch succeeded.
func writeFailureTable(md *markdown.Markdown, result *crawler.Result) {
	var failed []*model.PageRecord
	for _, rec := range result.Records {
		if rec.Status == model.StatusFailed {
			failed = append(failed, rec)
		}
	}
	if len(failed) == 0 {
		return
	}
	sort.Slice(failed, func(i, j int) bool {
		if failed[i].FailureKind != failed[j].FailureKind {
			return failed[i].FailureKind < failed[j].FailureKind
		}
		return failed[i].URL < failed[j].URL
	})

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, 0, len(failed))
	for _, rec := range failed {
		status := "-"
		if rec.StatusCode != 0 {
			status = strconv.Itoa(rec.StatusCode)
		}
		rows = append(rows, []string{"`" + rec.URL + "`", rec.FailureKind, status})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "HTTP Status"},
		Rows:   rows,
	})
	md.PlainText("")
}
