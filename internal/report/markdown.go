package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// Writer renders a Summary to some destination.
type Writer interface {
	// Write outputs the summary. Returns the number of bytes written
	// and any error encountered.
	Write(summary *Summary) (int, error)
}

// MarkdownWriter renders summaries as Markdown.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides type-safe tables, lists, and
// GitHub-flavored output.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeMutuals(md, summary)
	w.writeInterests(md, summary)

	md.HorizontalRule()
	md.PlainText("Generated " + summary.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	a := summary.Account

	md.H1("Account Report: @" + a.Username)
	md.PlainText("")

	visibility := "public"
	if a.IsPrivate {
		visibility = "private"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Account ID", "`" + a.ID + "`"},
			{"Display Name", a.FullName},
			{"Followers", strconv.Itoa(a.FollowerCount)},
			{"Following", strconv.Itoa(a.FollowingCount)},
			{"Visibility", visibility},
			{"Last Updated", a.LastUpdated.Format("2006-01-02 15:04:05")},
		},
	})
	md.PlainText("")

	if a.Bio != "" {
		md.Blockquote(a.Bio)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeMutuals(md *markdown.Markdown, summary *Summary) {
	md.H2("Mutual Connections")
	md.PlainText("")

	if len(summary.Mutuals) == 0 {
		md.PlainText("No mutual connections recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.Mutuals))
	for _, m := range summary.Mutuals {
		rows = append(rows, []string{"@" + m.Username, m.FullName})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Handle", "Display Name"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeInterests(md *markdown.Markdown, summary *Summary) {
	md.H2("Interest Breakdown")
	md.PlainText("")

	if len(summary.Interests) == 0 {
		md.PlainText("No classified accounts in the following set.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.Interests))
	for _, b := range summary.Interests {
		rows = append(rows, []string{
			b.Category,
			strconv.Itoa(b.Subjects),
			fmt.Sprintf("%.2f", b.AvgConfidence),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Accounts", "Avg Confidence"},
		Rows:   rows,
	})
	md.PlainText("")
}
