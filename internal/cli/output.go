package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
	noticeColor  = color.New(color.FgYellow)
)

func printError(w io.Writer, err error) {
	_, _ = errorColor.Fprintln(w, err.Error())
}

func printSuccess(w io.Writer, format string, args ...any) {
	_, _ = successColor.Fprintln(w, fmt.Sprintf(format, args...))
}

func printNotice(w io.Writer, format string, args ...any) {
	_, _ = noticeColor.Fprintln(w, fmt.Sprintf(format, args...))
}

// printTable renders rows under headers, left aligned.
func printTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
