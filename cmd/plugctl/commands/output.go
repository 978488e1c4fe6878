package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/sym"
)

// renderTable writes a pterm table whose first row is the header
func renderTable(w io.Writer, rows [][]string) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func printSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprint(w, pterm.Success.Sprintfln(format, args...))
}

func printInfo(w io.Writer, format string, args ...interface{}) {
	fmt.Fprint(w, pterm.Info.Sprintfln(format, args...))
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprint(w, pterm.Warning.Sprintfln(format, args...))
}

// PrintError writes err and every hint attached to it
func PrintError(w io.Writer, err error) {
	fmt.Fprint(w, pterm.Error.Sprintln(err.Error()))
	for _, hint := range errors.GetAllHints(err) {
		for _, line := range strings.Split(hint, "\n") {
			fmt.Fprintf(w, "  %s %s\n", sym.Pointer, line)
		}
	}
}
