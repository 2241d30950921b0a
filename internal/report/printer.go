// Package report renders the outcome of a sync run for humans and scripts.
package report

import (
	"filmsync/internal/models"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
)

const (
	FormatAuto  = "auto"
	FormatTable = "table"
	FormatJSON  = "json"
)

// ResolveFormat turns "auto" into table for terminals and JSON otherwise.
func ResolveFormat(format string, out io.Writer) string {
	if format != FormatAuto && format != "" {
		return format
	}
	if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return FormatTable
	}
	return FormatJSON
}

func Print(out io.Writer, format string, r *models.RunReport) error {
	switch ResolveFormat(format, out) {
	case FormatJSON:
		return printJSON(out, r)
	case FormatTable:
		return printTable(out, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func printJSON(out io.Writer, r *models.RunReport) error {
	gson, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(gson))
	return err
}

func printTable(out io.Writer, r *models.RunReport) error {
	countries := tablewriter.NewWriter(out)
	countries.Header("Country", "Pages", "Films", "Malformed", "Status")
	rows := make([][]string, 0, len(r.Countries))
	for _, c := range r.Countries {
		status := "ok"
		if c.Failed {
			status = "failed: " + c.Error
		}
		pages := strconv.Itoa(c.Pages)
		if c.TotalPages > 0 {
			pages += "/" + strconv.Itoa(c.TotalPages)
		}
		rows = append(rows, []string{c.Country, pages, strconv.Itoa(c.Films), strconv.Itoa(c.Malformed), status})
	}
	if err := countries.Bulk(rows); err != nil {
		return err
	}
	if err := countries.Render(); err != nil {
		return err
	}

	outcome := "unchanged"
	switch {
	case r.Failed():
		outcome = "failed in " + r.FailedPhase
	case r.HasChanges:
		outcome = "changed"
	}

	summary := tablewriter.NewWriter(out)
	summary.Header("Run", "Outcome", "Films", "Added", "Removed", "Modified", "Unchanged", "Duration")
	err := summary.Bulk([][]string{{
		r.RunID,
		outcome,
		strconv.Itoa(r.TotalFilms),
		strconv.Itoa(r.Changes.Added),
		strconv.Itoa(r.Changes.Removed),
		strconv.Itoa(r.Changes.Modified),
		strconv.Itoa(r.UnchangedCount),
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
	}})
	if err != nil {
		return err
	}
	if err := summary.Render(); err != nil {
		return err
	}

	if r.Error != "" {
		_, err = fmt.Fprintf(out, "error: %s\n", r.Error)
	}
	return err
}
