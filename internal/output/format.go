// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"tasksync/internal/analytics"
	"tasksync/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"
)

// FormatTask formats a task line for the listing.
// Format: "{N:>4}  [x] {TITLE}\n" (4-wide right-aligned number, checkbox, title)
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, checkbox(task.IsCompleted), normalizeTitle(task.Title))
}

// FormatTaskDetail formats a task line followed by its id and description,
// indented under the title.
func FormatTaskDetail(w io.Writer, num int, task service.Task) {
	FormatTask(w, num, task)
	fmt.Fprintf(w, "          #%s\n", task.ID)
	if desc := normalizeTitle(task.Description); strings.TrimSpace(task.Description) != "" {
		fmt.Fprintf(w, "          %s\n", desc)
	}
}

// FormatHeader formats a section header.
func FormatHeader(w io.Writer, title string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, ListSeparator)
}

func checkbox(c service.Completion) string {
	if c.Done() {
		return "[x]"
	}
	return "[ ]"
}

// FormatSeries prints one row per record with the given metric columns.
func FormatSeries(w io.Writer, s service.Series, keys []string) {
	fmt.Fprintf(w, "%-12s", "Date")
	for _, k := range keys {
		fmt.Fprintf(w, "  %12s", analytics.Label(k))
	}
	fmt.Fprintln(w)
	for _, rec := range s {
		fmt.Fprintf(w, "%-12s", rec.Date())
		for _, k := range keys {
			fmt.Fprintf(w, "  %12s", formatValue(rec[k]))
		}
		fmt.Fprintln(w)
	}
}

// FormatTotals prints the sum of each metric column.
func FormatTotals(w io.Writer, totals map[string]float64, keys []string) {
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", analytics.Label(k), formatValue(totals[k]))
	}
}

// FormatCards prints the summary counters.
func FormatCards(w io.Writer, cards []analytics.Card) {
	for _, c := range cards {
		value := "-"
		if c.Known {
			value = formatValue(c.Value)
		}
		fmt.Fprintf(w, "%-10s %12s  %s\n", c.Title, value, c.Description)
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
