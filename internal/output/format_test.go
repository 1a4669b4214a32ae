package output

import (
	"bytes"
	"testing"

	"tasksync/internal/analytics"
	"tasksync/internal/service"
	"tasksync/internal/testutil"
)

func TestFormatTask(t *testing.T) {
	var buf bytes.Buffer
	FormatTask(&buf, 1, service.Task{Title: "buy milk", IsCompleted: service.Number(1)})
	FormatTask(&buf, 12, service.Task{Title: "line\nbreak", IsCompleted: service.Bool(false)})
	FormatTask(&buf, 3, service.Task{Title: "   "})

	expected := "   1  [x] buy milk\n  12  [ ] line break\n   3  [ ] (untitled)\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

func TestFormatTaskDetail(t *testing.T) {
	var buf bytes.Buffer
	FormatTaskDetail(&buf, 2, service.Task{ID: service.IntID(7), Title: "t", Description: "more"})
	FormatTaskDetail(&buf, 3, service.Task{ID: service.StringID("abc"), Title: "u"})
	testutil.GoldenString(t, "task_detail", buf.String())
}

func TestFormatSeries(t *testing.T) {
	s := service.Series{
		{"date": "2024-01-01", "page_views": 10.0, "mobile": "n/a"},
		{"date": "2024-01-02", "page_views": 12.5, "mobile": 3.0},
	}
	var buf bytes.Buffer
	FormatSeries(&buf, s, []string{"mobile", "page_views"})
	FormatTotals(&buf, analytics.Totals(s), []string{"mobile", "page_views"})
	testutil.GoldenString(t, "series", buf.String())
}

func TestFormatCards(t *testing.T) {
	var buf bytes.Buffer
	FormatCards(&buf, []analytics.Card{
		{Title: "Todos", Value: 1500, Known: true, Description: "High activity"},
		{Title: "Users", Description: analytics.NoData},
	})
	expected := "Todos              1500  High activity\nUsers                 -  No data\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}
