package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/client"
)

// cellWidth is the width of one day column in the month grid.
const cellWidth = 8

var weekdayHeader = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	todayStyle = lipgloss.NewStyle().Reverse(true)
	busyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	doneStyle  = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// RenderOptions controls RenderMonth output.
type RenderOptions struct {
	// Today is highlighted when it falls in the rendered month.
	Today time.Time
	// Styled enables terminal styling; plain text otherwise.
	Styled bool
	// Unscheduled is the number of tasks that have no usable due date.
	Unscheduled int
}

func (o RenderOptions) style(s lipgloss.Style, text string) string {
	if !o.Styled {
		return text
	}
	return s.Render(text)
}

// RenderMonth renders a Monday-first grid of the month with the number of
// tasks due on each day, followed by the tasks of the month in day order.
func RenderMonth(month calendar.Month, buckets []calendar.DayBucket[client.Task], opts RenderOptions) string {
	var b strings.Builder

	title := fmt.Sprintf("%s %d", month.Month(), month.Year())
	b.WriteString(opts.style(titleStyle, title) + "\n\n")

	for _, wd := range weekdayHeader {
		b.WriteString(fmt.Sprintf("%-*s", cellWidth, wd))
	}
	b.WriteString("\n")

	// Monday is column 0.
	offset := (int(month.Start().Weekday()) + 6) % 7
	b.WriteString(strings.Repeat(" ", offset*cellWidth))

	today := !opts.Today.IsZero() && calendar.MonthOf(opts.Today).Equal(month)
	days := month.Days()
	for i := 0; i < days; i++ {
		day := i + 1
		var n int
		if i < len(buckets) {
			n = len(buckets[i].Tasks)
		}
		cell := fmt.Sprintf("%2d", day)
		if n > 0 {
			cell += fmt.Sprintf(" (%s)", countLabel(n))
		}
		cell = fmt.Sprintf("%-*s", cellWidth, cell)

		switch {
		case today && day == opts.Today.Day():
			cell = opts.style(todayStyle, cell)
		case n > 0:
			cell = opts.style(busyStyle, cell)
		}
		b.WriteString(cell)

		if (offset+i)%7 == 6 {
			b.WriteString("\n")
		}
	}
	if (offset+days)%7 != 0 {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	writeTaskList(&b, buckets, opts)

	if opts.Unscheduled > 0 {
		b.WriteString(opts.style(dimStyle, fmt.Sprintf("%d task(s) without a valid due date", opts.Unscheduled)) + "\n")
	}
	return b.String()
}

func countLabel(n int) string {
	if n > 9 {
		return "9+"
	}
	return fmt.Sprint(n)
}

func writeTaskList(b *strings.Builder, buckets []calendar.DayBucket[client.Task], opts RenderOptions) {
	total := 0
	for _, bucket := range buckets {
		total += len(bucket.Tasks)
	}
	if total == 0 {
		b.WriteString("  No tasks due this month.\n\n")
		return
	}

	for _, bucket := range buckets {
		for _, t := range bucket.Tasks {
			mark := " "
			title := t.Title
			if t.Done() {
				mark = "x"
				title = opts.style(doneStyle, title)
			}
			b.WriteString(fmt.Sprintf("  %s  [%s] %s\n", bucket.Date.Format(calendar.DateLayout), mark, title))
		}
	}
	b.WriteString("\n")
}

// renderError formats a fetch failure. Only the interactive view offers
// the retry key.
func renderError(err error, styled bool) string {
	line := fmt.Sprintf("Could not load tasks: %v", err)
	if !styled {
		return line
	}
	return errorStyle.Render(line + " (press r to retry)")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
