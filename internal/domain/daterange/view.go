package daterange

import (
	"strings"
	"time"
)

// WeekdayLabels are the column headers of a month grid; weeks start on Monday.
var WeekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ViewWindow identifies the first of the two consecutive months on display.
type ViewWindow struct {
	Year  int
	Month time.Month
}

// WindowOf returns the window whose first month contains d.
func WindowOf(d Date) ViewWindow {
	return ViewWindow{Year: d.Year, Month: d.Month}
}

// Add moves the window by delta months, rolling the year over in both directions.
func (v ViewWindow) Add(delta int) ViewWindow {
	idx := v.Year*12 + int(v.Month-time.January) + delta
	year := idx / 12
	month := idx % 12
	if month < 0 {
		month += 12
		year--
	}
	return ViewWindow{Year: year, Month: time.January + time.Month(month)}
}

// Second returns the window of the month displayed beside v.
func (v ViewWindow) Second() ViewWindow {
	return v.Add(1)
}

// Title is the human heading of the month, e.g. "March 2026".
func (v ViewWindow) Title() string {
	return time.Date(v.Year, v.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// Cell is one slot of a month grid. Placeholder cells pad the first week and
// carry no date.
type Cell struct {
	Placeholder bool
	Date        Date
	Disabled    bool
	InRange     bool
	Selected    bool
}

// Day returns the day-of-month label, 0 for placeholders.
func (c Cell) Day() int {
	if c.Placeholder {
		return 0
	}
	return c.Date.Day
}

// ISO returns the date of a real cell as YYYY-MM-DD, "" for placeholders.
func (c Cell) ISO() string {
	if c.Placeholder {
		return ""
	}
	return c.Date.ISO()
}

// Classes returns the CSS class list of the cell.
func (c Cell) Classes() string {
	if c.Placeholder {
		return ""
	}
	cls := []string{"drp-day"}
	if c.Disabled {
		cls = append(cls, "disabled")
	}
	if c.InRange {
		cls = append(cls, "in-range")
	}
	if c.Selected {
		cls = append(cls, "selected")
	}
	return strings.Join(cls, " ")
}

// MonthGrid is the rendered form of one calendar month.
type MonthGrid struct {
	Window   ViewWindow
	Title    string
	Weekdays []string
	Cells    []Cell
}

// Days returns only the real (non-placeholder) cells.
func (g MonthGrid) Days() []Cell {
	out := make([]Cell, 0, len(g.Cells))
	for _, c := range g.Cells {
		if !c.Placeholder {
			out = append(out, c)
		}
	}
	return out
}

// LeadingBlanks returns the number of placeholder cells at the start of the grid.
func (g MonthGrid) LeadingBlanks() int {
	n := 0
	for _, c := range g.Cells {
		if !c.Placeholder {
			break
		}
		n++
	}
	return n
}

// View is the full popover: two months side by side plus navigation targets.
type View struct {
	Window ViewWindow
	Prev   ViewWindow
	Next   ViewWindow
	Months [2]MonthGrid
	State  State
	Start  string // ISO of the current start, "" when absent
	End    string // ISO of the current end, "" when absent
}
