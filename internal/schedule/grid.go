package schedule

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

// ErrInvalidGridConfig is returned for a non-positive period length or an
// operating window that fits no whole period.
var ErrInvalidGridConfig = errors.New("invalid grid config")

// GridConfig partitions [DayStart, DayEnd) into PeriodMinutes-wide periods.
type GridConfig struct {
	PeriodMinutes int             `json:"period_minutes"`
	DayStart      model.TimeOfDay `json:"day_start"`
	DayEnd        model.TimeOfDay `json:"day_end"`
}

// DefaultGridConfig is one-hour periods from 08:00 to 18:00.
var DefaultGridConfig = GridConfig{
	PeriodMinutes: 60,
	DayStart:      model.TimeOfDay(8 * 60),
	DayEnd:        model.TimeOfDay(18 * 60),
}

// Periods returns the whole periods that fit the window.  A trailing
// remainder shorter than PeriodMinutes is not rendered.
func (c GridConfig) Periods() ([]model.TimeRange, error) {
	if c.PeriodMinutes <= 0 {
		return nil, fmt.Errorf("%w: period length %d", ErrInvalidGridConfig, c.PeriodMinutes)
	}
	if !c.DayStart.Valid() || c.DayEnd < c.DayStart || c.DayEnd > model.MinutesPerDay {
		return nil, fmt.Errorf("%w: window %s-%s", ErrInvalidGridConfig, c.DayStart, c.DayEnd)
	}
	count := int(c.DayEnd-c.DayStart) / c.PeriodMinutes
	if count <= 0 {
		return nil, fmt.Errorf("%w: no period of %d minutes fits %s-%s", ErrInvalidGridConfig, c.PeriodMinutes, c.DayStart, c.DayEnd)
	}
	periods := make([]model.TimeRange, count)
	for i := range periods {
		start := c.DayStart + model.TimeOfDay(i*c.PeriodMinutes)
		periods[i] = model.TimeRange{Start: start, End: start + model.TimeOfDay(c.PeriodMinutes)}
	}
	return periods, nil
}

// GridCell holds every booking touching one hall during one period.
// Overlap is set when two of those bookings overlap each other.
type GridCell struct {
	Bookings []model.Slot `json:"bookings"`
	Overlap  bool         `json:"overlap,omitempty"`
}

// Free reports whether nothing is booked in the cell.
func (c GridCell) Free() bool { return len(c.Bookings) == 0 }

type GridRow struct {
	Hall  model.Hall `json:"hall"`
	Cells []GridCell `json:"cells"`
}

// Grid is the per-hall x per-period view of one branch day.
type Grid struct {
	BranchID int64             `json:"branch_id"`
	Date     model.Date        `json:"date"`
	Config   GridConfig        `json:"config"`
	Periods  []model.TimeRange `json:"periods"`
	Rows     []GridRow         `json:"rows"`
}

// Cell returns the cell for hallID at period index i.
func (g Grid) Cell(hallID int64, i int) (GridCell, bool) {
	for _, row := range g.Rows {
		if row.Hall.ID == hallID && i >= 0 && i < len(row.Cells) {
			return row.Cells[i], true
		}
	}
	return GridCell{}, false
}

// BuildGrid places bookings on date into a row per hall (ordered by hall
// ID) and a column per period.  A booking appears in every period its
// range intersects; it is never clipped.  Bookings on other dates or
// halls are ignored.
func BuildGrid(branchID int64, date model.Date, halls []model.Hall, cfg GridConfig, bookings iter.Seq[model.Booking]) (Grid, error) {
	periods, err := cfg.Periods()
	if err != nil {
		return Grid{}, err
	}

	sorted := slices.Clone(halls)
	slices.SortFunc(sorted, func(a, b model.Hall) int { return cmp.Compare(a.ID, b.ID) })

	rows := make([]GridRow, len(sorted))
	index := make(map[int64]int, len(sorted))
	for i, h := range sorted {
		cells := make([]GridCell, len(periods))
		for j := range cells {
			cells[j].Bookings = []model.Slot{}
		}
		rows[i] = GridRow{Hall: h, Cells: cells}
		index[h.ID] = i
	}

	for b := range bookings {
		s := b.Slot()
		i, ok := index[s.HallID]
		if !ok || s.Date != date {
			continue
		}
		for j, p := range periods {
			if !model.Overlaps(p, s.Range) {
				continue
			}
			cell := &rows[i].Cells[j]
			for _, other := range cell.Bookings {
				if model.Overlaps(other.Range, s.Range) {
					cell.Overlap = true
				}
			}
			cell.Bookings = append(cell.Bookings, s)
		}
	}

	return Grid{BranchID: branchID, Date: date, Config: cfg, Periods: periods, Rows: rows}, nil
}
