package pricing

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SlotBookingService/internal/domain"
	"github.com/m04kA/SMC-SlotBookingService/pkg/types"
)

// conditionsRow jsonb-представление условий правила
type conditionsRow struct {
	DaysOfWeek    []int         `json:"daysOfWeek,omitempty"`
	DateRange     *dateRangeRow `json:"dateRange,omitempty"`
	SpecificDates []string      `json:"specificDates,omitempty"`
	TimeRange     *timeRangeRow `json:"timeRange,omitempty"`
	DaysBefore    *boundsRow    `json:"daysBefore,omitempty"`
	Occupancy     *boundsRow    `json:"occupancy,omitempty"`
}

type dateRangeRow struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type timeRangeRow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type boundsRow struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

func toConditionsRow(c domain.RuleConditions) conditionsRow {
	row := conditionsRow{}

	for _, d := range c.DaysOfWeek {
		row.DaysOfWeek = append(row.DaysOfWeek, int(d))
	}
	if c.DateRange != nil {
		row.DateRange = &dateRangeRow{
			From: c.DateRange.From.Format(domain.DateFormat),
			To:   c.DateRange.To.Format(domain.DateFormat),
		}
	}
	for _, d := range c.SpecificDates {
		row.SpecificDates = append(row.SpecificDates, d.Format(domain.DateFormat))
	}
	if c.TimeRange != nil {
		row.TimeRange = &timeRangeRow{Start: c.TimeRange.Start.String(), End: c.TimeRange.End.String()}
	}
	if c.DaysBefore != nil {
		row.DaysBefore = &boundsRow{Min: c.DaysBefore.Min, Max: c.DaysBefore.Max}
	}
	if c.Occupancy != nil {
		row.Occupancy = &boundsRow{Min: c.Occupancy.Min, Max: c.Occupancy.Max}
	}

	return row
}

func (row conditionsRow) toDomain() (domain.RuleConditions, error) {
	c := domain.RuleConditions{}

	for _, d := range row.DaysOfWeek {
		c.DaysOfWeek = append(c.DaysOfWeek, time.Weekday(d))
	}
	if row.DateRange != nil {
		from, err := domain.ParseDate(row.DateRange.From)
		if err != nil {
			return c, fmt.Errorf("date range from: %w", err)
		}
		to, err := domain.ParseDate(row.DateRange.To)
		if err != nil {
			return c, fmt.Errorf("date range to: %w", err)
		}
		c.DateRange = &domain.DateRange{From: from, To: to}
	}
	for _, s := range row.SpecificDates {
		d, err := domain.ParseDate(s)
		if err != nil {
			return c, fmt.Errorf("specific date: %w", err)
		}
		c.SpecificDates = append(c.SpecificDates, d)
	}
	if row.TimeRange != nil {
		c.TimeRange = &domain.TimeRange{
			Start: types.TimeString(row.TimeRange.Start),
			End:   types.TimeString(row.TimeRange.End),
		}
	}
	if row.DaysBefore != nil {
		c.DaysBefore = &domain.IntBounds{Min: row.DaysBefore.Min, Max: row.DaysBefore.Max}
	}
	if row.Occupancy != nil {
		c.Occupancy = &domain.IntBounds{Min: row.Occupancy.Min, Max: row.Occupancy.Max}
	}

	return c, nil
}
