package worker

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ItemStatus is the outcome of one scraped item
type ItemStatus string

const (
	// StatusRecorded means a new price was stored
	StatusRecorded ItemStatus = "recorded"
	// StatusUnchanged means the price equalled the stored one
	StatusUnchanged ItemStatus = "unchanged"
	// StatusSkipped means the item had no usable markup or price
	StatusSkipped ItemStatus = "skipped"
	// StatusFailed means the item could not be processed (icon fetch)
	StatusFailed ItemStatus = "failed"
)

// ItemResult records what happened to one scraped item
type ItemResult struct {
	Title  string
	Price  string
	Status ItemStatus
	Reason string
}

// CityReport collects the item results of one city.
// Err is set when the city was aborted; Items then holds what was done before.
type CityReport struct {
	City   string
	CityID int64
	Items  []ItemResult
	Err    error
}

// Count returns how many items ended with status
func (c CityReport) Count(status ItemStatus) int {
	n := 0
	for _, item := range c.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// Report is the result of one batch run
type Report struct {
	Started  time.Time
	Finished time.Time
	Cities   []CityReport
}

// Total returns how many items across all cities ended with status
func (r *Report) Total(status ItemStatus) int {
	n := 0
	for _, c := range r.Cities {
		n += c.Count(status)
	}
	return n
}

// FailedCities returns the number of aborted cities
func (r *Report) FailedCities() int {
	n := 0
	for _, c := range r.Cities {
		if c.Err != nil {
			n++
		}
	}
	return n
}

// Render writes the per-city summary and every skipped or failed item
func (r *Report) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"City", "Recorded", "Unchanged", "Skipped", "Failed", "Error"})

	for _, c := range r.Cities {
		errText := ""
		if c.Err != nil {
			errText = c.Err.Error()
		}
		t.AppendRow(table.Row{
			c.City,
			c.Count(StatusRecorded),
			c.Count(StatusUnchanged),
			c.Count(StatusSkipped),
			c.Count(StatusFailed),
			errText,
		})
	}

	t.AppendFooter(table.Row{
		"Total",
		r.Total(StatusRecorded),
		r.Total(StatusUnchanged),
		r.Total(StatusSkipped),
		r.Total(StatusFailed),
		fmt.Sprintf("%d/%d cities failed in %s", r.FailedCities(), len(r.Cities), r.Finished.Sub(r.Started).Round(time.Millisecond)),
	})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()

	problems := table.NewWriter()
	problems.SetOutputMirror(w)
	problems.AppendHeader(table.Row{"City", "Item", "Status", "Reason"})
	for _, c := range r.Cities {
		for _, item := range c.Items {
			if item.Status == StatusSkipped || item.Status == StatusFailed {
				problems.AppendRow(table.Row{c.City, item.Title, item.Status, item.Reason})
			}
		}
	}
	if problems.Length() > 0 {
		problems.SetStyle(table.StyleRounded)
		problems.Render()
	}
}
