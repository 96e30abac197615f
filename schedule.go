package ingest

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"
)

// ScriptFileName is the default name of the generated batch script.
const ScriptFileName = "call_functions_batch.sh"

const dateFormat = "2006-01-02"

// DayInterval is one calendar day's fetch window:
// [local midnight of Date, local midnight of Date+1).
type DayInterval struct {
	Date   time.Time
	Oldest time.Time
	Latest time.Time
}

// BuildSchedule splits the inclusive [startDate, endDate] range into
// one DayInterval per calendar day. Dates are YYYY-MM-DD, interpreted
// in loc. startDate == endDate yields exactly one interval.
func BuildSchedule(startDate, endDate string, loc *time.Location) ([]DayInterval, error) {
	start, err := time.ParseInLocation(dateFormat, startDate, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.ParseInLocation(dateFormat, endDate, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if start.After(end) {
		return nil, fmt.Errorf("start date %s must not be after end date %s", startDate, endDate)
	}

	var days []DayInterval
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, DayInterval{
			Date:   d,
			Oldest: d,
			// AddDate keeps the calendar day stepping correct across
			// DST transitions.
			Latest: d.AddDate(0, 0, 1),
		})
	}
	return days, nil
}

// RenderScript emits one runner invocation per day, each passing that
// day's epoch boundaries and the derived batch directory.
func RenderScript(days []DayInterval, runner string) []byte {
	lines := []string{"#!/bin/sh"}
	for i, day := range days {
		lines = append(lines, fmt.Sprintf("echo exec call function %d", i+1))
		lines = append(lines, fmt.Sprintf("%s --oldest %d --latest %d --out-dir %s",
			runner,
			day.Oldest.Unix(),
			day.Latest.Unix(),
			path.Join(lakeDirName, BatchDirName(day.Date)),
		))
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// WriteScript renders the schedule and writes it as an executable
// shell script.
func WriteScript(scriptPath string, days []DayInterval, runner string) error {
	return os.WriteFile(scriptPath, RenderScript(days, runner), 0755)
}
