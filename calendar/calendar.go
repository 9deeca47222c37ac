// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package calendar contains day-granularity date helpers. All dates are
// represented as time.Time at midnight UTC so that comparisons are by
// calendar day only.
package calendar

import (
	"fmt"
	"time"
)

// DateFormat is the ISO-8601 layout used for every date crossing the package boundary
const DateFormat = "2006-01-02"

// Date returns midnight UTC of the given calendar day; out-of-range values are normalized
// the same way time.Date normalizes them
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize drops the time-of-day and location of t, keeping its calendar day
func Normalize(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// Parse reads a date in yyyy-mm-dd format
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q want format %q: %w", s, DateFormat, err)
	}
	return t, nil
}

// MustParse is like Parse but panics on error
func MustParse(s string) time.Time {
	t, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return t
}

// Format writes t as yyyy-mm-dd
func Format(t time.Time) string {
	return t.Format(DateFormat)
}

// MonthStart returns the first calendar day of the specified month
func MonthStart(year int, month time.Month) time.Time {
	return Date(year, month, 1)
}

// MonthEnd returns the last calendar day of the specified month
func MonthEnd(year int, month time.Month) time.Time {
	return Date(year, month, 1).AddDate(0, 1, -1)
}

// NextMonth returns the first day of the month following t
func NextMonth(t time.Time) time.Time {
	y := t.Year()
	m := t.Month()
	if m == time.December {
		y++
		m = time.January
	} else {
		m++
	}
	return Date(y, m, 1)
}

// Months returns the first day of every calendar month touched by the range [begin, end]
func Months(begin, end time.Time) []time.Time {
	if end.Before(begin) {
		return []time.Time{}
	}

	months := make([]time.Time, 0, 12)
	last := MonthStart(end.Year(), end.Month())
	for dt := MonthStart(begin.Year(), begin.Month()); !dt.After(last); dt = NextMonth(dt) {
		months = append(months, dt)
	}
	return months
}

// IsQuarterEndMonth is true for March, June, September and December
func IsQuarterEndMonth(m time.Month) bool {
	return m%3 == 0
}

// IsQuarterStartMonth is true for January, April, July and October
func IsQuarterStartMonth(m time.Month) bool {
	return m%3 == 1
}

// MaxTime returns the later of a and b
func MaxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// MinTime returns the earlier of a and b
func MinTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
