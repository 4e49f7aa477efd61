// Package grid lays out the date cells used by the month, week and day views.
package grid

import "time"

// MonthStart returns midnight on the first day of the month at index, where
// index counts months from January of base's year. Indices below 0 or above
// 11 roll into neighbouring years.
func MonthStart(base time.Time, index int) time.Time {
	return time.Date(base.Year(), time.January+time.Month(index), 1, 0, 0, 0, 0, base.Location())
}

// Month returns the weeks needed to show every day of the month at index,
// padded with days from the previous and next months so each row has seven
// cells starting on weekStart.
func Month(base time.Time, index int, weekStart time.Weekday) [][]time.Time {
	first := MonthStart(base, index)
	offset := (int(first.Weekday()) - int(weekStart) + 7) % 7
	days := daysIn(first)
	rows := (offset + days + 6) / 7

	cursor := first.AddDate(0, 0, -offset)
	weeks := make([][]time.Time, rows)
	for r := range weeks {
		week := make([]time.Time, 7)
		for c := range week {
			week[c] = cursor
			cursor = cursor.AddDate(0, 0, 1)
		}
		weeks[r] = week
	}
	return weeks
}

// IndexOf returns the month index of t relative to January of base's year.
func IndexOf(base, t time.Time) int {
	t = t.In(base.Location())
	return (t.Year()-base.Year())*12 + int(t.Month()) - 1
}

// Week returns the seven days of the week containing day.
func Week(day time.Time, weekStart time.Weekday) []time.Time {
	start := startOfDay(day)
	start = start.AddDate(0, 0, -((int(start.Weekday()) - int(weekStart) + 7) % 7))

	out := make([]time.Time, 7)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// Hours returns the 24 hour slots of day. Slots are built from wall-clock
// hours so a DST transition yields a repeated or skipped slot rather than a
// shifted day.
func Hours(day time.Time) []time.Time {
	start := startOfDay(day)
	out := make([]time.Time, 24)
	for h := range out {
		out[h] = time.Date(start.Year(), start.Month(), start.Day(), h, 0, 0, 0, start.Location())
	}
	return out
}

// SameDay reports whether t falls on the calendar day of cell, comparing in
// cell's location.
func SameDay(cell, t time.Time) bool {
	t = t.In(cell.Location())
	return t.Year() == cell.Year() && t.YearDay() == cell.YearDay()
}

// SameHour reports whether t falls within the hour of cell.
func SameHour(cell, t time.Time) bool {
	return SameDay(cell, t) && t.In(cell.Location()).Hour() == cell.Hour()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysIn(first time.Time) int {
	return first.AddDate(0, 1, -1).Day()
}
