package tui

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"taskboard/internal/models"
)

var titleCaser = cases.Title(language.English)

// daySuffix returns the English ordinal suffix for a day of the month.
func daySuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// formatDate renders t as e.g. "16th Oct, 2026".
func formatDate(t time.Time) string {
	return fmt.Sprintf("%d%s %s, %d", t.Day(), daySuffix(t.Day()), t.Format("Jan"), t.Year())
}

func columnTitle(s models.TaskState) string {
	return titleCaser.String(s.Label())
}

// metricLabel turns "inProgress" into "In Progress".
func metricLabel(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return titleCaser.String(b.String())
}

func dueLabel(t *models.Task) string {
	if t.DueDate == nil {
		return ""
	}
	d := t.DueDate.Local()
	return fmt.Sprintf("%s %d%s", d.Format("Jan"), d.Day(), daySuffix(d.Day()))
}
