// Package calendar exports a race schedule as an iCalendar (.ics) file,
// one event per race at its post time.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/xlatombet/abt/internal/schedule"
)

// JST is the zone JRA start times are printed in.
var JST = time.FixedZone("JST", 9*60*60)

// RaceDuration is how long each calendar event lasts.
const RaceDuration = 10 * time.Minute

// GenerateScheduleICS generates a calendar with one VEVENT per race.
// Races whose location has no code are skipped. No races yield "".
func GenerateScheduleICS(entries []schedule.Entry, calendarName string, now time.Time) string {
	var events strings.Builder
	count := 0
	for _, e := range entries {
		if writeRace(&events, e, now) {
			count++
		}
	}
	if count == 0 {
		return ""
	}

	var ics strings.Builder
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//abt//race schedule//JA\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if calendarName != "" {
		ics.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICS(calendarName)))
	}
	ics.WriteString(events.String())
	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

// StartTime is the post time of a race in JST.
func StartTime(e schedule.Entry) time.Time {
	return time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), e.StartHour, e.StartMinute, 0, 0, JST)
}

func writeRace(ics *strings.Builder, e schedule.Entry, now time.Time) bool {
	raceID, err := e.RaceID()
	if err != nil {
		return false
	}
	netkeiba, _ := e.NetkeibaURL(schedule.ModeShutuba)
	start := StartTime(e)

	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s@race.netkeiba.com\r\n", raceID))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(now)))
	ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(start)))
	ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(start.Add(RaceDuration))))

	summary := fmt.Sprintf("%s%dR", e.Location, e.Race)
	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(summary)))

	description := fmt.Sprintf("%d回%s%d日 %dR\nJRA: %s\nnetkeiba: %s", e.Round, e.Location, e.Day, e.Race, e.URL, netkeiba)
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(description)))
	ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(e.Location+"競馬場")))
	ics.WriteString(fmt.Sprintf("URL:%s\r\n", netkeiba))
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:TRANSPARENT\r\n")
	ics.WriteString("END:VEVENT\r\n")
	return true
}

// formatICSTime renders t as a UTC DATE-TIME value.
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes a TEXT value (RFC 5545 3.3.11).
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
