package textutil

import (
	"regexp"
	"strings"
	"time"

	"github.com/xlatombet/abt/internal/racing"
)

var (
	yearPattern  = regexp.MustCompile(`(\d+)年`)
	monthPattern = regexp.MustCompile(`(\d+)月`)
	dayPattern   = regexp.MustCompile(`(\d+)日`)

	hourPattern   = regexp.MustCompile(`(\d+)時`)
	minutePattern = regexp.MustCompile(`(\d+)分`)

	roundPattern    = regexp.MustCompile(`(\d+)回`)
	locationPattern = regexp.MustCompile(`\d+回(\D+?)\d+日`)
)

// ParseDate reads "<year>年<month>月<day>日" with an optional parenthesized
// weekday, e.g. "2023年11月26日（日曜）". The result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(StripParens(s))

	year, err := CaptureInt(yearPattern, s, "year")
	if err != nil {
		return time.Time{}, err
	}
	month, err := CaptureInt(monthPattern, s, "month")
	if err != nil {
		return time.Time{}, err
	}
	day, err := CaptureInt(dayPattern, s, "day")
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, racing.Malformed("date", s)
	}
	return t, nil
}

// ParseClock reads "<hour>時<minute>分".
func ParseClock(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	if hour, err = CaptureInt(hourPattern, s, "hour"); err != nil {
		return 0, 0, err
	}
	if minute, err = CaptureInt(minutePattern, s, "minute"); err != nil {
		return 0, 0, err
	}
	if hour > 23 || minute > 59 {
		return 0, 0, racing.Malformed("clock", s)
	}
	return hour, minute, nil
}

// MeetingLabel is the decoded form of a label like "5回東京5日".
type MeetingLabel struct {
	Round    int
	Location string
	Day      int
}

// ParseMeetingLabel decodes "<round>回<location><day>日". Round, location
// and day are captured independently and each must occur exactly once.
func ParseMeetingLabel(s string) (MeetingLabel, error) {
	s = strings.TrimSpace(s)

	round, err := CaptureInt(roundPattern, s, "round")
	if err != nil {
		return MeetingLabel{}, err
	}
	day, err := CaptureInt(dayPattern, s, "day")
	if err != nil {
		return MeetingLabel{}, err
	}
	location, err := CaptureOne(locationPattern, s, "location")
	if err != nil {
		return MeetingLabel{}, err
	}
	if round < 1 || day < 1 {
		return MeetingLabel{}, racing.Malformed("meeting", s)
	}

	return MeetingLabel{Round: round, Location: strings.TrimSpace(location), Day: day}, nil
}
