package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xlatombet/abt/internal/document"
	"github.com/xlatombet/abt/internal/fetch"
	"github.com/xlatombet/abt/internal/racing"
)

const selectionURL = "https://www.jra.go.jp/JRADB/accessD.html?CNAME=pw01dli00"

const selectionPage = `
<html><body>
<div class="link_list multi div3 center mid narrow">
  <div><a href="/JRADB/accessD.html?CNAME=tokyo">5回東京8日</a></div>
  <div><a href="/JRADB/accessD.html?CNAME=kyoto">5回京都8日</a></div>
</div>
</body></html>`

func meetingPage(date, label string, races []int, prefix string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="syutsuba"><div class="cell date">`)
	b.WriteString(date + " " + label)
	b.WriteString(`</div></div><ul class="nav race-num mt15">`)
	for _, r := range races {
		fmt.Fprintf(&b, `<li><a href="/JRADB/accessD.html?CNAME=%s%02d"><img src="/img/%d.png" alt="%dレース"></a></li>`, prefix, r, r, r)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

func roundPage(clock string) string {
	return `<html><body><div id="syutsuba"><div class="cell date">2023年11月26日（日曜）</div>` +
		`<div class="cell time">発走時刻：<strong>` + clock + `</strong></div></div></body></html>`
}

func testPages() fetch.Pages {
	pages := fetch.Pages{
		selectionURL: selectionPage,
		JRABase + "/JRADB/accessD.html?CNAME=tokyo": meetingPage("2023年11月26日（日曜）", "5回東京8日", []int{1, 2, 12}, "tk"),
		JRABase + "/JRADB/accessD.html?CNAME=kyoto": meetingPage("2023年11月26日（日曜）", "5回京都8日", []int{11}, "ky"),
	}
	pages[JRABase+"/JRADB/accessD.html?CNAME=tk01"] = roundPage("9時50分")
	pages[JRABase+"/JRADB/accessD.html?CNAME=tk02"] = roundPage("10時20分")
	pages[JRABase+"/JRADB/accessD.html?CNAME=tk12"] = roundPage("16時10分")
	pages[JRABase+"/JRADB/accessD.html?CNAME=ky11"] = roundPage("15時40分")
	return pages
}

func TestBuildRaceID(t *testing.T) {
	tests := []struct {
		name     string
		year     int
		location string
		round    int
		day      int
		race     int
		want     string
		wantErr  error
	}{
		{"tokyo", 2023, "東京", 5, 8, 11, "202305050811", nil},
		{"sapporo pads code", 2024, "札幌", 1, 2, 3, "202401010203", nil},
		{"kokura two-digit code", 2024, "小倉", 2, 10, 12, "202410021012", nil},
		{"unknown location", 2024, "大井", 1, 1, 1, "", racing.ErrUnknownLocation},
		{"zero race", 2024, "東京", 1, 1, 0, "", racing.ErrMalformedLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildRaceID(tt.year, tt.location, tt.round, tt.day, tt.race)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEntry_NetkeibaURL(t *testing.T) {
	e := Entry{Date: time.Date(2023, 11, 26, 0, 0, 0, 0, time.UTC), Location: "東京", Round: 5, Day: 8, Race: 11}

	got, err := e.NetkeibaURL(ModeShutuba)
	require.NoError(t, err)
	require.Equal(t, "https://race.netkeiba.com/race/shutuba.html?race_id=202305050811", got)

	got, err = e.NetkeibaURL(ModeResult)
	require.NoError(t, err)
	require.Equal(t, "https://race.netkeiba.com/race/result.html?race_id=202305050811", got)

	e.Location = "Longchamp"
	_, err = e.NetkeibaURL(ModeShutuba)
	require.ErrorIs(t, err, racing.ErrUnknownLocation)
}

func TestParseMeetings(t *testing.T) {
	doc, err := document.ParseString(selectionPage)
	require.NoError(t, err)

	got, err := ParseMeetings(doc, JRABase)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, 5, got[0].Round)
	require.Equal(t, "東京", got[0].Location)
	require.Equal(t, 8, got[0].Day)
	require.Equal(t, JRABase+"/JRADB/accessD.html?CNAME=tokyo", got[0].URL)
	require.Equal(t, "京都", got[1].Location)
}

func TestParseMeetings_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		wantErr error
	}{
		{
			name:    "missing round marker",
			html:    `<div class="link_list multi div3 center mid narrow"><a href="/x">東京5日</a></div>`,
			wantErr: racing.ErrMalformedLabel,
		},
		{
			name:    "no links",
			html:    `<div class="link_list"></div>`,
			wantErr: racing.ErrMissingField,
		},
		{
			name:    "link without href",
			html:    `<div class="link_list multi div3 center mid narrow"><a>5回東京5日</a></div>`,
			wantErr: racing.ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := document.ParseString(tt.html)
			require.NoError(t, err)
			_, err = ParseMeetings(doc, JRABase)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseRounds(t *testing.T) {
	pages := testPages()
	doc, err := pages.Fetch(context.Background(), JRABase+"/JRADB/accessD.html?CNAME=tokyo")
	require.NoError(t, err)

	got, err := ParseRounds(context.Background(), doc, JRABase, pages)
	require.NoError(t, err)

	date := time.Date(2023, 11, 26, 0, 0, 0, 0, time.UTC)
	want := []Entry{
		{Date: date, Location: "東京", Round: 5, Day: 8, Race: 1, StartHour: 9, StartMinute: 50, URL: JRABase + "/JRADB/accessD.html?CNAME=tk01"},
		{Date: date, Location: "東京", Round: 5, Day: 8, Race: 2, StartHour: 10, StartMinute: 20, URL: JRABase + "/JRADB/accessD.html?CNAME=tk02"},
		{Date: date, Location: "東京", Round: 5, Day: 8, Race: 12, StartHour: 16, StartMinute: 10, URL: JRABase + "/JRADB/accessD.html?CNAME=tk12"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseRounds() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRounds_Errors(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		pages   fetch.Pages
		wantErr error
	}{
		{
			name:    "no round info",
			html:    `<ul class="nav race-num"></ul>`,
			wantErr: racing.ErrMissingField,
		},
		{
			name:    "repeated year in date",
			html:    meetingPage("2023年2023年11月26日", "5回東京8日", nil, "tk"),
			wantErr: racing.ErrAmbiguousMatch,
		},
		{
			name:    "malformed meeting label",
			html:    meetingPage("2023年11月26日（日曜）", "東京8日", nil, "tk"),
			wantErr: racing.ErrMalformedLabel,
		},
		{
			name:    "round page unavailable",
			html:    meetingPage("2023年11月26日（日曜）", "5回東京8日", []int{1}, "tk"),
			pages:   fetch.Pages{},
			wantErr: racing.ErrFetch,
		},
		{
			name:    "round page without time",
			html:    meetingPage("2023年11月26日（日曜）", "5回東京8日", []int{1}, "tk"),
			pages:   fetch.Pages{JRABase + "/JRADB/accessD.html?CNAME=tk01": `<div id="syutsuba"></div>`},
			wantErr: racing.ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := document.ParseString(tt.html)
			require.NoError(t, err)
			_, err = ParseRounds(context.Background(), doc, JRABase, tt.pages)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtractor(t *testing.T) {
	var _ racing.Extractor = (*Extractor)(nil)

	e := New(testPages(), selectionURL)
	require.NoError(t, e.Init(context.Background()))

	entries := e.Entries()
	require.Len(t, entries, 4)

	// Meeting order, then link order
	races := make([]string, len(entries))
	for i, en := range entries {
		races[i] = fmt.Sprintf("%s%d", en.Location, en.Race)
	}
	require.Equal(t, []string{"東京1", "東京2", "東京12", "京都11"}, races)

	df := e.Data()
	require.Equal(t, 4, df.Nrow())
	require.Equal(t, []string{
		"date", "location", "round", "day", "race", "startHour", "startMinute",
		"url", "netkeibaURL", "resultURL",
	}, df.Names())

	records := df.Records()
	require.Equal(t, "2023-11-26", records[4][0])
	require.Equal(t, "15", records[4][5])
	require.Equal(t, "https://race.netkeiba.com/race/shutuba.html?race_id=202308050811", records[4][8])
	require.Equal(t, "https://race.netkeiba.com/race/result.html?race_id=202308050811", records[4][9])
}

func TestExtractor_UnknownLocation(t *testing.T) {
	pages := fetch.Pages{
		selectionURL: `<div class="link_list multi div3 center mid narrow"><a href="/m">1回大井1日</a></div>`,
		JRABase + "/m": meetingPage("2023年11月26日（日曜）", "1回大井1日", []int{1}, "oi"),
		JRABase + "/JRADB/accessD.html?CNAME=oi01": roundPage("15時00分"),
	}

	e := New(pages, selectionURL)
	err := e.Init(context.Background())
	if !errors.Is(err, racing.ErrUnknownLocation) {
		t.Fatalf("Init() error = %v, want ErrUnknownLocation", err)
	}
	if e.Data().Nrow() != 0 {
		t.Error("Data() after failed Init should be empty")
	}
}
