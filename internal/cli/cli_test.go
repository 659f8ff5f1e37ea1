package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xlatombet/abt/internal/fetch"
	"github.com/xlatombet/abt/internal/racing"
	"github.com/xlatombet/abt/internal/schedule"
)

const (
	shutubaURL = "https://race.netkeiba.com/race/shutuba.html?race_id=202305050811"
	resultURL  = "https://race.netkeiba.com/race/result.html?race_id=202305050811"
	oddsURL    = "https://www.jra.go.jp/JRADB/accessD.html?CNAME=tk11"
)

const shutubaPage = `<html><body>
<div class="RaceData01">15:40発走 /<span> 芝2400m</span> (<span>左</span>)
/ 天候:晴<span class="Icon_Weather Weather01"></span>
<span class="Item03">/ 馬場:良</span></div>
<div class="RaceData02"><span>18頭</span></div>
<table><tbody>
<tr class="HorseList">
  <td class="Waku1 Txt_C"><span>1</span></td><td class="Umaban1 Txt_C">1</td>
  <td><span class="HorseName"><a href="https://db.netkeiba.com/horse/2019105219/">イクイノックス</a></span></td>
  <td class="Barei Txt_C">牡4</td><td class="Txt_C">58.0</td>
  <td class="Trainer"><span>美浦</span><a href="https://db.netkeiba.com/trainer/01071/">木村哲也</a></td>
  <td class="Weight">496(+2)</td>
</tr>
<tr class="HorseList">
  <td class="Waku2 Txt_C"><span>2</span></td><td class="Umaban2 Txt_C">2</td>
  <td><span class="HorseName"><a href="https://db.netkeiba.com/horse/2020104385/">リバティアイランド</a></span></td>
  <td class="Barei Txt_C">牝3</td><td class="Txt_C">54.0</td>
  <td class="Trainer"><span>栗東</span><a href="https://db.netkeiba.com/trainer/01126/">中内田充正</a></td>
  <td class="Weight">470(-2)</td>
</tr>
<tr class="HorseList">
  <td class="Waku3 Txt_C"><span>3</span></td><td class="Umaban3 Txt_C">3</td>
  <td><span class="HorseName"><a href="https://db.netkeiba.com/horse/2019104476/">スターズオンアース</a></span></td>
  <td class="Barei Txt_C">牝4</td><td class="Txt_C">56.0</td>
  <td class="Trainer"><span>美浦</span><a href="https://db.netkeiba.com/trainer/01075/">高柳瑞樹</a></td>
  <td class="Weight">480(0)</td>
</tr>
</tbody></table></body></html>`

const oddsPage = `<html><body><table><tbody>
<tr><td class="num">1</td><td><div class="odds"><span class="num">1.3</span></div></td></tr>
<tr><td class="num">2</td><td><div class="odds"><span class="num">2.8</span></div></td></tr>
</tbody></table></body></html>`

const payoutPage = `<html><body><table class="Payout_Detail_Table"><tbody>
<tr class="Tansho"><th>単勝</th><td class="Result"><div><span>1</span></div></td><td class="Payout"><span>130円</span></td></tr>
</tbody></table></body></html>`

const selectionPage = `<div class="link_list multi div3 center mid narrow"><a href="/m/tokyo">5回東京8日</a></div>`

const meetingPage = `<div id="syutsuba"><div class="cell date">2023年11月26日（日曜） 5回東京8日</div></div>
<ul class="nav race-num"><li><a href="/JRADB/accessD.html?CNAME=tk11"><img alt="11レース"></a></li></ul>`

const roundPage = `<div id="syutsuba"><div class="cell time"><strong>15時40分</strong></div></div>` + oddsPage

const goingPage = `<span class="date">2023年11月26日（日曜）</span><div class="cell txt">天候：晴</div>
<div class="nav tab"><a href="/keiba/baba/tokyo.html">東京競馬場</a></div>`

const tokyoTab = `<div class="data_list_unit"><h4>芝</h4><p>良</p></div><div class="data_list_unit"><h4>ダート</h4><p>稍重</p></div>`

func testPages() fetch.Pages {
	return fetch.Pages{
		shutubaURL: shutubaPage,
		resultURL:  payoutPage,
		oddsURL:    roundPage,

		"https://www.jra.go.jp/select":                selectionPage,
		"https://www.jra.go.jp/m/tokyo":               meetingPage,
		"https://www.jra.go.jp/keiba/baba/":           goingPage,
		"https://www.jra.go.jp/keiba/baba/tokyo.html": tokyoTab,
	}
}

// execute runs the CLI against testPages and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{out: &out, errOut: io.Discard, fixed: testPages()}
	cmd := newRootCmd(a)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestRaceIDCommand(t *testing.T) {
	out, err := execute(t, "race-id", "2023", "tokyo", "5", "8", "11", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "raceId,netkeibaURL,resultURL", lines[0])
	require.Equal(t, "202305050811,"+shutubaURL+","+resultURL, lines[1])
}

func TestRaceIDCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"unknown location", []string{"race-id", "2023", "大井", "1", "1", "1"}, racing.ErrUnknownLocation},
		{"non-numeric round", []string{"race-id", "2023", "東京", "five", "8", "11"}, racing.ErrMalformedLabel},
		{"zero race", []string{"race-id", "2023", "東京", "5", "8", "0"}, racing.ErrMalformedLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "race-id", "2023", "東京", "5", "8", "11", "--format", "xml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid format")
}

func TestCardCommand(t *testing.T) {
	out, err := execute(t, "card", "--netkeiba", shutubaURL, "--jra", oddsURL)
	require.NoError(t, err)

	require.Contains(t, out, "イクイノックス")
	require.Contains(t, out, "リバティアイランド")
	require.NotContains(t, out, "スターズオンアース")
	require.Contains(t, out, "1 entries had no odds and were dropped.")
	require.Contains(t, out, "Total: 2 rows")
}

func TestCardCommand_FromSchedule(t *testing.T) {
	out, err := execute(t, "card", "--race-id", "202305050811", "--schedule", "https://www.jra.go.jp/select", "--format", "csv", "--rank", "min")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], "1,1,イクイノックス,2019105219,"), lines[1])
}

func TestCardCommand_Meta(t *testing.T) {
	out, err := execute(t, "card", "--netkeiba", shutubaURL, "--jra", oddsURL, "--meta", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, "groundCondition,weather,horseCount,direction,fieldType,distance,isHindrance", lines[0])
	require.Equal(t, "良,晴,18,左,芝,2400,false", lines[1])
}

func TestCardCommand_RaceNotOnSchedule(t *testing.T) {
	_, err := execute(t, "card", "--race-id", "202305050812", "--schedule", "https://www.jra.go.jp/select")
	require.ErrorIs(t, err, racing.ErrMissingField)
}

func TestCardCommand_FlagRules(t *testing.T) {
	_, err := execute(t, "card")
	require.Error(t, err)

	_, err = execute(t, "card", "--netkeiba", shutubaURL)
	require.Error(t, err)
}

func TestGroundCommand(t *testing.T) {
	out, err := execute(t, "ground", "tokyo", "--format", "csv")
	require.NoError(t, err)
	require.Contains(t, out, "2023-11-26,東京,晴,良,稍重")
}

func TestScheduleCommand(t *testing.T) {
	out, err := execute(t, "schedule", "https://www.jra.go.jp/select", "--sort", "time")
	require.NoError(t, err)
	require.Contains(t, out, "202305050811")
	require.Contains(t, out, "Total: 1 rows")

	_, err = execute(t, "schedule", "https://www.jra.go.jp/select", "--sort", "popularity")
	require.Error(t, err)
}

func TestScheduleCommand_ICS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "races.ics")
	_, err := execute(t, "schedule", "https://www.jra.go.jp/select", "--ics", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	ics := string(data)
	require.Contains(t, ics, "X-WR-CALNAME:JRA 2023-11-26\r\n")
	require.Contains(t, ics, "UID:202305050811@race.netkeiba.com\r\n")
	require.Contains(t, ics, "DTSTART:20231126T064000Z\r\n")
	require.Equal(t, 1, strings.Count(ics, "BEGIN:VEVENT"))
}

func TestResultCommand_SaveAndMetrics(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "abt.prom")

	out, err := execute(t, "result", "--race-id", "202305050811",
		"--format", "json", "--save", "--data-dir", dir, "--metrics-file", metricsFile)
	require.NoError(t, err)
	require.Contains(t, out, `"ticketType":"Tansho"`)

	saved, err := os.ReadFile(filepath.Join(dir, "result_202305050811.json"))
	require.NoError(t, err)
	require.Contains(t, string(saved), `"payoff":130`)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	require.Contains(t, string(prom), `abt_rows_extracted_total{extractor="result"} 1`)
}

func TestLoadCommand(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "result", "--race-id", "202305050811", "--save", "--data-dir", dir)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "result_202305050811.csv"))
	require.NoError(t, err)

	out, err := execute(t, "load", "result_202305050811", "--data-dir", dir, "--format", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, []string{"ticketType,pattern,payoff", "Tansho,1,130"}, lines)

	_, err = execute(t, "load", "card_202305050811", "--data-dir", dir)
	require.Error(t, err)
}

func TestSaveFormat(t *testing.T) {
	dir := t.TempDir()

	// Text output, JSON file.
	_, err := execute(t, "result", "--race-id", "202305050811", "--save", "--save-format", "JSON", "--data-dir", dir)
	require.NoError(t, err)
	saved, err := os.ReadFile(filepath.Join(dir, "result_202305050811.json"))
	require.NoError(t, err)
	require.Contains(t, string(saved), `"ticketType":"Tansho"`)

	out, err := execute(t, "load", "result_202305050811", "--save-format", "json", "--data-dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Tansho")

	_, err = execute(t, "result", "--race-id", "202305050811", "--save", "--save-format", "xlsx", "--data-dir", dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid storage format")
}

func TestResultCommand_FetchError(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "abt.prom")

	_, err := execute(t, "result", "--url", "https://race.netkeiba.com/race/result.html?race_id=1", "--metrics-file", metricsFile)
	require.True(t, errors.Is(err, racing.ErrFetch), "error = %v", err)

	// Metrics are written even when the command fails.
	_, statErr := os.Stat(metricsFile)
	require.NoError(t, statErr)
}

func TestRaceIDFromURL(t *testing.T) {
	require.Equal(t, "202305050811", raceIDFromURL(shutubaURL))
	require.Equal(t, "race", raceIDFromURL("https://example.com/page"))
	require.Equal(t, "race", raceIDFromURL("%zz"))
}

func TestSortEntries(t *testing.T) {
	day := time.Date(2023, 11, 26, 0, 0, 0, 0, time.UTC)
	entries := func() []schedule.Entry {
		return []schedule.Entry{
			{Date: day, Location: "京都", Race: 1, StartHour: 10, StartMinute: 5},
			{Date: day, Location: "東京", Race: 2, StartHour: 10, StartMinute: 20},
			{Date: day, Location: "東京", Race: 1, StartHour: 9, StartMinute: 50},
			{Date: day, Location: "大井", Race: 1, StartHour: 9, StartMinute: 50},
		}
	}
	key := func(es []schedule.Entry) []string {
		out := make([]string, len(es))
		for i, e := range es {
			out[i] = e.Location + string(rune('0'+e.Race))
		}
		return out
	}

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortBySource, []string{"京都1", "東京2", "東京1", "大井1"}},
		{SortByTime, []string{"東京1", "大井1", "京都1", "東京2"}},
		{SortByLocation, []string{"東京1", "東京2", "京都1", "大井1"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			es := entries()
			sortEntries(es, tt.order)
			require.Equal(t, tt.want, key(es))
		})
	}
}
