package entry

import (
	"context"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xlatombet/abt/internal/document"
	"github.com/xlatombet/abt/internal/fetch"
	"github.com/xlatombet/abt/internal/racing"
)

// Card implements racing.Extractor for one race: horses from the netkeiba
// entry page, odds from the JRA race card page.
type Card struct {
	NetkeibaURL string
	JRAURL      string
	RankMethod  RankMethod
	Fetcher     fetch.Fetcher

	entryPage document.Node
	joined    Joined
	ready     bool
}

// NewCard creates a Card with dense popularity ranking.
func NewCard(f fetch.Fetcher, netkeibaURL, jraURL string) *Card {
	return &Card{NetkeibaURL: netkeibaURL, JRAURL: jraURL, RankMethod: RankDense, Fetcher: f}
}

// Init fetches both pages and joins them.
func (c *Card) Init(ctx context.Context) error {
	entryPage, err := c.Fetcher.Fetch(ctx, c.NetkeibaURL)
	if err != nil {
		return err
	}
	entries, err := ParseEntries(entryPage)
	if err != nil {
		return fmt.Errorf("entry list %s: %w", c.NetkeibaURL, err)
	}

	oddsPage, err := c.Fetcher.Fetch(ctx, c.JRAURL)
	if err != nil {
		return err
	}
	odds, err := ParseOdds(oddsPage, c.RankMethod)
	if err != nil {
		return fmt.Errorf("odds %s: %w", c.JRAURL, err)
	}

	c.entryPage = entryPage
	c.joined = Join(entries, odds)
	c.ready = true
	return nil
}

// Rows returns every joined row, canceled horses included.
func (c *Card) Rows() []Row {
	return c.joined.Rows
}

// Dropped returns how many entries had no odds row.
func (c *Card) Dropped() int {
	return c.joined.Dropped
}

// Meta parses the race conditions of the entry page.
func (c *Card) Meta() (RaceMeta, error) {
	if !c.ready {
		return RaceMeta{}, racing.Missing("entry page")
	}
	return ParseRaceMeta(c.entryPage)
}

// Data returns the race card without canceled horses.
func (c *Card) Data() dataframe.DataFrame {
	if !c.ready {
		return racing.Empty()
	}
	rows := make([]Row, 0, len(c.joined.Rows))
	for _, r := range c.joined.Rows {
		if !r.IsCanceled {
			rows = append(rows, r)
		}
	}
	return Table(rows)
}

// Table renders rows; the canceled flag is not a column.
func Table(rows []Row) dataframe.DataFrame {
	n := len(rows)
	horseNumbers := make([]int, n)
	lanes := make([]int, n)
	names := make([]string, n)
	horseIDs := make([]string, n)
	trainers := make([]string, n)
	affiliations := make([]string, n)
	trainerIDs := make([]string, n)
	weights := make([]*int, n)
	changes := make([]*int, n)
	ages := make([]*int, n)
	sexes := make([]string, n)
	loads := make([]*float64, n)
	odds := make([]*float64, n)
	popularity := make([]*int, n)

	for i, r := range rows {
		horseNumbers[i] = r.HorseNumber
		lanes[i] = r.LaneNumber
		names[i] = r.HorseName
		horseIDs[i] = r.HorseID
		trainers[i] = r.TrainerName
		affiliations[i] = r.TrainerAffiliation
		trainerIDs[i] = r.TrainerID
		weights[i] = r.Weight
		changes[i] = r.WeightChange
		ages[i] = r.Age
		sexes[i] = r.Sex
		loads[i] = r.LoadWeight
		odds[i] = r.Odds
		popularity[i] = r.Popularity
	}

	return dataframe.New(
		series.New(horseNumbers, series.Int, "horseNumber"),
		series.New(lanes, series.Int, "laneNumber"),
		series.New(names, series.String, "horseName"),
		series.New(horseIDs, series.String, "horseId"),
		series.New(trainers, series.String, "trainerName"),
		series.New(affiliations, series.String, "trainerAffiliation"),
		series.New(trainerIDs, series.String, "trainerId"),
		racing.IntColumn("weight", weights),
		racing.IntColumn("weightChange", changes),
		racing.IntColumn("age", ages),
		series.New(sexes, series.String, "sex"),
		racing.FloatColumn("loadWeight", loads),
		racing.FloatColumn("odds", odds),
		racing.IntColumn("popularity", popularity),
	)
}

// MetaTable renders a RaceMeta as a one-row table.
func MetaTable(m RaceMeta) dataframe.DataFrame {
	return dataframe.New(
		series.New([]string{m.GroundCondition}, series.String, "groundCondition"),
		series.New([]string{m.Weather}, series.String, "weather"),
		racing.IntColumn("horseCount", []*int{m.HorseCount}),
		series.New([]string{m.Direction}, series.String, "direction"),
		series.New([]string{m.FieldType}, series.String, "fieldType"),
		racing.IntColumn("distance", []*int{m.Distance}),
		series.New([]bool{m.IsHindrance}, series.Bool, "isHindrance"),
	)
}
