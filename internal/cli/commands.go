package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/xlatombet/abt/internal/calendar"
	"github.com/xlatombet/abt/internal/entry"
	"github.com/xlatombet/abt/internal/ground"
	"github.com/xlatombet/abt/internal/logger"
	"github.com/xlatombet/abt/internal/racing"
	"github.com/xlatombet/abt/internal/result"
	"github.com/xlatombet/abt/internal/schedule"
	"github.com/xlatombet/abt/internal/storage"
)

func newScheduleCmd(a *app) *cobra.Command {
	var (
		sortFlag string
		icsFile  string
	)
	cmd := &cobra.Command{
		Use:   "schedule <meeting-selection-url>",
		Short: "List every race of the current JRA meetings",
		Long: `Fetches the JRA meeting-selection page, each meeting page and each race
page, and prints one row per race with its start time and netkeiba URLs.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&sortFlag, "sort", string(SortBySource), "Sort order: source, time or location")
	cmd.Flags().StringVar(&icsFile, "ics", "", "Also write the races to this iCalendar file")

	cmd.RunE = a.run("schedule", func(ctx context.Context, args []string) (*OutputResult, error) {
		order, err := ParseSortOrder(sortFlag)
		if err != nil {
			return nil, err
		}
		entries, err := a.schedule(ctx, args[0])
		if err != nil {
			return nil, err
		}
		sortEntries(entries, order)

		name := "schedule"
		calName := "JRA"
		if len(entries) > 0 {
			date := entries[0].Date.Format(racing.DateLayout)
			name += "_" + date
			calName += " " + date
		}
		if icsFile != "" {
			ics := calendar.GenerateScheduleICS(entries, calName, time.Now())
			if ics == "" {
				a.log.Warn("no races to write to calendar", logger.Fields{"path": icsFile})
			} else if err := os.WriteFile(icsFile, []byte(ics), 0o644); err != nil {
				return nil, fmt.Errorf("writing calendar: %w", err)
			}
		}
		return &OutputResult{
			Name:  name,
			Title: "Schedule",
			Table: schedule.Table(entries),
		}, nil
	})
	return cmd
}

func (a *app) schedule(ctx context.Context, selectionURL string) ([]schedule.Entry, error) {
	e := schedule.New(a.fetcher, selectionURL)
	e.Base = a.cfg.JRABase
	if err := e.Init(ctx); err != nil {
		return nil, fmt.Errorf("extracting schedule: %w", err)
	}
	return e.Entries(), nil
}

func newGroundCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ground <location>",
		Short: "Show weather and going at a racecourse",
		Long: `Prints today's weather and turf/dirt going for a racecourse, given by
Japanese name (東京) or romaji (tokyo).`,
		Args: cobra.ExactArgs(1),
	}

	cmd.RunE = a.run("ground", func(ctx context.Context, args []string) (*OutputResult, error) {
		loc, err := racing.LookupLocation(args[0])
		if err != nil {
			return nil, err
		}
		e := ground.New(a.fetcher, loc.Name)
		e.URL = a.cfg.GroundURL
		if err := e.Init(ctx); err != nil {
			return nil, fmt.Errorf("extracting going: %w", err)
		}
		return &OutputResult{
			Name:  fmt.Sprintf("ground_%s_%s", loc.Romaji, e.Condition().Date.Format(racing.DateLayout)),
			Title: "Going at " + loc.Name,
			Table: e.Data(),
		}, nil
	})
	return cmd
}

func newCardCmd(a *app) *cobra.Command {
	var (
		netkeibaURL string
		jraURL      string
		raceID      string
		scheduleURL string
		rankFlag    string
		meta        bool
	)
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Show a race card with win odds",
		Long: `Joins the netkeiba entry list with the JRA win odds. Pass both pages with
--netkeiba and --jra, or a race id with --race-id and the meeting-selection
page with --schedule to locate the JRA page. Canceled horses are omitted.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&netkeibaURL, "netkeiba", "", "netkeiba entry page URL")
	cmd.Flags().StringVar(&jraURL, "jra", "", "JRA race card (odds) page URL")
	cmd.Flags().StringVar(&raceID, "race-id", "", "netkeiba race id, e.g. 202305050811")
	cmd.Flags().StringVar(&scheduleURL, "schedule", "", "JRA meeting-selection page used with --race-id")
	cmd.Flags().StringVar(&rankFlag, "rank", "", "Popularity ranking: dense, min, ordinal or average (env: ABT_RANK)")
	cmd.Flags().BoolVar(&meta, "meta", false, "Print the race conditions instead of the card")
	cmd.MarkFlagsRequiredTogether("netkeiba", "jra")
	cmd.MarkFlagsRequiredTogether("race-id", "schedule")
	cmd.MarkFlagsMutuallyExclusive("netkeiba", "race-id")
	cmd.MarkFlagsOneRequired("netkeiba", "race-id")

	cmd.RunE = a.run("card", func(ctx context.Context, _ []string) (*OutputResult, error) {
		rank := a.cfg.Rank
		if rankFlag != "" {
			var err error
			if rank, err = entry.ParseRankMethod(rankFlag); err != nil {
				return nil, err
			}
		}

		id := raceID
		if id != "" {
			entries, err := a.schedule(ctx, scheduleURL)
			if err != nil {
				return nil, err
			}
			found, err := findRace(entries, id)
			if err != nil {
				return nil, err
			}
			netkeibaURL = a.cfg.RaceURL(schedule.ModeShutuba, id)
			jraURL = found.URL
		} else {
			id = raceIDFromURL(netkeibaURL)
		}

		card := entry.NewCard(a.fetcher, netkeibaURL, jraURL)
		card.RankMethod = rank
		if err := card.Init(ctx); err != nil {
			return nil, fmt.Errorf("extracting race card: %w", err)
		}

		if meta {
			m, err := card.Meta()
			if err != nil {
				return nil, fmt.Errorf("extracting race conditions: %w", err)
			}
			return &OutputResult{
				Name:  "meta_" + id,
				Title: "Race " + id,
				Table: entry.MetaTable(m),
			}, nil
		}

		res := &OutputResult{
			Name:  "card_" + id,
			Title: "Race " + id,
			Table: card.Data(),
		}
		if n := card.Dropped(); n > 0 {
			a.metrics.AddJoinDropped(n)
			a.log.Warn("entries without odds dropped", logger.Fields{"race_id": id, "dropped": n})
			res.Notes = append(res.Notes, fmt.Sprintf("%d entries had no odds and were dropped.", n))
		}
		return res, nil
	})
	return cmd
}

func findRace(entries []schedule.Entry, raceID string) (schedule.Entry, error) {
	for _, e := range entries {
		if id, err := e.RaceID(); err == nil && id == raceID {
			return e, nil
		}
	}
	return schedule.Entry{}, fmt.Errorf("race %s is not on the schedule: %w", raceID, racing.ErrMissingField)
}

// raceIDFromURL returns the race_id query parameter, or "race" when absent.
func raceIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "race"
	}
	if id := u.Query().Get("race_id"); id != "" {
		return id
	}
	return "race"
}

func newResultCmd(a *app) *cobra.Command {
	var (
		raceID    string
		resultURL string
	)
	cmd := &cobra.Command{
		Use:   "result",
		Short: "Show the payouts of a finished race",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&raceID, "race-id", "", "netkeiba race id")
	cmd.Flags().StringVar(&resultURL, "url", "", "netkeiba result page URL")
	cmd.MarkFlagsMutuallyExclusive("race-id", "url")
	cmd.MarkFlagsOneRequired("race-id", "url")

	cmd.RunE = a.run("result", func(ctx context.Context, _ []string) (*OutputResult, error) {
		id := raceID
		if id != "" {
			resultURL = a.cfg.RaceURL(schedule.ModeResult, id)
		} else {
			id = raceIDFromURL(resultURL)
		}

		e := result.New(a.fetcher, resultURL)
		if err := e.Init(ctx); err != nil {
			return nil, fmt.Errorf("extracting payouts: %w", err)
		}
		return &OutputResult{
			Name:  "result_" + id,
			Title: "Payouts " + id,
			Table: e.Data(),
		}, nil
	})
	return cmd
}

func newRaceIDCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "race-id <year> <location> <round> <day> <race>",
		Short:   "Build a netkeiba race id and its page URLs",
		Example: "  abt race-id 2023 東京 5 8 11",
		Args:    cobra.ExactArgs(5),
	}

	cmd.RunE = a.run("race-id", func(_ context.Context, args []string) (*OutputResult, error) {
		nums := make([]int, 0, 4)
		for _, i := range []int{0, 2, 3, 4} {
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a number", racing.ErrMalformedLabel, args[i])
			}
			nums = append(nums, n)
		}
		loc, err := racing.LookupLocation(args[1])
		if err != nil {
			return nil, err
		}
		id, err := schedule.BuildRaceID(nums[0], loc.Name, nums[1], nums[2], nums[3])
		if err != nil {
			return nil, err
		}
		return &OutputResult{
			Name:  "race-id_" + id,
			Table: raceIDTable(id, a.cfg.RaceURL(schedule.ModeShutuba, id), a.cfg.RaceURL(schedule.ModeResult, id)),
		}, nil
	})
	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "load <name>",
		Short:   "Print a table saved with --save",
		Example: "  abt load result_202305050811\n  abt load card_202305050811 --save-format json",
		Args:    cobra.ExactArgs(1),
	}

	cmd.RunE = a.run("load", func(_ context.Context, args []string) (*OutputResult, error) {
		store, err := storage.New(a.cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		df, err := store.LoadTable(args[0], a.saveFormat)
		if err != nil {
			return nil, err
		}
		return &OutputResult{Name: args[0], Title: args[0], Table: df}, nil
	})
	return cmd
}
