// Package result extracts the payout table of a netkeiba race result page.
//
// Each row of the payout table is tagged with its ticket category as the
// row's first class ("Tansho", "Umaren", ...). A Registry maps categories
// to row handlers; a category without a handler fails the extraction
// rather than being silently skipped.
package result

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xlatombet/abt/internal/document"
	"github.com/xlatombet/abt/internal/fetch"
	"github.com/xlatombet/abt/internal/racing"
)

// Ticket categories as printed in the row class.
const (
	Tansho  = "Tansho"  // win
	Fukusho = "Fukusho" // place
	Wakuren = "Wakuren" // bracket quinella
	Umaren  = "Umaren"  // quinella
	Wide    = "Wide"    // quinella place
	Umatan  = "Umatan"  // exacta
	Fuku3   = "Fuku3"   // trio
	Tan3    = "Tan3"    // trifecta
)

// Payout is one ticket category of a race. Combinations[i] paid Payoffs[i]
// yen per 100 yen ticket.
type Payout struct {
	TicketType   string
	Combinations [][]string
	Payoffs      []int
}

// Handler parses one payout row.
type Handler func(row document.Node) (Payout, error)

// Registry maps row categories to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// DefaultRegistry handles every JRA ticket category.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range []string{Tansho, Fukusho} {
		r.mustRegister(c, SingleHandler(c))
	}
	for _, c := range []string{Wakuren, Umaren, Wide, Umatan, Fuku3, Tan3} {
		r.mustRegister(c, GroupHandler(c))
	}
	return r
}

// Register adds a handler for category.
func (r *Registry) Register(category string, h Handler) error {
	if category == "" {
		return fmt.Errorf("registering handler: empty category")
	}
	if h == nil {
		return fmt.Errorf("registering handler for %s: nil handler", category)
	}
	if _, ok := r.handlers[category]; ok {
		return fmt.Errorf("%w: %s", racing.ErrDuplicateCategory, category)
	}
	r.handlers[category] = h
	return nil
}

func (r *Registry) mustRegister(category string, h Handler) {
	if err := r.Register(category, h); err != nil {
		panic(err)
	}
}

// Categories lists the registered categories.
func (r *Registry) Categories() []string {
	out := make([]string, 0, len(r.handlers))
	for c := range r.handlers {
		out = append(out, c)
	}
	return out
}

// Parse reads every row of the payout tables in page order. Rows without a
// class are skipped.
func (r *Registry) Parse(doc document.Node) ([]Payout, error) {
	rows := doc.Find("table.Payout_Detail_Table tr")
	if len(rows) == 0 {
		return nil, racing.Missing("payout table")
	}

	payouts := make([]Payout, 0, len(rows))
	for _, row := range rows {
		classes := row.Classes()
		if len(classes) == 0 {
			continue
		}
		category := classes[0]
		h, ok := r.handlers[category]
		if !ok {
			return nil, fmt.Errorf("%w: %s", racing.ErrUnknownCategory, category)
		}
		p, err := h(row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", category, err)
		}
		if len(p.Combinations) != len(p.Payoffs) {
			return nil, fmt.Errorf("%s: %w: %d combinations, %d payoffs",
				category, racing.ErrMalformedLabel, len(p.Combinations), len(p.Payoffs))
		}
		payouts = append(payouts, p)
	}
	return payouts, nil
}

// SingleHandler reads rows where every span of td.Result is one horse.
func SingleHandler(category string) Handler {
	return func(row document.Node) (Payout, error) {
		cell, ok := row.First("td.Result")
		if !ok {
			return Payout{}, racing.Missing("result cell")
		}
		p := Payout{TicketType: category}
		for _, span := range cell.Find("span") {
			if t := span.Text(); t != "" {
				p.Combinations = append(p.Combinations, []string{t})
			}
		}
		var err error
		p.Payoffs, err = payoffs(row)
		return p, err
	}
}

// GroupHandler reads rows where each ul of td.Result is one combination.
func GroupHandler(category string) Handler {
	return func(row document.Node) (Payout, error) {
		cell, ok := row.First("td.Result")
		if !ok {
			return Payout{}, racing.Missing("result cell")
		}
		p := Payout{TicketType: category}
		for _, ul := range cell.Find("ul") {
			var combo []string
			for _, span := range ul.Find("span") {
				if t := span.Text(); t != "" {
					combo = append(combo, t)
				}
			}
			if len(combo) > 0 {
				p.Combinations = append(p.Combinations, combo)
			}
		}
		var err error
		p.Payoffs, err = payoffs(row)
		return p, err
	}
}

// payoffs reads td.Payout. One span may hold several amounts split by <br>.
func payoffs(row document.Node) ([]int, error) {
	cell, ok := row.First("td.Payout")
	if !ok {
		return nil, racing.Missing("payout cell")
	}
	var out []int
	for _, span := range cell.Find("span") {
		for _, piece := range span.Contents() {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			n, err := yen(piece)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
	}
	return out, nil
}

func yen(s string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, racing.Malformed("payoff", s)
	}
	return strconv.Atoi(digits)
}

// Extractor implements racing.Extractor for a result page.
type Extractor struct {
	URL      string
	Fetcher  fetch.Fetcher
	Registry *Registry

	payouts []Payout
	ready   bool
}

// New creates an Extractor using the default registry.
func New(f fetch.Fetcher, url string) *Extractor {
	return &Extractor{URL: url, Fetcher: f, Registry: DefaultRegistry()}
}

// Init fetches and parses the result page.
func (e *Extractor) Init(ctx context.Context) error {
	doc, err := e.Fetcher.Fetch(ctx, e.URL)
	if err != nil {
		return err
	}
	payouts, err := e.Registry.Parse(doc)
	if err != nil {
		return fmt.Errorf("payouts %s: %w", e.URL, err)
	}
	e.payouts = payouts
	e.ready = true
	return nil
}

// Payouts returns the parsed categories in page order.
func (e *Extractor) Payouts() []Payout {
	return e.payouts
}

// Data returns one row per paid combination.
func (e *Extractor) Data() dataframe.DataFrame {
	if !e.ready {
		return racing.Empty()
	}
	return Table(e.payouts)
}

// Table flattens payouts; a combination renders as "7-3-12".
func Table(payouts []Payout) dataframe.DataFrame {
	var types, patterns []string
	var amounts []int
	for _, p := range payouts {
		for i, combo := range p.Combinations {
			types = append(types, p.TicketType)
			patterns = append(patterns, strings.Join(combo, "-"))
			amounts = append(amounts, p.Payoffs[i])
		}
	}
	return dataframe.New(
		series.New(types, series.String, "ticketType"),
		series.New(patterns, series.String, "pattern"),
		series.New(amounts, series.Int, "payoff"),
	)
}
