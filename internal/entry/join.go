package entry

// Row is an entry with its win odds.
type Row struct {
	Entry
	Odds       *float64
	Popularity *int
}

// Joined is the result of Join.
type Joined struct {
	Rows []Row
	// Dropped counts entries that had no odds row.
	Dropped int
}

// Join matches entries with odds on horse number. Entries without a
// matching odds row are dropped; order follows entries.
func Join(entries []Entry, odds []Odds) Joined {
	byNumber := make(map[int]Odds, len(odds))
	for _, o := range odds {
		if o.HorseNumber == nil {
			continue
		}
		if _, dup := byNumber[*o.HorseNumber]; !dup {
			byNumber[*o.HorseNumber] = o
		}
	}

	j := Joined{Rows: make([]Row, 0, len(entries))}
	for _, e := range entries {
		o, ok := byNumber[e.HorseNumber]
		if !ok {
			j.Dropped++
			continue
		}
		j.Rows = append(j.Rows, Row{Entry: e, Odds: o.Odds, Popularity: o.Popularity})
	}
	return j
}
