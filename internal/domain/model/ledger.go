package model

import "time"

// Award is one audit trail entry.
type Award struct {
	Player    string
	Source    string
	Points    int
	Team      bool // credited to the team score
	Temporary bool // provisional, flushed by every recomputation pass
}

// Ranked is one row of a ranking query. Value is the sort key of the rule
// and At breaks ties in favour of whoever got there first.
type Ranked struct {
	Player string
	Value  int64
	At     time.Time
}

// WinFilter selects wins to count. Zero fields do not filter.
type WinFilter struct {
	Player   string
	Race     string
	Class    string
	MinRunes int
	Before   time.Time // strictly before this end time

	// BeforeKey also admits wins ending at Before that were recorded ahead
	// of the run with this fact key.
	BeforeKey string
}

// Clan is a team led by its captain.
type Clan struct {
	Name    string
	Captain string
}
