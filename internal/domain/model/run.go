// Package model contains the typed fact records passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Outcome classifies how a run ended.
type Outcome int

const (
	OutcomeDied Outcome = iota
	OutcomeWon
	OutcomeQuit
	OutcomeLeft
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "won"
	case OutcomeQuit:
		return "quit"
	case OutcomeLeft:
		return "left"
	default:
		return "died"
	}
}

// OutcomeFromKillerType maps the logfile ktyp field to an Outcome.
// Anything that is not a win, quit or escape is a death.
func OutcomeFromKillerType(ktyp string) Outcome {
	switch strings.ToLower(strings.TrimSpace(ktyp)) {
	case "winning":
		return OutcomeWon
	case "quitting":
		return OutcomeQuit
	case "leaving":
		return OutcomeLeft
	default:
		return OutcomeDied
	}
}

// Run is one completed game. Fields follow the logfile record.
type Run struct {
	Player     string    `json:"name"`
	Build      string    `json:"char"` // race+class abbreviation, e.g. "HuFi"
	Race       string    `json:"race,omitempty"`
	Class      string    `json:"cls,omitempty"`
	God        string    `json:"god,omitempty"`
	KillerType string    `json:"ktyp"`
	Killer     string    `json:"killer,omitempty"`
	XL         int       `json:"xl"`
	Place      string    `json:"place,omitempty"`
	Depth      int       `json:"lvl"` // absolute dungeon depth
	Score      int64     `json:"sc"`
	Turns      int64     `json:"turn"`
	Duration   int64     `json:"dur"` // real time in seconds
	Runes      int       `json:"urune"`
	Kills      int       `json:"kills"`
	MaxSkills  string    `json:"maxskills,omitempty"` // comma separated
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// Outcome reports how the run ended.
func (r *Run) Outcome() Outcome { return OutcomeFromKillerType(r.KillerType) }

// Won reports whether the run was a win.
func (r *Run) Won() bool { return r.Outcome() == OutcomeWon }

// Normalize fills derived fields from their wire forms.
func (r *Run) Normalize() {
	r.Player = strings.TrimSpace(r.Player)
	r.Build = strings.TrimSpace(r.Build)
	if r.Race == "" || r.Class == "" {
		if race, class, ok := SplitBuild(r.Build); ok {
			if r.Race == "" {
				r.Race = race
			}
			if r.Class == "" {
				r.Class = class
			}
		}
	}
}

// Validate checks that the fields every scoring rule depends on are present.
func (r *Run) Validate() error {
	switch {
	case r.Player == "":
		return fmt.Errorf("%w: run: missing player", ErrMalformedFact)
	case len(r.Build) != 4:
		return fmt.Errorf("%w: run %s: build %q is not race+class", ErrMalformedFact, r.Player, r.Build)
	case strings.TrimSpace(r.KillerType) == "":
		return fmt.Errorf("%w: run %s: missing ktyp", ErrMalformedFact, r.Player)
	case r.Start.IsZero() || r.End.IsZero():
		return fmt.Errorf("%w: run %s: missing start or end time", ErrMalformedFact, r.Player)
	case r.End.Before(r.Start):
		return fmt.Errorf("%w: run %s: ends before it starts", ErrMalformedFact, r.Player)
	case r.XL < 0 || r.Runes < 0 || r.Turns < 0 || r.Duration < 0:
		return fmt.Errorf("%w: run %s: negative counter", ErrMalformedFact, r.Player)
	}
	return nil
}

// Key returns the fact key identifying this run.
func (r *Run) Key() string {
	return factKey("run", strings.ToLower(r.Player), r.Build, unix(r.Start), unix(r.End), r.KillerType)
}

// MaxedSkills returns the skills the character finished at level 27.
func (r *Run) MaxedSkills() []string { return SplitList(r.MaxSkills) }

// KillerName returns the killer text up to the first comma,
// "Sigmund, the Scythe" -> "Sigmund".
func (r *Run) KillerName() string {
	k, _, _ := strings.Cut(r.Killer, ",")
	return strings.TrimSpace(k)
}

// GhostOwner returns the player whose ghost killed this character.
func (r *Run) GhostOwner() (string, bool) {
	name, ok := strings.CutSuffix(r.KillerName(), "'s ghost")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// SplitBuild splits "HuFi" into "Hu" and "Fi".
func SplitBuild(build string) (race, class string, ok bool) {
	if len(build) != 4 {
		return "", "", false
	}
	return build[:2], build[2:], true
}

// SplitList splits a comma separated list and drops blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
