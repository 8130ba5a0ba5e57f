package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MilestoneKind is the closed set of milestone kinds the scoring rules react to.
type MilestoneKind int

const (
	KindUnknown MilestoneKind = iota
	KindUnique
	KindRune
	KindGhost
	KindZiggurat
	KindZigguratExit
	KindGodRenounce
	KindShop
)

var kindNames = map[MilestoneKind]string{
	KindUnique:       "unique",
	KindRune:         "rune",
	KindGhost:        "ghost",
	KindZiggurat:     "zig",
	KindZigguratExit: "zig.exit",
	KindGodRenounce:  "god.renounce",
	KindShop:         "shop",
}

func (k MilestoneKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseMilestoneKind maps the wire "type" field to a kind.
func ParseMilestoneKind(s string) MilestoneKind {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// Milestone is one notable event within a run.
type Milestone struct {
	Player string    `json:"name"`
	Build  string    `json:"char"`
	God    string    `json:"god,omitempty"`
	XL     int       `json:"xl"`
	Type   string    `json:"type"` // raw kind, kept for unknown kinds
	Text   string    `json:"milestone"`
	Start  time.Time `json:"start"`
	Time   time.Time `json:"time"`
}

// Kind returns the typed milestone kind.
func (m *Milestone) Kind() MilestoneKind { return ParseMilestoneKind(m.Type) }

// Normalize trims identifying fields.
func (m *Milestone) Normalize() {
	m.Player = strings.TrimSpace(m.Player)
	m.Build = strings.TrimSpace(m.Build)
	m.Type = strings.ToLower(strings.TrimSpace(m.Type))
	m.Text = strings.TrimSpace(m.Text)
}

// Validate checks required fields.
func (m *Milestone) Validate() error {
	switch {
	case m.Player == "":
		return fmt.Errorf("%w: milestone: missing player", ErrMalformedFact)
	case m.Type == "":
		return fmt.Errorf("%w: milestone %s: missing type", ErrMalformedFact, m.Player)
	case m.Time.IsZero():
		return fmt.Errorf("%w: milestone %s: missing time", ErrMalformedFact, m.Player)
	}
	switch m.Kind() {
	case KindUnique:
		if _, ok := m.Unique(); !ok {
			return fmt.Errorf("%w: milestone %s: cannot read unique from %q", ErrMalformedFact, m.Player, m.Text)
		}
	case KindRune:
		if _, ok := m.Rune(); !ok {
			return fmt.Errorf("%w: milestone %s: cannot read rune from %q", ErrMalformedFact, m.Player, m.Text)
		}
	case KindZiggurat, KindZigguratExit:
		if _, ok := m.ZigguratDepth(); !ok {
			return fmt.Errorf("%w: milestone %s: cannot read ziggurat level from %q", ErrMalformedFact, m.Player, m.Text)
		}
	}
	return nil
}

// Key returns the fact key identifying this milestone.
func (m *Milestone) Key() string {
	return factKey("milestone", strings.ToLower(m.Player), m.Type, unix(m.Start), unix(m.Time), m.Text)
}

// Banished reports whether the text describes a banishment rather than a kill.
func (m *Milestone) Banished() bool {
	return strings.HasPrefix(m.Text, "banished ")
}

var (
	uniqueRe = regexp.MustCompile(`^(?:killed|banished) (.+?)\.?$`)
	runeRe   = regexp.MustCompile(`found an? (\S+) rune`)
	zigRe    = regexp.MustCompile(`level (\d+)`)
)

// Unique extracts the unique's name from "killed Sigmund." style text.
func (m *Milestone) Unique() (string, bool) {
	sm := uniqueRe.FindStringSubmatch(m.Text)
	if sm == nil {
		return "", false
	}
	name := strings.TrimSpace(sm[1])
	name = strings.TrimPrefix(name, "the ")
	return name, name != ""
}

// Rune extracts the rune kind from "found a silver rune of Zot." style text.
func (m *Milestone) Rune() (string, bool) {
	sm := runeRe.FindStringSubmatch(m.Text)
	if sm == nil {
		return "", false
	}
	return strings.ToLower(sm[1]), true
}

// ZigguratDepth encodes the level as 2N on entry and 2N+1 on exit so that
// leaving level N ranks above reaching it.
func (m *Milestone) ZigguratDepth() (int, bool) {
	sm := zigRe.FindStringSubmatch(m.Text)
	if sm == nil {
		return 0, false
	}
	level, err := strconv.Atoi(sm[1])
	if err != nil || level <= 0 {
		return 0, false
	}
	depth := level * 2
	if m.Kind() == KindZigguratExit {
		depth++
	}
	return depth, true
}
