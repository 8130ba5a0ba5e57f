// Package types contains the read projections served to reporting clients.
package types

import "time"

// PlayerEntry is one row of the player ranking.
type PlayerEntry struct {
	Rank      int    `json:"rank"`
	Player    string `json:"player"`
	Score     int    `json:"score"`
	TeamScore int    `json:"team_score"`
	Captain   string `json:"captain,omitempty"`
}

// Banner is an achievement held by a player.
type Banner struct {
	Name      string `json:"name"`
	Prestige  int    `json:"prestige"`
	Temporary bool   `json:"temporary"`
}

// PlayerDetail is the full score breakdown of one player.
type PlayerDetail struct {
	Player        string   `json:"player"`
	ScoreBase     int      `json:"score_base"`
	TeamScoreBase int      `json:"team_score_base"`
	ScoreFull     int      `json:"score_full"`
	TeamScoreFull int      `json:"team_score_full"`
	Captain       string   `json:"captain,omitempty"`
	Banners       []Banner `json:"banners"`
}

// AuditLine groups the audit entries that share a source tag.
type AuditLine struct {
	Source    string `json:"source"`
	Temporary bool   `json:"temporary"`
	Points    int    `json:"points"`
	Count     int    `json:"count"`
}

// AuditTrail lists where a player's, team's or clan's points came from.
type AuditTrail struct {
	Owner string      `json:"owner"`
	Team  bool        `json:"team"`
	Lines []AuditLine `json:"lines"`
}

// Total sums the lines of the requested temporality.
func (a AuditTrail) Total(temporary bool) int {
	total := 0
	for _, l := range a.Lines {
		if l.Temporary == temporary {
			total += l.Points
		}
	}
	return total
}

// ClanEntry is one row of the clan ranking.
type ClanEntry struct {
	Rank    int    `json:"rank"`
	Name    string `json:"name"`
	Captain string `json:"captain"`
	Total   int    `json:"total"`
}

// ClanMember is a member's contribution to the clan total.
type ClanMember struct {
	Player    string `json:"player"`
	Score     int    `json:"score"`
	TeamScore int    `json:"team_score"`
}

// ClanDetail is the roster and audit trail of one clan.
type ClanDetail struct {
	Name    string       `json:"name"`
	Captain string       `json:"captain"`
	Total   int          `json:"total"`
	Members []ClanMember `json:"members"`
	Audit   []AuditLine  `json:"audit"`
}

// StreakEntry describes an active or best win streak.
type StreakEntry struct {
	Player string    `json:"player"`
	Length int       `json:"length"`
	End    time.Time `json:"end"`
	Active bool      `json:"active"`
}

// Stats summarises the ledger state.
type Stats struct {
	Players        int       `json:"players"`
	Clans          int       `json:"clans"`
	Runs           int       `json:"runs"`
	Wins           int       `json:"wins"`
	Milestones     int       `json:"milestones"`
	PermanentTotal int       `json:"permanent_points"`
	ProvisionalSum int       `json:"provisional_points"`
	LastCycleID    string    `json:"last_cycle_id,omitempty"`
	LastRecompute  time.Time `json:"last_recompute,omitempty"`
	QueueSize      int       `json:"queue_size"`
	QueueCapacity  int       `json:"queue_capacity"`
}
