// internal/catalog/catalog.go
//
// Catalog types for the guessable player pool.
// Defines:
//   - Player: one immutable catalog record with the attributes the
//     feedback engine compares.
//   - Role groups and the single authoritative retirement predicate.

package catalog

import (
	"strings"
	"time"
)

// Tournament roles recognized as "active" positions. A player whose current
// role is anything else (coach, analyst, streamer, ...) is treated as no
// longer competing.
const (
	RoleTop     = "Top"
	RoleJungle  = "Jungle"
	RoleMid     = "Mid"
	RoleBot     = "Bot"
	RoleSupport = "Support"
)

// roleGroup buckets the five positions into carry and support lanes for
// "close" role feedback. The two groups are exhaustive over active roles and
// do not overlap.
var roleGroup = map[string]string{
	RoleTop:     "carry",
	RoleMid:     "carry",
	RoleBot:     "carry",
	RoleJungle:  "support",
	RoleSupport: "support",
}

// RoleGroup returns the lane group for a tournament role, or "" when the
// role is not an active position.
func RoleGroup(role string) string {
	return roleGroup[role]
}

// activeRoles is the set used by the retirement predicate.
var activeRoles = map[string]struct{}{
	RoleTop:     {},
	RoleJungle:  {},
	RoleMid:     {},
	RoleBot:     {},
	RoleSupport: {},
}

// Player is a single catalog entry. Records are read-only at runtime; the
// table is seeded once from the embedded catalog.
type Player struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`     // unique catalog key
	MainName          string     `json:"mainName"` // display name
	AllNames          []string   `json:"allNames"` // alternate spellings/romanizations
	Nationality       string     `json:"nationality"`
	Residency         string     `json:"residency"`
	Birthdate         *time.Time `json:"birthdate,omitempty"`
	TournamentRole    string     `json:"tournamentRole"`
	Team              string     `json:"team"` // team at the recorded tournament
	Appearance        int        `json:"appearance"`
	CurrentRole       string     `json:"currentRole"`
	RetiredFlag       bool       `json:"isRetired"`
	CurrentTeam       *string    `json:"currentTeam,omitempty"`
	CurrentTeamRegion *string    `json:"currentTeamRegion,omitempty"`
}

// IsRetired is the authoritative retirement predicate. The stored flag alone
// is not trusted: a player with no current team, or whose current role is not
// an active position, counts as retired everywhere retirement matters.
func (p Player) IsRetired() bool {
	if p.RetiredFlag {
		return true
	}
	if p.CurrentTeam == nil || strings.TrimSpace(*p.CurrentTeam) == "" {
		return true
	}
	if _, ok := activeRoles[p.CurrentRole]; !ok {
		return true
	}
	return false
}

// MatchesName reports whether s equals the player's canonical, display, or
// any alternate name, compared case-insensitively.
func (p Player) MatchesName(s string) bool {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, p.Name) || strings.EqualFold(s, p.MainName) {
		return true
	}
	for _, alt := range p.AllNames {
		if strings.EqualFold(s, alt) {
			return true
		}
	}
	return false
}
