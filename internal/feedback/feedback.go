// internal/feedback/feedback.go
//
// Feedback engine: compares a guessed player against the answer and produces
// one judgment per attribute. Pure and deterministic — identical inputs always
// yield identical output.
//
// Attributes compared (always in this order):
//   - team:        same team, or both players retired
//   - role:        exact tournament role, close within the same lane group
//   - nationality: exact match, close when residencies agree
//   - residency:   exact match, close for historically linked region pairs
//   - appearance:  exact count, close within ±2, always carries a direction hint

package feedback

import (
	"strings"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/catalog"
)

// Attribute names as they appear in feedback rows and API payloads.
const (
	AttrTeam        = "team"
	AttrRole        = "role"
	AttrNationality = "nationality"
	AttrResidency   = "residency"
	AttrAppearance  = "appearance"
)

// Direction hints for the appearance attribute.
const (
	HintMore  = "more"  // the answer has more appearances than the guess
	HintFewer = "fewer" // the answer has fewer
)

// Feedback is the judgment for one attribute of one guess.
type Feedback struct {
	Attribute string `json:"attribute"`
	Correct   bool   `json:"correct"`
	Close     bool   `json:"close"`
	Hint      string `json:"hint,omitempty"`
}

// appearanceCloseness is the maximum absolute count difference still
// reported as close.
const appearanceCloseness = 2

// closeResidencies holds historically linked region pairs. Stored in one
// direction; IsCloseResidency checks both.
var closeResidencies = map[[2]string]struct{}{
	{"korea", "china"}:   {},
	{"taiwan", "vietnam"}: {},
}

// IsCloseResidency reports whether two residencies form a linked pair.
// Comparison is case-insensitive and symmetric.
func IsCloseResidency(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" || a == b {
		return false
	}
	if _, ok := closeResidencies[[2]string{a, b}]; ok {
		return true
	}
	_, ok := closeResidencies[[2]string{b, a}]
	return ok
}

// Compare evaluates every attribute of the guess against the answer.
// Each attribute is judged independently.
func Compare(guess, answer catalog.Player) []Feedback {
	return []Feedback{
		compareTeam(guess, answer),
		compareRole(guess, answer),
		compareNationality(guess, answer),
		compareResidency(guess, answer),
		compareAppearance(guess, answer),
	}
}

// compareTeam: two retired players count as teammates ("no current team" is a
// team of its own). Close means both are on different teams in the same
// current region.
func compareTeam(guess, answer catalog.Player) Feedback {
	fb := Feedback{Attribute: AttrTeam}
	if guess.Team == answer.Team || (guess.IsRetired() && answer.IsRetired()) {
		fb.Correct = true
		return fb
	}
	if guess.CurrentTeamRegion != nil && answer.CurrentTeamRegion != nil &&
		*guess.CurrentTeamRegion == *answer.CurrentTeamRegion {
		fb.Close = true
	}
	return fb
}

func compareRole(guess, answer catalog.Player) Feedback {
	fb := Feedback{Attribute: AttrRole}
	if guess.TournamentRole == answer.TournamentRole {
		fb.Correct = true
		return fb
	}
	gg := catalog.RoleGroup(guess.TournamentRole)
	ag := catalog.RoleGroup(answer.TournamentRole)
	if gg != "" && gg == ag {
		fb.Close = true
	}
	return fb
}

// compareNationality: an exact match is never also reported close, even
// though the residencies necessarily agree.
func compareNationality(guess, answer catalog.Player) Feedback {
	fb := Feedback{Attribute: AttrNationality}
	if guess.Nationality == answer.Nationality {
		fb.Correct = true
		return fb
	}
	if strings.EqualFold(strings.TrimSpace(guess.Residency), strings.TrimSpace(answer.Residency)) &&
		strings.TrimSpace(guess.Residency) != "" {
		fb.Close = true
	}
	return fb
}

func compareResidency(guess, answer catalog.Player) Feedback {
	fb := Feedback{Attribute: AttrResidency}
	if guess.Residency == answer.Residency {
		fb.Correct = true
		return fb
	}
	fb.Close = IsCloseResidency(guess.Residency, answer.Residency)
	return fb
}

// compareAppearance attaches a direction hint whenever the counts differ,
// whether or not the difference is close.
func compareAppearance(guess, answer catalog.Player) Feedback {
	fb := Feedback{Attribute: AttrAppearance}
	diff := answer.Appearance - guess.Appearance
	switch {
	case diff == 0:
		fb.Correct = true
		return fb
	case diff > 0:
		fb.Hint = HintMore
	default:
		fb.Hint = HintFewer
		diff = -diff
	}
	fb.Close = diff <= appearanceCloseness
	return fb
}
