package feedback

import (
	"reflect"
	"testing"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/catalog"
)

func strptr(s string) *string { return &s }

// active returns a non-retired player with the given attributes.
func active(team, role, nationality, residency string, appearance int, region string) catalog.Player {
	return catalog.Player{
		Team:              team,
		TournamentRole:    role,
		Nationality:       nationality,
		Residency:         residency,
		Appearance:        appearance,
		CurrentRole:       role,
		CurrentTeam:       strptr(team),
		CurrentTeamRegion: strptr(region),
	}
}

func retired(team, role, nationality, residency string, appearance int) catalog.Player {
	return catalog.Player{
		Team:           team,
		TournamentRole: role,
		Nationality:    nationality,
		Residency:      residency,
		Appearance:     appearance,
		CurrentRole:    role,
		RetiredFlag:    true,
	}
}

func byAttr(t *testing.T, fbs []Feedback, attr string) Feedback {
	t.Helper()
	for _, fb := range fbs {
		if fb.Attribute == attr {
			return fb
		}
	}
	t.Fatalf("no feedback for attribute %q", attr)
	return Feedback{}
}

func TestCompareTeam(t *testing.T) {
	answer := active("T1", catalog.RoleMid, "South Korea", "Korea", 5, "LCK")

	t.Run("same team", func(t *testing.T) {
		fb := byAttr(t, Compare(active("T1", catalog.RoleBot, "South Korea", "Korea", 3, "LCK"), answer), AttrTeam)
		if !fb.Correct || fb.Close {
			t.Errorf("same team: got correct=%v close=%v, want correct, not close", fb.Correct, fb.Close)
		}
	})

	t.Run("both retired counts as correct", func(t *testing.T) {
		g := retired("Fnatic", catalog.RoleBot, "Sweden", "Europe", 6)
		a := retired("DRX", catalog.RoleBot, "South Korea", "Korea", 7)
		fb := byAttr(t, Compare(g, a), AttrTeam)
		if !fb.Correct || fb.Close {
			t.Errorf("both retired: got correct=%v close=%v, want correct, not close", fb.Correct, fb.Close)
		}
	})

	t.Run("same region is close", func(t *testing.T) {
		g := active("Gen.G", catalog.RoleMid, "South Korea", "Korea", 5, "LCK")
		fb := byAttr(t, Compare(g, answer), AttrTeam)
		if fb.Correct || !fb.Close {
			t.Errorf("same region: got correct=%v close=%v, want close", fb.Correct, fb.Close)
		}
	})

	t.Run("different region is neither", func(t *testing.T) {
		g := active("G2 Esports", catalog.RoleMid, "Denmark", "Europe", 7, "LEC")
		fb := byAttr(t, Compare(g, answer), AttrTeam)
		if fb.Correct || fb.Close {
			t.Errorf("different region: got correct=%v close=%v", fb.Correct, fb.Close)
		}
	})
}

func TestCompareRole(t *testing.T) {
	answer := active("T1", catalog.RoleMid, "South Korea", "Korea", 5, "LCK")

	tests := []struct {
		name    string
		role    string
		correct bool
		close   bool
	}{
		{"exact role", catalog.RoleMid, true, false},
		{"same carry group", catalog.RoleTop, false, true},
		{"other group", catalog.RoleSupport, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := active("G2 Esports", tt.role, "Denmark", "Europe", 4, "LEC")
			fb := byAttr(t, Compare(g, answer), AttrRole)
			if fb.Correct != tt.correct || fb.Close != tt.close {
				t.Errorf("role %s: got correct=%v close=%v, want correct=%v close=%v",
					tt.role, fb.Correct, fb.Close, tt.correct, tt.close)
			}
		})
	}
}

func TestCompareNationality(t *testing.T) {
	answer := active("T1", catalog.RoleMid, "South Korea", "Korea", 5, "LCK")

	t.Run("exact is never also close", func(t *testing.T) {
		g := active("Gen.G", catalog.RoleMid, "South Korea", "Korea", 5, "LCK")
		fb := byAttr(t, Compare(g, answer), AttrNationality)
		if !fb.Correct || fb.Close {
			t.Errorf("got correct=%v close=%v, want correct only", fb.Correct, fb.Close)
		}
	})

	t.Run("shared residency is close", func(t *testing.T) {
		// Korean import playing under Chinese residency vs Chinese national.
		g := active("Weibo Gaming", catalog.RoleTop, "South Korea", "China", 5, "LPL")
		a := active("Bilibili Gaming", catalog.RoleMid, "China", "China", 4, "LPL")
		fb := byAttr(t, Compare(g, a), AttrNationality)
		if fb.Correct || !fb.Close {
			t.Errorf("got correct=%v close=%v, want close", fb.Correct, fb.Close)
		}
	})

	t.Run("different residency is neither", func(t *testing.T) {
		g := active("G2 Esports", catalog.RoleMid, "Denmark", "Europe", 7, "LEC")
		fb := byAttr(t, Compare(g, answer), AttrNationality)
		if fb.Correct || fb.Close {
			t.Errorf("got correct=%v close=%v", fb.Correct, fb.Close)
		}
	})
}

func TestCompareResidency(t *testing.T) {
	answer := active("T1", catalog.RoleMid, "South Korea", "Korea", 5, "LCK")

	t.Run("linked regions are close", func(t *testing.T) {
		g := active("Bilibili Gaming", catalog.RoleMid, "China", "China", 4, "LPL")
		fb := byAttr(t, Compare(g, answer), AttrResidency)
		if fb.Correct || !fb.Close {
			t.Errorf("got correct=%v close=%v, want close", fb.Correct, fb.Close)
		}
	})

	t.Run("unlinked regions are neither", func(t *testing.T) {
		g := active("Cloud9", catalog.RoleJungle, "United States", "North America", 4, "LCS")
		fb := byAttr(t, Compare(g, answer), AttrResidency)
		if fb.Correct || fb.Close {
			t.Errorf("got correct=%v close=%v", fb.Correct, fb.Close)
		}
	})
}

func TestResidencyAdjacencyIsSymmetric(t *testing.T) {
	regions := []string{"Korea", "China", "Taiwan", "Vietnam", "Europe", "North America", "Brazil"}
	for _, x := range regions {
		for _, y := range regions {
			if IsCloseResidency(x, y) != IsCloseResidency(y, x) {
				t.Errorf("adjacency not symmetric for (%s, %s)", x, y)
			}
		}
	}
	if IsCloseResidency("Korea", "Korea") {
		t.Error("a region must not be close to itself")
	}
	if !IsCloseResidency("korea", "CHINA") {
		t.Error("adjacency lookup should be case-insensitive")
	}
}

func TestCompareAppearance(t *testing.T) {
	tests := []struct {
		name    string
		guess   int
		answer  int
		correct bool
		close   bool
		hint    string
	}{
		{"equal", 5, 5, true, false, ""},
		{"two fewer than answer", 3, 5, false, true, HintMore},
		{"far below answer", 10, 5, false, false, HintFewer},
		{"one above answer", 6, 5, false, true, HintFewer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := active("A", catalog.RoleMid, "X", "Europe", tt.guess, "LEC")
			a := active("B", catalog.RoleMid, "X", "Europe", tt.answer, "LEC")
			fb := byAttr(t, Compare(g, a), AttrAppearance)
			if fb.Correct != tt.correct || fb.Close != tt.close || fb.Hint != tt.hint {
				t.Errorf("got correct=%v close=%v hint=%q, want correct=%v close=%v hint=%q",
					fb.Correct, fb.Close, fb.Hint, tt.correct, tt.close, tt.hint)
			}
		})
	}
}

func TestCompareIsDeterministic(t *testing.T) {
	g := active("Gen.G", catalog.RoleBot, "South Korea", "Korea", 6, "LPL")
	a := active("T1", catalog.RoleMid, "South Korea", "Korea", 8, "LCK")
	first := Compare(g, a)
	for i := 0; i < 10; i++ {
		if got := Compare(g, a); !reflect.DeepEqual(got, first) {
			t.Fatalf("Compare not deterministic: run %d differs", i)
		}
	}
	if len(first) != 5 {
		t.Fatalf("Compare returned %d attributes, want 5", len(first))
	}
}
