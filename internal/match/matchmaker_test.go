package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/answer"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/catalog"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/storage"
)

func strptr(s string) *string { return &s }

func testPlayer(name, team string) catalog.Player {
	return catalog.Player{
		Name:           name,
		MainName:       name,
		Team:           team,
		TournamentRole: catalog.RoleMid,
		Appearance:     3,
		CurrentRole:    catalog.RoleMid,
		CurrentTeam:    strptr(team),
	}
}

// newTestMatchmaker seeds three players and pins the fixed clock's date to
// answer id 1 so round outcomes are deterministic.
func newTestMatchmaker(t *testing.T, cfg Config) *Matchmaker {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemory()
	err := store.SeedPlayers(ctx, []catalog.Player{
		testPlayer("Faker", "T1"),
		testPlayer("Chovy", "Gen.G"),
		testPlayer("Knight", "Bilibili Gaming"),
	})
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	if _, err := store.CreateDailyAnswer(ctx, answer.DateKey(fixed), 1); err != nil {
		t.Fatal(err)
	}
	mm := New(cfg, store, answer.New(store))
	mm.now = func() time.Time { return fixed }
	return mm
}

// drain empties the client's buffered event channel. Matchmaker calls
// broadcast synchronously, so by the time a call returns its events are
// already queued.
func drain(c *Client) []any {
	var out []any
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func startMatch(t *testing.T, mm *Matchmaker, a, b *Client) {
	t.Helper()
	ctx := context.Background()
	if err := mm.JoinQueue(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := mm.JoinQueue(ctx, b); err != nil {
		t.Fatal(err)
	}
	mm.Ready(ctx, a)
	mm.Ready(ctx, b)
}

func TestJoinPairsTwoClients(t *testing.T) {
	mm := newTestMatchmaker(t, Config{})
	ctx := context.Background()
	a := NewClient("anon:a", "Alice")
	b := NewClient("user:b", "Bob")

	if err := mm.JoinQueue(ctx, a); err != nil {
		t.Fatal(err)
	}
	if mm.QueueLen() != 1 || mm.SessionCount() != 0 {
		t.Fatalf("after one join: queue=%d sessions=%d", mm.QueueLen(), mm.SessionCount())
	}
	if evs := drain(a); len(evs) != 1 {
		t.Fatalf("first join should only see queued, got %v", evs)
	}

	if err := mm.JoinQueue(ctx, b); err != nil {
		t.Fatal(err)
	}
	if mm.QueueLen() != 0 || mm.SessionCount() != 1 {
		t.Fatalf("after pairing: queue=%d sessions=%d", mm.QueueLen(), mm.SessionCount())
	}

	var found *MatchFoundEvent
	for _, ev := range drain(a) {
		if e, ok := ev.(MatchFoundEvent); ok {
			found = &e
		}
	}
	if found == nil {
		t.Fatal("first client never got match_found")
	}
	if found.Opponent != "Bob" || found.BestOf != 3 {
		t.Errorf("match_found = %+v", found)
	}

	found = nil
	for _, ev := range drain(b) {
		if e, ok := ev.(MatchFoundEvent); ok {
			found = &e
		}
	}
	if found == nil {
		t.Fatal("second client never got match_found")
	}
	if found.Opponent != "Alice" {
		t.Errorf("opponent = %q, want Alice", found.Opponent)
	}
}

func TestDuplicateJoinRejected(t *testing.T) {
	mm := newTestMatchmaker(t, Config{})
	ctx := context.Background()
	a := NewClient("anon:a", "Alice")

	if err := mm.JoinQueue(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := mm.JoinQueue(ctx, NewClient("anon:a", "Alice again")); !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("got %v, want ErrAlreadyQueued", err)
	}

	// Once matched, the identity is still occupied.
	b := NewClient("user:b", "Bob")
	if err := mm.JoinQueue(ctx, b); err != nil {
		t.Fatal(err)
	}
	if err := mm.JoinQueue(ctx, NewClient("user:b", "Bob again")); !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("in-session rejoin: got %v, want ErrAlreadyQueued", err)
	}
}

func TestLeaveQueue(t *testing.T) {
	mm := newTestMatchmaker(t, Config{})
	a := NewClient("anon:a", "Alice")
	if err := mm.JoinQueue(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	mm.LeaveQueue(a)
	if mm.QueueLen() != 0 {
		t.Fatalf("queue length = %d after leave", mm.QueueLen())
	}
	// The identity is free to join again.
	if err := mm.JoinQueue(context.Background(), NewClient("anon:a", "Alice")); err != nil {
		t.Fatal(err)
	}
}

func TestBestOfThreeEndsAfterTwoWins(t *testing.T) {
	mm := newTestMatchmaker(t, Config{RoundDuration: time.Hour})
	ctx := context.Background()
	a := NewClient("anon:a", "Alice")
	b := NewClient("user:b", "Bob")
	startMatch(t, mm, a, b)

	// Round 1: Alice solves it.
	mm.SubmitGuess(ctx, a, 1)

	var re *RoundEndEvent
	for _, ev := range drain(b) {
		if e, ok := ev.(RoundEndEvent); ok {
			re = &e
		}
	}
	if re == nil {
		t.Fatal("no round_end after winning guess")
	}
	if re.Winner != "anon:a" || re.Round != 1 {
		t.Errorf("round_end = %+v", re)
	}
	if re.Answer == nil || re.Answer.ID != 1 {
		t.Errorf("round_end should reveal the answer, got %+v", re.Answer)
	}
	if re.Scores["anon:a"] != 1 || re.Scores["user:b"] != 0 {
		t.Errorf("scores = %v", re.Scores)
	}

	// Round 2: Alice solves again, which clinches best-of-3.
	mm.Ready(ctx, a)
	mm.Ready(ctx, b)
	drain(a)
	drain(b)
	mm.SubmitGuess(ctx, a, 1)

	var me *MatchEndEvent
	for _, ev := range drain(b) {
		if e, ok := ev.(MatchEndEvent); ok {
			me = &e
		}
	}
	if me == nil {
		t.Fatal("no match_end after second win")
	}
	if me.Winner != "anon:a" || me.Scores["anon:a"] != 2 {
		t.Errorf("match_end = %+v", me)
	}
}

func TestRequeueAfterMatchCompletes(t *testing.T) {
	// CleanupDelay is long on purpose: the completed session must not block a
	// rematch while it lingers for late event delivery.
	mm := newTestMatchmaker(t, Config{RoundDuration: time.Hour, CleanupDelay: time.Hour})
	ctx := context.Background()
	a := NewClient("anon:a", "Alice")
	b := NewClient("user:b", "Bob")
	startMatch(t, mm, a, b)

	// Alice takes rounds 1 and 2, clinching best-of-3.
	mm.SubmitGuess(ctx, a, 1)
	mm.Ready(ctx, a)
	mm.Ready(ctx, b)
	mm.SubmitGuess(ctx, a, 1)

	a2 := NewClient("anon:a", "Alice")
	b2 := NewClient("user:b", "Bob")
	if err := mm.JoinQueue(ctx, a2); err != nil {
		t.Fatalf("rematch join: %v", err)
	}
	if err := mm.JoinQueue(ctx, b2); err != nil {
		t.Fatalf("rematch join: %v", err)
	}

	var found *MatchFoundEvent
	for _, ev := range drain(a2) {
		if e, ok := ev.(MatchFoundEvent); ok {
			found = &e
		}
	}
	if found == nil {
		t.Fatal("rematch never paired")
	}

	// Disconnecting the stale clients must not detach the new session.
	mm.Disconnect(a)
	mm.Disconnect(b)
	if err := mm.JoinQueue(ctx, NewClient("anon:a", "Alice")); !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("identity should still be held by the new session, got %v", err)
	}
}

func TestExhaustedGuessesEndRoundWithoutWinner(t *testing.T) {
	mm := newTestMatchmaker(t, Config{RoundDuration: time.Hour, MaxGuesses: 1})
	ctx := context.Background()
	a := NewClient("anon:a", "Alice")
	b := NewClient("user:b", "Bob")
	startMatch(t, mm, a, b)
	drain(a)
	drain(b)

	mm.SubmitGuess(ctx, a, 2) // wrong
	mm.SubmitGuess(ctx, b, 3) // wrong, exhausts both

	var re *RoundEndEvent
	for _, ev := range drain(a) {
		if e, ok := ev.(RoundEndEvent); ok {
			re = &e
		}
	}
	if re == nil {
		t.Fatal("no round_end after both exhausted their guesses")
	}
	if re.Winner != "" {
		t.Errorf("winner = %q, want none", re.Winner)
	}

	// A third guess in the dead round is rejected.
	mm.SubmitGuess(ctx, a, 1)
	var errEv *ErrorEvent
	for _, ev := range drain(a) {
		if e, ok := ev.(ErrorEvent); ok {
			errEv = &e
		}
	}
	if errEv == nil {
		t.Fatal("guess outside an active round should produce an error event")
	}

	// The session moved on to round 2.
	mm.Ready(ctx, a)
	mm.Ready(ctx, b)
	var rs *RoundStartEvent
	for _, ev := range drain(b) {
		if e, ok := ev.(RoundStartEvent); ok {
			rs = &e
		}
	}
	if rs == nil || rs.Round != 2 {
		t.Fatalf("round_start after scoreless round = %+v, want round 2", rs)
	}
}

func TestOpponentSeesGuessWithoutThePlayer(t *testing.T) {
	mm := newTestMatchmaker(t, Config{RoundDuration: time.Hour})
	ctx := context.Background()
	a := NewClient("anon:a", "Alice")
	b := NewClient("user:b", "Bob")
	startMatch(t, mm, a, b)
	drain(a)
	drain(b)

	mm.SubmitGuess(ctx, a, 2)

	var og *OpponentGuessedEvent
	for _, ev := range drain(b) {
		if e, ok := ev.(OpponentGuessedEvent); ok {
			og = &e
		}
	}
	if og == nil {
		t.Fatal("opponent never notified of the guess")
	}
	if og.AttemptNumber != 1 || og.Correct {
		t.Errorf("opponent_guessed = %+v", og)
	}

	var fb *GuessFeedbackEvent
	for _, ev := range drain(a) {
		if e, ok := ev.(GuessFeedbackEvent); ok {
			fb = &e
		}
	}
	if fb == nil {
		t.Fatal("guesser never got feedback")
	}
	if len(fb.Feedback) != 5 {
		t.Errorf("feedback has %d attributes, want 5", len(fb.Feedback))
	}
}

func TestDisconnectAwardsRemainingParticipant(t *testing.T) {
	mm := newTestMatchmaker(t, Config{RoundDuration: time.Hour})
	a := NewClient("anon:a", "Alice")
	b := NewClient("user:b", "Bob")
	startMatch(t, mm, a, b)
	drain(a)
	drain(b)

	mm.Disconnect(a)

	var left, ended bool
	var me MatchEndEvent
	for _, ev := range drain(b) {
		switch e := ev.(type) {
		case OpponentLeftEvent:
			left = true
		case MatchEndEvent:
			ended = true
			me = e
		}
	}
	if !left {
		t.Error("remaining participant never saw opponent_left")
	}
	if !ended || me.Winner != "user:b" {
		t.Errorf("match_end = %+v, want winner user:b", me)
	}

	// The leaver's channel is closed and their identity is free again.
	if _, ok := <-a.send; ok {
		t.Error("disconnected client's channel should be closed")
	}
	if err := mm.JoinQueue(context.Background(), NewClient("anon:a", "Alice")); err != nil {
		t.Fatalf("identity should be reusable after disconnect: %v", err)
	}
}

func TestDisconnectOfBothDestroysSession(t *testing.T) {
	mm := newTestMatchmaker(t, Config{RoundDuration: time.Hour, CleanupDelay: time.Hour})
	a := NewClient("anon:a", "Alice")
	b := NewClient("user:b", "Bob")
	startMatch(t, mm, a, b)

	mm.Disconnect(a)
	if mm.SessionCount() != 1 {
		t.Fatalf("session should linger for the awarded participant, count=%d", mm.SessionCount())
	}
	mm.Disconnect(b)
	if mm.SessionCount() != 0 {
		t.Fatalf("empty session should be destroyed immediately, count=%d", mm.SessionCount())
	}
}

func TestRoundTimeoutEndsRound(t *testing.T) {
	mm := newTestMatchmaker(t, Config{RoundDuration: 20 * time.Millisecond})
	a := NewClient("anon:a", "Alice")
	b := NewClient("user:b", "Bob")
	startMatch(t, mm, a, b)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-b.send:
			if !ok {
				t.Fatal("channel closed before round_end")
			}
			if re, isEnd := ev.(RoundEndEvent); isEnd {
				if re.Winner != "" {
					t.Errorf("timed-out round has winner %q", re.Winner)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for round_end")
		}
	}
}

func TestGuessWithNoSession(t *testing.T) {
	mm := newTestMatchmaker(t, Config{})
	c := NewClient("anon:loner", "Solo")
	mm.SubmitGuess(context.Background(), c, 1)
	evs := drain(c)
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1 error", len(evs))
	}
	if _, ok := evs[0].(ErrorEvent); !ok {
		t.Fatalf("got %T, want ErrorEvent", evs[0])
	}
}
