// internal/match/session.go
//
// In-memory state for one paired match. Sessions are owned by the Matchmaker,
// mutated only under its lock, never persisted, and destroyed on completion
// or abandonment.

package match

import (
	"time"
)

type sessionState string

const (
	stateWaiting   sessionState = "waiting"   // between rounds; participants must signal ready
	statePlaying   sessionState = "playing"   // round active, countdown running
	stateCompleted sessionState = "completed" // terminal; scheduled for cleanup
)

type participant struct {
	client  *Client
	score   int
	ready   bool
	guesses int  // guesses used this round
	done    bool // solved it or exhausted guesses this round
}

type session struct {
	id           string
	participants []*participant
	state        sessionState
	round        int // 1-based
	totalRounds  int
	winThreshold int // majority of totalRounds
	answerID     int64
	deadline     time.Time

	// Round timer. timerGen is bumped on every start/cancel so a callback
	// that already fired observes a stale generation and becomes a no-op;
	// cancelling twice is equally harmless.
	timer    *time.Timer
	timerGen int
}

func (s *session) other(c *Client) *participant {
	for _, p := range s.participants {
		if p.client != c {
			return p
		}
	}
	return nil
}

func (s *session) byClient(c *Client) *participant {
	for _, p := range s.participants {
		if p.client == c {
			return p
		}
	}
	return nil
}

func (s *session) allReady() bool {
	for _, p := range s.participants {
		if !p.ready {
			return false
		}
	}
	return len(s.participants) > 0
}

func (s *session) allDone() bool {
	for _, p := range s.participants {
		if !p.done {
			return false
		}
	}
	return len(s.participants) > 0
}

func (s *session) scores() map[string]int {
	out := make(map[string]int, len(s.participants))
	for _, p := range s.participants {
		out[p.client.Identity] = p.score
	}
	return out
}

// cancelTimer stops any pending round timer. Safe to call when no timer is
// armed or after it has fired.
func (s *session) cancelTimer() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *session) broadcast(ev any) {
	for _, p := range s.participants {
		p.client.trySend(ev)
	}
}
