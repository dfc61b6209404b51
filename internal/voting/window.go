// Package voting stabilizes per-frame recognition decisions of a streaming
// session into a single result by majority vote.
package voting

import "time"

const (
	DefaultSize     = 5
	DefaultMinVotes = 2
)

// Vote is one accepted per-frame decision.
type Vote struct {
	IdentityKey string    `json:"identity_key"`
	Confidence  float64   `json:"confidence"`
	Timestamp   time.Time `json:"timestamp"`
}

// Result is a stable identity elected from the window.
type Result struct {
	Vote
	Votes int `json:"votes"`
}

// Window is a bounded FIFO of the most recent votes.
// Transitions return a new Window and never modify the receiver, so a
// window can be stored, serialized and restored freely.
type Window struct {
	Size     int    `json:"size"`
	MinVotes int    `json:"min_votes"`
	Votes    []Vote `json:"votes"`
}

// NewWindow creates an empty window. Non-positive arguments use the defaults.
func NewWindow(size, minVotes int) Window {
	if size <= 0 {
		size = DefaultSize
	}
	if minVotes <= 0 {
		minVotes = DefaultMinVotes
	}
	return Window{Size: size, MinVotes: minVotes}
}

// Push appends a vote, evicting the oldest once the window is full.
func (w Window) Push(v Vote) Window {
	votes := make([]Vote, 0, w.Size)
	votes = append(votes, w.Votes...)
	votes = append(votes, v)
	if len(votes) > w.Size {
		votes = votes[len(votes)-w.Size:]
	}
	w.Votes = votes
	return w
}

// Reset empties the window.
func (w Window) Reset() Window {
	w.Votes = nil
	return w
}

// Len returns the number of votes held.
func (w Window) Len() int {
	return len(w.Votes)
}

// Stable elects the identity with the most votes. Ties go to the identity
// that appears first in the window. The elected entry is its highest-confidence
// vote. ok is false when the winner has fewer than MinVotes.
func (w Window) Stable() (Result, bool) {
	type group struct {
		count int
		best  Vote
	}
	var order []string
	groups := make(map[string]*group)
	for _, v := range w.Votes {
		g, ok := groups[v.IdentityKey]
		if !ok {
			g = &group{best: v}
			groups[v.IdentityKey] = g
			order = append(order, v.IdentityKey)
		}
		g.count++
		if v.Confidence > g.best.Confidence {
			g.best = v
		}
	}

	var winner *group
	for _, key := range order {
		if g := groups[key]; winner == nil || g.count > winner.count {
			winner = g
		}
	}
	if winner == nil || winner.count < w.MinVotes {
		return Result{}, false
	}
	return Result{Vote: winner.best, Votes: winner.count}, true
}

// Observe pushes a vote and checks for a stable result. When one is found
// the returned window is cleared.
func (w Window) Observe(v Vote) (Window, Result, bool) {
	w = w.Push(v)
	res, ok := w.Stable()
	if ok {
		w = w.Reset()
	}
	return w, res, ok
}
