package chat

import "sync"

// Registry is the process-wide map of user id -> live sessions. One instance
// is shared by the websocket server and the router; its lifetime is the
// process lifetime.
//
// Invariant: a user key exists iff that user has at least one live session.
// Empty sets are pruned on removal so churn does not grow the map.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[*Session]struct{}
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]map[*Session]struct{})}
}

// Add registers sess under user. Allocates the set on the user's first session.
func (r *Registry) Add(user string, sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.byUser[user]
	if set == nil {
		set = make(map[*Session]struct{})
		r.byUser[user] = set
	}
	set[sess] = struct{}{}
}

// Remove drops sess from user's set, pruning the key when the set empties.
// Removing an absent session is a no-op; the router's eviction and the read
// loop's own teardown may both call this for the same session.
func (r *Registry) Remove(user string, sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.byUser[user]
	if set == nil {
		return
	}
	delete(set, sess)
	if len(set) == 0 {
		delete(r.byUser, user)
	}
}

// SessionsFor returns a snapshot of user's current sessions. Callers iterate
// the copy, never the live set.
func (r *Registry) SessionsFor(user string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byUser[user]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Session, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

// Count returns the number of live sessions for user.
func (r *Registry) Count(user string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[user])
}

// Users returns how many users currently hold at least one session.
func (r *Registry) Users() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
