package chat

import (
	"encoding/json"

	"ChatGate/logger"
)

// Router fans a stored message out to every live session of a target user.
type Router struct {
	reg *Registry
}

func NewRouter(reg *Registry) *Router {
	return &Router{reg: reg}
}

// Deliver pushes rec to each of user's sessions. Best effort per session: a
// failed send evicts that one session and moves on, and no failure reaches
// the caller — the record was already durably stored before Deliver runs.
// Zero live sessions is a successful no-op.
func (r *Router) Deliver(user string, rec *MessageRecord) {
	sessions := r.reg.SessionsFor(user)
	if len(sessions) == 0 {
		return
	}

	data, err := json.Marshal(rec)
	if err != nil {
		logger.Errorf("[router] marshal record id=%s err=%v", rec.ID, err)
		return
	}

	for _, sess := range sessions {
		if err := sess.Send(data); err != nil {
			logger.Warnf("[router] evict session user=%s kind=%s err=%v",
				user, ClassifySendErr(err), err)
			r.reg.Remove(user, sess)
			sess.Close()
		}
	}
}
