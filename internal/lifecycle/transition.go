package lifecycle

import (
	"errors"
	"time"

	"github.com/playperu/superadmin/internal/sessions"
)

// errUnchanged aborts a store update when nothing would be written.
var errUnchanged = errors.New("session unchanged")

// endSession is the only place a session moves to ENDED. It stamps
// completedOn once; an already ended session is left alone and false is
// returned.
func endSession(sess *sessions.Session, at time.Time) bool {
	if sess.Status == sessions.StatusEnded {
		return false
	}
	completed := at.UTC().Truncate(time.Millisecond)
	sess.Status = sessions.StatusEnded
	sess.CompletedOn = &completed
	return true
}
