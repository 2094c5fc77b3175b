package arbiter

import "time"

func (a *SocialArbiter) SetClock(now func() time.Time) {
	a.now = now
}

func (a *SocialArbiter) TrackedContexts() int {
	a.ctxMu.Lock()
	defer a.ctxMu.Unlock()
	return len(a.contexts)
}
