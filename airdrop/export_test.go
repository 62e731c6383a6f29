package airdrop

import "time"

func (s *Scheduler) SetNow(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Scheduler) Expire(id string) bool {
	return s.expire(id)
}
