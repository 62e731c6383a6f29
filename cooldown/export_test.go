package cooldown

import "time"

func (m *Manager) Cleanup(now time.Time) int {
	return m.cleanup(now)
}
