package snapshot

import "time"

func (e *Engine) SetNow(now func() time.Time) {
	e.now = now
}
