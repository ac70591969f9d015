package manager

import (
	"context"
	"time"
)

// DefaultAutosaveInterval is used when RunAutosave gets a non-positive
// interval.
const DefaultAutosaveInterval = 5 * time.Minute

// SetPaused stops or resumes autosaving.
func (m *Manager) SetPaused(paused bool) {
	m.mu.Lock()
	m.paused = paused
	m.mu.Unlock()
	m.log.Info("autosave paused state changed", "paused", paused)
}

// Paused reports whether autosaving is paused.
func (m *Manager) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// RunAutosave saves every interval while not paused. Blocks until ctx is
// done.
func (m *Manager) RunAutosave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	m.log.Info("autosave started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("autosave stopped")
			return
		case <-ticker.C:
			if m.Paused() {
				continue
			}
			if _, err := m.Save(ctx); err != nil {
				m.log.Error("autosave failed", "error", err)
			}
		}
	}
}
