package turns

// Expire fires the timeout of the current turn immediately.
func Expire(m *Manager) {
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()
	m.expire(gen)
}
