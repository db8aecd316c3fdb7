package stats

// ResetHistory clears the in-memory run history and daily maxima.
// Intended for tests and dev convenience.
func ResetHistory() {
	statsMu.Lock()
	defer statsMu.Unlock()
	runs = nil
	for k := range dailyMax {
		delete(dailyMax, k)
	}
}
