package config

import "sync"

// LODSettings holds the view-dependent tunables the viewer changes while
// running.
type LODSettings struct {
	mu             sync.RWMutex
	distanceFactor float32
}

var globalLODSettings = &LODSettings{
	distanceFactor: 1.5, // default value
}

// GetLODDistanceFactor returns the current subdivision distance factor.
func GetLODDistanceFactor() float32 {
	globalLODSettings.mu.RLock()
	defer globalLODSettings.mu.RUnlock()
	return globalLODSettings.distanceFactor
}

// SetLODDistanceFactor sets the subdivision distance factor.
func SetLODDistanceFactor(f float32) {
	globalLODSettings.mu.Lock()
	defer globalLODSettings.mu.Unlock()

	// Clamp to reasonable values
	if f < 0.5 {
		f = 0.5
	}
	if f > 8 {
		f = 8
	}

	globalLODSettings.distanceFactor = f
}
