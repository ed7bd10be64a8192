package playlist

// LoopMode selects how the next track is chosen once the current one ends.
type LoopMode int

const (
	Single LoopMode = iota
	PlaylistCycle
	Random
)

func (m LoopMode) String() string {
	switch m {
	case PlaylistCycle:
		return "playlist-cycle"
	case Random:
		return "random"
	default:
		return "single"
	}
}

// Cycle returns the next mode in the bijective Single -> PlaylistCycle ->
// Random -> Single rotation.
func (m LoopMode) Cycle() LoopMode {
	return (m + 1) % 3
}
