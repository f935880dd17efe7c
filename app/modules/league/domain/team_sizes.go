package leaguedomain

import "github.com/google/uuid"

// TeamSizeStats is a snapshot of roster sizes for one league. It is passed
// explicitly into normalization and challenge math so both stay pure.
type TeamSizeStats struct {
	sizes map[uuid.UUID]int
	max   int
}

// NewTeamSizeStats copies sizes and records the largest roster.
func NewTeamSizeStats(sizes map[uuid.UUID]int) TeamSizeStats {
	s := TeamSizeStats{sizes: make(map[uuid.UUID]int, len(sizes))}
	for id, n := range sizes {
		if n < 0 {
			n = 0
		}
		s.sizes[id] = n
		if n > s.max {
			s.max = n
		}
	}
	return s
}

// Size returns the roster size of id and whether it is known.
func (s TeamSizeStats) Size(id uuid.UUID) (int, bool) {
	n, ok := s.sizes[id]
	return n, ok
}

// Max is the largest roster in the snapshot.
func (s TeamSizeStats) Max() int { return s.max }

func (s TeamSizeStats) Len() int { return len(s.sizes) }

// IDs returns every team in the snapshot.
func (s TeamSizeStats) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.sizes))
	for id := range s.sizes {
		ids = append(ids, id)
	}
	return ids
}
