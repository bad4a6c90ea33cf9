package scheduler

// ScheduleKey is the total-order key spec §3 defines for the schedule:
// ascending score first, ascending hash breaks ties. Two keys with the
// same score and hash name the same schedule slot.
type ScheduleKey struct {
	Score float32
	Hash  uint64
}

// Less reports whether k sorts before other under the schedule's order.
func (k ScheduleKey) Less(other ScheduleKey) bool {
	if k.Score != other.Score {
		return k.Score < other.Score
	}
	return k.Hash < other.Hash
}
