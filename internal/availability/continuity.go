package availability

import "time"

// freeOnNight returns the set of slots not held on the single night d.
func freeOnNight(capacity int, holdings []Holding, d time.Time) map[int]struct{} {
	taken := make(map[int]struct{})
	for _, h := range holdings {
		if !h.CoversNight(d) {
			continue
		}
		for _, s := range h.Slots {
			taken[s] = struct{}{}
		}
	}
	free := make(map[int]struct{}, capacity)
	for i := 1; i <= capacity; i++ {
		if _, ok := taken[i]; !ok {
			free[i] = struct{}{}
		}
	}
	return free
}

// DisabledCheckoutDates walks the nights of [rangeStart, rangeEnd) keeping
// the set of slots that stay free from rangeStart through the current night.
// When that set is empty after night d, no single slot can carry the stay up
// to d+1, so d+1 is returned as a disabled check-out date. Every later
// boundary is disabled as well.
func DisabledCheckoutDates(capacity int, holdings []Holding, rangeStart, rangeEnd time.Time) []time.Time {
	var disabled []time.Time
	var carried map[int]struct{}
	for i, d := range Nights(rangeStart, rangeEnd) {
		free := freeOnNight(capacity, holdings, d)
		if i == 0 {
			carried = free
		} else {
			for s := range carried {
				if _, ok := free[s]; !ok {
					delete(carried, s)
				}
			}
		}
		if len(carried) == 0 {
			disabled = append(disabled, d.AddDate(0, 0, 1))
		}
	}
	return disabled
}
