package schedule

import "time"

// activeDay is the implicit window frequency_based occurrences spread
// across (8am to 8pm).
const activeDay = 12 * time.Hour

// NextOccurrence computes when a schedule is next due, or nil when no
// further occurrence is owed today. At most one occurrence cycle is
// decided per calendar day: a completion on the same date as now
// satisfies that day's run.
//
// A malformed specific_times entry is an error; an empty list, a
// non-positive interval, and an unknown type all mean "no next
// occurrence" so that partially-migrated records keep polling cleanly.
func NextOccurrence(def Definition, lastCompletion *time.Time, now time.Time) (*time.Time, error) {
	if lastCompletion != nil && !startOfDay(*lastCompletion).Before(startOfDay(now)) {
		return nil, nil
	}

	switch def.Type {
	case FrequencyFixedTime:
		return nextFixedTime(def.SpecificTimes, now)

	case FrequencyIntervalBased:
		if def.IntervalHours <= 0 {
			return nil, nil
		}
		next := now.Add(time.Duration(def.IntervalHours) * time.Hour)
		return &next, nil

	case FrequencyFrequencyBased:
		if def.TimesPerDay <= 0 {
			return nil, nil
		}
		next := now.Add(activeDay / time.Duration(def.TimesPerDay))
		return &next, nil

	default:
		return nil, nil
	}
}

// nextFixedTime scans the listed times in order and returns the first
// still ahead of now today, falling back to the first listed time
// tomorrow once all of today's slots have passed.
func nextFixedTime(specificTimes []string, now time.Time) (*time.Time, error) {
	if len(specificTimes) == 0 {
		return nil, nil
	}

	for _, entry := range specificTimes {
		hour, minute, err := parseTimeOfDay(entry)
		if err != nil {
			return nil, err
		}
		candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if candidate.After(now) {
			return &candidate, nil
		}
	}

	hour, minute, err := parseTimeOfDay(specificTimes[0])
	if err != nil {
		return nil, err
	}
	tomorrow := now.AddDate(0, 0, 1)
	next := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, minute, 0, 0, now.Location())
	return &next, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
