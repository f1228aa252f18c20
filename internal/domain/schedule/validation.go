package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateDefinition checks that a definition carries the field its type
// requires. Called at creation time; the recurrence calculator itself
// tolerates missing values so that polling stays robust.
func ValidateDefinition(def Definition) error {
	if def.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidDefinition)
	}

	switch def.Type {
	case FrequencyFixedTime:
		if len(def.SpecificTimes) == 0 {
			return fmt.Errorf("%w: fixed_time requires specific_times", ErrInvalidDefinition)
		}
		for _, entry := range def.SpecificTimes {
			if _, _, err := parseTimeOfDay(entry); err != nil {
				return err
			}
		}
	case FrequencyIntervalBased:
		if def.IntervalHours <= 0 {
			return fmt.Errorf("%w: interval_based requires positive interval_hours", ErrInvalidDefinition)
		}
	case FrequencyFrequencyBased:
		if def.TimesPerDay <= 0 {
			return fmt.Errorf("%w: frequency_based requires positive times_per_day", ErrInvalidDefinition)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDefinition, def.Type)
	}

	return nil
}

// parseTimeOfDay parses an "HH:MM" string.
func parseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return hour, minute, nil
}
