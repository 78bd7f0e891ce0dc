package narrative

import "time"

// TimeOfDay is the coarse bucket a moment falls into.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	WorkHours TimeOfDay = "work hours"
	Evening   TimeOfDay = "evening"
	LateNight TimeOfDay = "late night"
)

// TimeContext is the temporal framing handed to the narrative model.
type TimeContext struct {
	Weekday string
	Weekend bool
	Bucket  TimeOfDay
}

// NewTimeContext buckets t on its own wall clock. Boundaries are inclusive:
// morning 06:00-08:59, work hours 09:00-17:00, evening 17:01-21:00.
func NewTimeContext(t time.Time) TimeContext {
	wd := t.Weekday()
	return TimeContext{
		Weekday: wd.String(),
		Weekend: wd == time.Saturday || wd == time.Sunday,
		Bucket:  bucket(t.Hour()*60 + t.Minute()),
	}
}

func bucket(minute int) TimeOfDay {
	switch {
	case minute >= 6*60 && minute < 9*60:
		return Morning
	case minute >= 9*60 && minute <= 17*60:
		return WorkHours
	case minute > 17*60 && minute <= 21*60:
		return Evening
	default:
		return LateNight
	}
}

func (tc TimeContext) DayKind() string {
	if tc.Weekend {
		return "weekend"
	}
	return "weekday"
}
