package schedule

import "time"

// Occurrences returns how many calls of s fall into w. A periodic schedule
// calls at FirstArrival + n*interval calendar days for n = 0, 1, 2, ...,
// keeping the wall clock time of the first arrival in its location; calls
// before the first arrival never exist.
func Occurrences(s Schedule, w Window) (int, error) {
	if err := checkInterval(s); err != nil {
		return 0, err
	}
	if err := w.Validate(); err != nil {
		return 0, err
	}

	if !s.IsPeriodic() {
		if w.Contains(s.FirstArrival) {
			return 1, nil
		}
		return 0, nil
	}

	if !s.FirstArrival.Before(w.End) {
		return 0, nil
	}
	first := callsBefore(s.FirstArrival, s.RecurrenceIntervalDays, w.Start)
	last := callsBefore(s.FirstArrival, s.RecurrenceIntervalDays, w.End)
	return last - first, nil
}

// callsBefore counts the calls strictly before t. Only offsets up to the
// calendar distance between first and t are ever added to first, so huge
// intervals cannot overflow.
func callsBefore(first time.Time, interval int, t time.Time) int {
	if !first.Before(t) {
		return 0
	}
	days := dayNumber(t.In(first.Location())) - dayNumber(first)
	n := int(days / int64(interval))
	if first.AddDate(0, 0, n*interval).Before(t) {
		n++
	}
	return n
}

// dayNumber is the index of t's calendar day in its own location.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / (24 * 60 * 60)
}
