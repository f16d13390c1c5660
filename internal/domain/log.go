package domain

import "strconv"

// LogQuery carries the raw optional query parameters of a log request. Values
// that fail to parse are ignored rather than rejected; permissiveness here is
// deliberate.
type LogQuery struct {
	From  string
	To    string
	Limit string
}

// LogResult is the filtered, bounded view of a user's exercises. Count always
// equals len(Entries).
type LogResult struct {
	UserID   string
	Username string
	Count    int
	Entries  []Exercise
}

// BuildLog filters the user's ordered exercise sequence by the inclusive
// from/to bounds, then truncates to the first limit entries. Truncation runs
// after filtering so a limit selects the first N of the filtered set.
func BuildLog(user *User, query LogQuery) LogResult {
	entries := make([]Exercise, 0, len(user.Exercises))

	from, hasFrom := ParseDate(query.From)
	to, hasTo := ParseDate(query.To)

	for _, exercise := range user.Exercises {
		if hasFrom && exercise.Date.Before(from) {
			continue
		}
		if hasTo && exercise.Date.After(to) {
			continue
		}
		entries = append(entries, exercise)
	}

	if limit, ok := parseLimit(query.Limit); ok && limit < len(entries) {
		entries = entries[:limit]
	}

	return LogResult{
		UserID:   user.ID,
		Username: user.Username,
		Count:    len(entries),
		Entries:  entries,
	}
}

func parseLimit(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit < 0 {
		return 0, false
	}
	return limit, true
}
