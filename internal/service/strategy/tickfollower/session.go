package tickfollower

import (
	"fmt"
	"time"

	"github.com/krobus00/tick-follower/internal/config"
)

// Session is the wall-clock trading window. Weekdays use a Monday=0
// convention.
//
// TODO: confirm with the desk whether last_weekday=5 (Saturday under
// Monday=0) is intended or an off-by-one carried over from the original
// window check; the default reproduces the long-standing behavior.
type Session struct {
	loc          *time.Location
	startSeconds int
	endSeconds   int
	firstWeekday int
	lastWeekday  int
}

func NewSession(cfg config.SessionConfig) (*Session, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load session timezone: %w", err)
	}

	start, err := parseClock(cfg.Start)
	if err != nil {
		return nil, fmt.Errorf("parse session start: %w", err)
	}

	end, err := parseClock(cfg.End)
	if err != nil {
		return nil, fmt.Errorf("parse session end: %w", err)
	}

	if end < start {
		return nil, fmt.Errorf("session end %s before start %s", cfg.End, cfg.Start)
	}

	return &Session{
		loc:          loc,
		startSeconds: start,
		endSeconds:   end,
		firstWeekday: cfg.FirstWeekday,
		lastWeekday:  cfg.LastWeekday,
	}, nil
}

// Contains reports whether t falls inside the trading window. Both bounds are
// inclusive.
func (s *Session) Contains(t time.Time) bool {
	local := t.In(s.loc)

	weekday := (int(local.Weekday()) + 6) % 7 // Monday=0
	if weekday < s.firstWeekday || weekday > s.lastWeekday {
		return false
	}

	seconds := local.Hour()*3600 + local.Minute()*60 + local.Second()
	return seconds >= s.startSeconds && seconds <= s.endSeconds
}

func parseClock(value string) (int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}

	return parsed.Hour()*3600 + parsed.Minute()*60, nil
}
