package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration returns how long until expr next fires, and whether
// the expression parsed. The scheduler falls back to its fixed period
// when it did not.
func nextCronDuration(expr string) (time.Duration, bool) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0, false
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		d = 0
	}
	return d, true
}
