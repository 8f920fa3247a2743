package gateway

import (
	"time"

	"github.com/robfig/cron/v3"
)

// The sweep schedule is a classic 5-field cron expression
// (minute hour dom month dow), e.g. "*/10 * * * *".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration returns how long until expr next fires. A zero duration
// means the expression is unusable and the sweeper should not be scheduled.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		return 0
	}
	return d
}
