package instance

import "github.com/tripgather/tripgather-backend/pkg/env"

// GetID names the running process in logs and cron lock owners. An explicit
// TRIPGATHER_INSTANCE_ID wins, then Heroku's DYNO, then HOSTNAME.
func GetID() string {
	return env.First("local", env.Prefix+"INSTANCE_ID", "DYNO", "HOSTNAME")
}
