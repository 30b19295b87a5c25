package handlers

import (
	"time"

	"github.com/MrSnakeDoc/mimic/internal/httpserver/deps"
)

func clock(d deps.Deps) func() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow
	}
	return time.Now
}
