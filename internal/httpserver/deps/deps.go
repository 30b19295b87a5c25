package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/mimic/internal/engine"
	"github.com/MrSnakeDoc/mimic/internal/logger"
	"github.com/MrSnakeDoc/mimic/internal/metrics"
)

type Deps struct {
	Logger            logger.Logger
	StartTime         time.Time
	Version           string
	Commit            string
	BuildDate         string
	GoVersion         string
	TimeNow           func() time.Time // for testing, defaults to time.Now
	TrustProxy        bool             // true if running behind a trusted reverse proxy
	AdminPrefix       string           // normalized prefix of the admin routes (ex: "/__vs")
	Engine            *engine.Engine   // operations on the service registry
	Metrics           *metrics.Metrics // nil when metrics are disabled
	RedisClient       *redis.Client    // event stream client, nil when disabled
	SeedDir           string           // empty when no seed directory is configured
	SeedReloadTrigger chan struct{}    // nil when no seed directory is configured
}
