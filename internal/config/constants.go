package config

import (
	"time"

	"github.com/k-papadakis/spark-fastapi-feature-engineering/pkg/contracts"
)

// Application constants
const (
	AppName    = "Loan Feature Engine"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable, e.g. LFE_SERVER_PORT.
	EnvPrefix = "LFE"
	// ConfigFileEnv names a YAML file that overrides the search locations.
	ConfigFileEnv = "LFE_CONFIG_FILE"

	DefaultPort            = 8000
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 60 * time.Second

	DefaultRateLimitRPS   = 100
	DefaultRateLimitBurst = 50

	DefaultDataPath   = "/data/cvas_data.json"
	DefaultDateLayout = "2/1/2006"

	DefaultMaxDepth = 2
	MaxDepthLimit   = 5
	DefaultHoliday  = "new_years_day"
	// MaxBodyBytes bounds the size of an engineer request body.
	MaxBodyBytes = 1 << 20
)

// DefaultTransforms is the transform selection used when a request names none.
var DefaultTransforms = []string{
	"year",
	"month",
	"day",
	"day_of_year",
	"distance_to_holiday",
	"is_month_end",
	"is_month_start",
	"time_since_previous",
}

// DefaultAggregations is the aggregation selection used when a request names
// none.
var DefaultAggregations = []string{
	"max",
	"min",
	"mean",
	"count",
	"percent_true",
	"num_unique",
	"mode",
}
