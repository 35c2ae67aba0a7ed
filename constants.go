package hydrx

// Environment variable names
const (
	// EnvTagName overrides the struct tag carrying key overrides.
	// Default: hydrate
	EnvTagName = "HYDRX_TAG_NAME"

	// EnvTimeLayouts lists time layouts separated by "|", tried in order.
	// Example: "2006-01-02|02.01.2006"
	EnvTimeLayouts = "HYDRX_TIME_LAYOUTS"

	// EnvLocation is the IANA name of the location for zone-less times.
	// Default: UTC
	EnvLocation = "HYDRX_LOCATION"

	// EnvBatchPolicy is fail_fast or continue.
	EnvBatchPolicy = "HYDRX_BATCH_POLICY"

	// EnvWorkers bounds concurrent row hydration in batches.
	EnvWorkers = "HYDRX_WORKERS"

	// EnvLogLevel is debug, info, warn or error.
	EnvLogLevel = "HYDRX_LOG_LEVEL"

	// EnvLogFormat is json or text.
	EnvLogFormat = "HYDRX_LOG_FORMAT"
)

// Default values
const (
	DefaultTagName    = "hydrate"
	DefaultLocation   = "UTC"
	DefaultWorkers    = 1
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	DefaultConfigFile = "hydrx.yaml"
)

const timeLayoutSeparator = "|"

// MaxWorkers caps the worker count accepted from configuration.
const MaxWorkers = 256
