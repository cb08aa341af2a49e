package metric

import (
	"fmt"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
)

const (
	ApiRequestCount     = "api_request_count"
	ApiRequestLatency   = "api_request_latency"
	PredictionCount     = "prediction_count"
	PredictionLatency   = "prediction_latency"
	UnknownCategory     = "unknown_category_count"
	TrainingLatency     = "training_latency"
	TrainingCount       = "training_count"
	DatasetRows         = "dataset_rows"
	ModelSupportVectors = "model_support_vectors"
)

const (
	TagEnv    = "env"
	TagPath   = "path"
	TagMethod = "method"
	TagStatus = "status"
	TagColumn = "column"
	TagResult = "result"
)

var (
	mu     sync.RWMutex
	client statsd.ClientInterface = &statsd.NoOpClient{}
)

// Config selects where metrics are sent
type Config struct {
	Enabled     bool
	Address     string
	AppName     string
	Environment string
}

// Init installs the statsd client. When metrics are disabled every call is a no-op.
func Init(cfg Config) error {
	if !cfg.Enabled {
		setClient(&statsd.NoOpClient{})
		log.Info().Msg("Metrics disabled")
		return nil
	}

	c, err := statsd.New(cfg.Address,
		statsd.WithNamespace(cfg.AppName),
		statsd.WithTags([]string{TagAsString(TagEnv, cfg.Environment)}),
	)
	if err != nil {
		return fmt.Errorf("failed to create statsd client: %w", err)
	}
	setClient(c)
	log.Info().Str("address", cfg.Address).Msg("Metrics client initialized")
	return nil
}

// Close flushes and closes the active client
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	err := client.Close()
	client = &statsd.NoOpClient{}
	return err
}

func setClient(c statsd.ClientInterface) {
	mu.Lock()
	defer mu.Unlock()
	client = c
}

func current() statsd.ClientInterface {
	mu.RLock()
	defer mu.RUnlock()
	return client
}

// Timing sends timing information
func Timing(name string, value time.Duration, tags []string) {
	if err := current().Timing(name, value, tags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("Error occurred while doing statsd timing")
	}
}

// Count increases a counter by value
func Count(name string, value int64, tags []string) {
	if err := current().Count(name, value, tags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("Error occurred while doing statsd count")
	}
}

// Incr increases a counter by 1
func Incr(name string, tags []string) {
	Count(name, 1, tags)
}

func Gauge(name string, value float64, tags []string) {
	if err := current().Gauge(name, value, tags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("Error occurred while doing statsd gauge")
	}
}

// TagAsString formats a statsd tag
func TagAsString(key, value string) string {
	return key + ":" + value
}

// BuildTag formats key/value pairs as tags; a trailing key without value is dropped
func BuildTag(pairs ...string) []string {
	tags := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		tags = append(tags, TagAsString(pairs[i], pairs[i+1]))
	}
	return tags
}
