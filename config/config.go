package config

import (
	"github.com/kbukum/covaflow/validation"
)

// Config is the complete covaflow configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Pipeline      `yaml:",inline" mapstructure:",squash"`
	Telemetry     Telemetry  `yaml:"telemetry" mapstructure:"telemetry"`
	Aggregator    Aggregator `yaml:"aggregator" mapstructure:"aggregator"`
}

// Telemetry configures OpenTelemetry export. An empty endpoint disables export.
type Telemetry struct {
	Endpoint    string  `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure    bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

// Enabled reports whether spans and metrics are exported.
func (t Telemetry) Enabled() bool { return t.Endpoint != "" }

// Aggregator configures the analysis-aggregator side-process started by launch.
type Aggregator struct {
	Binary           string  `yaml:"binary" mapstructure:"binary"`
	ScaleFactor      float64 `yaml:"scale_factor" mapstructure:"scale_factor" validate:"gt=0"`
	MovingIOU        float64 `yaml:"moving_iou" mapstructure:"moving_iou" validate:"gte=0,lte=1"`
	StationaryIOU    float64 `yaml:"stationary_iou" mapstructure:"stationary_iou" validate:"gte=0,lte=1"`
	StationaryMaxAge uint    `yaml:"stationary_maxage" mapstructure:"stationary_maxage"`
	CUDADevice       string  `yaml:"cuda_device" mapstructure:"cuda_device"`
	WaitSeconds      int     `yaml:"wait_seconds" mapstructure:"wait_seconds" validate:"gte=0"`
}

// ApplyDefaults applies derived defaults to every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
}

// Validate validates every section and reports all failures at once.
func (c *Config) Validate() error {
	v := validation.New().
		Merge("service", c.ServiceConfig.Validate()).
		Merge("pipeline", c.Pipeline.Validate()).
		Merge("telemetry", validation.Validate(c.Telemetry)).
		Merge("aggregator", validation.Validate(c.Aggregator))
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
