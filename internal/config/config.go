package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/strohel/locations-imgtest/internal/logger"
)

const (
	RuntimeTypeDocker = "docker"
	RuntimeTypeMemory = "memory"
)

// envKeyReplacer maps config paths to env var names, e.g. ready.timeout
// becomes IMGTEST_READY_TIMEOUT.
var envKeyReplacer = strings.NewReplacer(".", "_")

// ServiceConfig describes the endpoint under test.
type ServiceConfig struct {
	// BaseURL is where the published container port is reachable from the host.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Port is published host:container with the same number on both sides.
	Port int `mapstructure:"port" validate:"gte=1,lte=65535"`
}

// ReadyConfig bounds the readiness poll loop.
type ReadyConfig struct {
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

// ContainerConfig is the fixed resource policy applied to the container under
// test. The defaults emulate a Kubernetes-style CPU cgroup cap: one core-second
// of CPU time per wall-clock second, spread over 4 visible CPUs.
type ContainerConfig struct {
	NanoCPUs      int64  `mapstructure:"nano_cpus" validate:"gt=0"`
	MemoryLimitMB int64  `mapstructure:"memory_limit_mb" validate:"gt=0"`
	CPUSet        string `mapstructure:"cpu_set" validate:"required"`
	// PassEnv are environment variables forwarded from the harness process
	// into the container. Their absence in the environment is a fatal
	// precondition of an image run.
	PassEnv []string `mapstructure:"pass_env" validate:"min=1"`
}

type StatsConfig struct {
	// Wait bounds how long scope close waits for the collector goroutine.
	Wait time.Duration `mapstructure:"wait" validate:"gt=0"`
}

type MiscConfig struct {
	RuntimeType string `mapstructure:"runtime_type" validate:"oneof=docker memory"`
}

type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Ready     ReadyConfig     `mapstructure:"ready"`
	Container ContainerConfig `mapstructure:"container"`
	Stats     StatsConfig     `mapstructure:"stats"`
	Misc      MiscConfig      `mapstructure:"misc"`
}

// LoadConfig builds the harness configuration from defaults and environment
// overrides. A .env file in the working directory is honored if present, so a
// local run can carry the forwarded service variables without exporting them.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logger.WithComponent("config").Debug("loaded .env file")
	}

	v := viper.New()

	v.SetDefault("service.base_url", "http://127.0.0.1:8080")
	v.SetDefault("service.port", 8080)
	v.SetDefault("ready.timeout", 15*time.Second)
	v.SetDefault("ready.interval", 10*time.Millisecond)
	// 1 core-second per wall second; still allows intra-process parallelism.
	v.SetDefault("container.nano_cpus", int64(1_000_000_000))
	// 512 MB is a conservative cap for a microservice; swap is set to the same
	// value at container creation, which disables it.
	v.SetDefault("container.memory_limit_mb", int64(512))
	v.SetDefault("container.cpu_set", "0-3")
	v.SetDefault("container.pass_env", []string{"GOOUT_ELASTIC_HOST", "GOOUT_ELASTIC_PORT"})
	v.SetDefault("stats.wait", 2*time.Second)
	v.SetDefault("misc.runtime_type", RuntimeTypeDocker)

	// Environment variables like IMGTEST_READY_TIMEOUT override defaults.
	v.AutomaticEnv()
	v.SetEnvPrefix("IMGTEST")
	v.SetEnvKeyReplacer(envKeyReplacer)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Ready.Interval >= c.Ready.Timeout {
		return fmt.Errorf("ready.interval (%v) must be shorter than ready.timeout (%v)", c.Ready.Interval, c.Ready.Timeout)
	}
	return nil
}
