package config

import "time"

type Config struct {
	Interval time.Duration `yaml:"interval"`
}
