package config

import "time"

type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// ClearSessionOnUnauthorized drops the session when the backend answers 401.
	ClearSessionOnUnauthorized bool `yaml:"clear_session_on_unauthorized"`
}
