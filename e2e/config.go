package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SERVER_ADDR points at a running server, e.g. "http://localhost:8080".
	// The suite is skipped when unset.
	ServerAddr string `envconfig:"SERVER_ADDR"`
	// JWT_SECRET must match the server's secret so the suite can mint identities.
	JWTSecret string `envconfig:"JWT_SECRET"`
	// COMMUNITY_ID is a community seeded with at least members u1,u2,u3 (see cmd/seed).
	CommunityID string `envconfig:"COMMUNITY_ID" default:"demo"`
	// E2E_DEBUG_JSON allows dumping full request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
