package domain

import "time"

// Route maps an incoming gateway path pattern to the service that should
// handle it.
type Route struct {
	ID               int64       `json:"id"`
	GatewayServiceID string      `json:"gateway_service_id"`
	PathPattern      string      `json:"path_pattern"`
	Methods          []string    `json:"methods,omitempty"`
	TargetServiceID  string      `json:"target_service_id"`
	StripPrefix      bool        `json:"strip_prefix"`
	StripPath        *string     `json:"strip_path,omitempty"`
	Priority         int         `json:"priority"`
	Enabled          bool        `json:"enabled"`
	AuthConfig       *AuthConfig `json:"auth_config,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// AuthConfig describes a route's authentication requirements: whether auth
// is required, which service performs it, which sub-paths are exempt, and
// where to send unauthenticated callers.
type AuthConfig struct {
	RequireAuth   bool     `json:"require_auth" yaml:"require_auth"`
	AuthServiceID *string  `json:"auth_service_id,omitempty" yaml:"auth_service"`
	PublicPaths   []string `json:"public_paths,omitempty" yaml:"public_paths"`
	LoginRedirect *string  `json:"login_redirect,omitempty" yaml:"login_redirect"`
}
