package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrDuplicateUserID   = goerr.New("duplicate user ID")
	ErrMissingUserID     = goerr.New("user ID is required")
	ErrUnknownPermission = goerr.New("unknown permission")
	ErrInvalidRule       = goerr.New("invalid keyword rule")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	UserIDKey     = "user_id"
	PolicyKey     = "policy"
	RuleIndexKey  = "rule_index"
)
