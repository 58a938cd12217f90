package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/oprisk/pkg/domain/model/config"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
	"github.com/secmon-lab/oprisk/pkg/service/authz"
	"github.com/urfave/cli/v3"
)

// App holds the CLI flag pointing at the TOML application configuration
type App struct {
	path string
}

func (a *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file (users, scoring overrides)",
			Sources:     cli.EnvVars("OPRISK_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Configure loads the configuration file. Without a path an empty
// configuration is returned.
func (a *App) Configure() (*AppConfig, error) {
	if a.path == "" {
		return &AppConfig{}, nil
	}
	return LoadAppConfiguration(a.path)
}

// AppConfig represents the application configuration
type AppConfig struct {
	Users   []User  `toml:"user"`
	Scoring Scoring `toml:"scoring"`
}

// User represents one register user and their roles
type User struct {
	ID          string   `toml:"id"`
	Name        string   `toml:"name"`
	Admin       bool     `toml:"admin"`
	Staff       bool     `toml:"staff"`
	Permissions []string `toml:"permissions"`
}

// Validate checks if the User is valid
func (u *User) Validate() error {
	if u.ID == "" {
		return goerr.Wrap(ErrMissingUserID, "user without ID", goerr.V("name", u.Name))
	}
	for _, p := range u.Permissions {
		if types.Permission(p) != types.PermissionViewReport {
			return goerr.Wrap(ErrUnknownPermission, "unsupported permission",
				goerr.V(UserIDKey, u.ID),
				goerr.V("permission", p))
		}
	}
	return nil
}

// Scoring holds optional overrides of the built-in scoring policies
type Scoring struct {
	Draft   *ScoringOverride `toml:"draft"`
	Approve *ScoringOverride `toml:"approve"`
}

// ScoringOverride replaces whole keyword tables of a policy. Omitted tables
// keep the built-in defaults.
type ScoringOverride struct {
	Impact         []KeywordEntry `toml:"impact"`
	Owner          []KeywordEntry `toml:"owner"`
	Coordinator    []KeywordEntry `toml:"coordinator"`
	Controls       []KeywordEntry `toml:"controls"`
	ZeroOccurrence []string       `toml:"zero_occurrence"`
}

// KeywordEntry maps keywords to a value. For impact tables the value is a
// level name.
type KeywordEntry struct {
	Keywords []string `toml:"keywords"`
	Value    string   `toml:"value"`
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	userIDs := make(map[string]bool)
	for _, u := range a.Users {
		if err := u.Validate(); err != nil {
			return goerr.Wrap(err, "invalid user")
		}
		if userIDs[u.ID] {
			return goerr.Wrap(ErrDuplicateUserID, "duplicate user ID", goerr.V(UserIDKey, u.ID))
		}
		userIDs[u.ID] = true
	}

	if _, _, err := a.ScoringPolicies(); err != nil {
		return goerr.Wrap(err, "invalid scoring configuration")
	}

	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V(ConfigPathKey, path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// ToAuthzUsers converts the user table for the static authorizer
func (a *AppConfig) ToAuthzUsers() []authz.User {
	users := make([]authz.User, len(a.Users))
	for i, u := range a.Users {
		perms := make([]types.Permission, len(u.Permissions))
		for j, p := range u.Permissions {
			perms[j] = types.Permission(p)
		}
		users[i] = authz.User{
			ID:          u.ID,
			Name:        u.Name,
			Admin:       u.Admin,
			Staff:       u.Staff,
			Permissions: perms,
		}
	}
	return users
}

// ScoringPolicies returns the draft and approve policies with overrides applied
func (a *AppConfig) ScoringPolicies() (*domainConfig.ScoringPolicy, *domainConfig.ScoringPolicy, error) {
	draft := domainConfig.DraftPolicy()
	if err := a.Scoring.Draft.apply(draft); err != nil {
		return nil, nil, err
	}

	approve := domainConfig.ApprovePolicy()
	if err := a.Scoring.Approve.apply(approve); err != nil {
		return nil, nil, err
	}

	return draft, approve, nil
}

func (o *ScoringOverride) apply(policy *domainConfig.ScoringPolicy) error {
	if o == nil {
		return nil
	}

	if len(o.Impact) > 0 {
		rules := make([]domainConfig.LevelRule, len(o.Impact))
		for i, e := range o.Impact {
			level, err := types.ParseLevel(e.Value)
			if err != nil {
				return goerr.Wrap(ErrInvalidRule, "impact rule needs a canonical level",
					goerr.V(PolicyKey, policy.Name),
					goerr.V(RuleIndexKey, i),
					goerr.V("value", e.Value))
			}
			rules[i] = domainConfig.LevelRule{Keywords: e.Keywords, Level: level}
		}
		policy.Impact = rules
	}

	for _, table := range []struct {
		entries []KeywordEntry
		target  *[]domainConfig.KeywordRule
	}{
		{o.Owner, &policy.Owner},
		{o.Coordinator, &policy.Coordinator},
		{o.Controls, &policy.Controls},
	} {
		if len(table.entries) == 0 {
			continue
		}
		rules := make([]domainConfig.KeywordRule, len(table.entries))
		for i, e := range table.entries {
			rules[i] = domainConfig.KeywordRule{Keywords: e.Keywords, Value: e.Value}
		}
		*table.target = rules
	}

	if len(o.ZeroOccurrence) > 0 {
		policy.ZeroOccurrence = o.ZeroOccurrence
	}

	if err := policy.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidRule, "scoring policy validation failed",
			goerr.V(PolicyKey, policy.Name),
			goerr.V("cause", err.Error()))
	}
	return nil
}
