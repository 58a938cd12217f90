package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/oprisk/pkg/cli/config"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
	"github.com/secmon-lab/oprisk/pkg/service/scoring"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oprisk.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestLoadAppConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "valid configuration",
			content: `
[[user]]
id = "alice"
name = "Alice"
admin = true

[[user]]
id = "bob"
name = "Bob"
staff = true
permissions = ["view_reportconfiguration"]

[[scoring.draft.impact]]
keywords = ["skimming"]
value = "very high"

[[scoring.approve.owner]]
keywords = ["cards"]
value = "Head of Cards"
`,
		},
		{
			name:    "empty configuration",
			content: "",
		},
		{
			name: "duplicate user",
			content: `
[[user]]
id = "alice"

[[user]]
id = "alice"
`,
			wantErr: config.ErrDuplicateUserID,
		},
		{
			name: "missing user id",
			content: `
[[user]]
name = "Nobody"
`,
			wantErr: config.ErrMissingUserID,
		},
		{
			name: "unknown permission",
			content: `
[[user]]
id = "bob"
permissions = ["delete_everything"]
`,
			wantErr: config.ErrUnknownPermission,
		},
		{
			name: "impact rule with unknown level",
			content: `
[[scoring.draft.impact]]
keywords = ["skimming"]
value = "Extreme"
`,
			wantErr: config.ErrInvalidRule,
		},
		{
			name: "owner rule without value",
			content: `
[[scoring.approve.owner]]
keywords = ["cards"]
`,
			wantErr: config.ErrInvalidRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadAppConfiguration(writeConfig(t, tt.content))
			if tt.wantErr != nil {
				gt.Error(t, err).Is(tt.wantErr)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, cfg).NotNil()
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadAppConfiguration(filepath.Join(t.TempDir(), "nope.toml"))
		gt.Value(t, err).NotNil()
	})
}

func TestAppConfig_ScoringPolicies(t *testing.T) {
	cfg, err := config.LoadAppConfiguration(writeConfig(t, `
[[scoring.draft.impact]]
keywords = ["skimming"]
value = "Very High"

[scoring.approve]
zero_occurrence = ["0", "none"]

[[scoring.approve.owner]]
keywords = ["cards"]
value = "Head of Cards"
`))
	gt.NoError(t, err).Required()

	draft, approve, err := cfg.ScoringPolicies()
	gt.NoError(t, err).Required()

	ds := scoring.New(draft)
	gt.Value(t, ds.Impact("ATM skimming detected")).Equal(types.LevelVeryHigh)
	// the override replaces the whole table
	gt.Value(t, ds.Impact("reputational damage")).Equal(types.LevelMedium)
	// untouched tables keep defaults
	gt.Value(t, ds.Owner("Credit Department")).Equal("Head of Credit")

	as := scoring.New(approve)
	gt.Value(t, as.Owner("Cards & Payments")).Equal("Head of Cards")
	gt.Value(t, as.Owner("Compliance")).Equal("Department Head")
	gt.Bool(t, as.IsZeroOccurrence("none")).True()
	gt.Bool(t, as.IsZeroOccurrence("on time")).False()
	gt.Value(t, as.Impact("fraud")).Equal(types.LevelVeryHigh)
}

func TestAppConfig_ToAuthzUsers(t *testing.T) {
	cfg, err := config.LoadAppConfiguration(writeConfig(t, `
[[user]]
id = "carol"
name = "Carol"
permissions = ["view_reportconfiguration"]
`))
	gt.NoError(t, err).Required()

	users := cfg.ToAuthzUsers()
	gt.Array(t, users).Length(1).Required()
	gt.Value(t, users[0].ID).Equal("carol")
	gt.Bool(t, users[0].Admin).False()
	gt.Array(t, users[0].Permissions).Length(1).Required()
	gt.Value(t, users[0].Permissions[0]).Equal(types.PermissionViewReport)
}
