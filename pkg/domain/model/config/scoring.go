package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
)

// KeywordRule maps text containing any of Keywords to Value.
//
// Keywords are matched case-insensitively as substrings of the text after
// punctuation is folded to single spaces and the text is padded with one space
// on each side. A keyword written with surrounding spaces (" it ") therefore
// only matches a whole word.
type KeywordRule struct {
	Keywords []string
	Value    string
}

// LevelRule maps text containing any of Keywords to Level, with the same
// matching semantics as KeywordRule.
type LevelRule struct {
	Keywords []string
	Level    types.Level
}

// Band maps numbers up to Max to Level. Max is inclusive unless Exclusive.
type Band struct {
	Max       float64
	Exclusive bool
	Level     types.Level
}

// OccurrencePolicy converts an occurrence cell into a probability level
type OccurrencePolicy struct {
	// Counts are checked in order; values above the last band map to Ceiling
	Counts  []Band
	Ceiling types.Level
	// AllowFraction accepts decimal counts such as "2.5"
	AllowFraction bool
	// Unparsed is used for blank or unrecognised values
	Unparsed types.Level

	// Percents enables "<n>%" values when non-empty
	Percents       []Band
	PercentCeiling types.Level

	// Frequencies enables phrase matching ("daily", "weekly", ...) when non-empty
	Frequencies []LevelRule
}

// ScoringPolicy is the complete, inspectable configuration of the heuristic
// scorers for one extraction variant.
type ScoringPolicy struct {
	Name string
	// MinFields is the minimum number of fields a KRI row needs to be kept
	MinFields int

	Occurrence OccurrencePolicy

	Impact        []LevelRule
	DefaultImpact types.Level

	Owner        []KeywordRule
	DefaultOwner string

	Coordinator        []KeywordRule
	DefaultCoordinator string

	Controls        []KeywordRule
	DefaultControls string

	// ZeroOccurrence lists occurrence values (lower-cased, trimmed) that mean
	// the risk did not materialise
	ZeroOccurrence []string

	// ReduceResidual derives residual levels one notch below inherent ones
	// instead of copying them
	ReduceResidual bool
}

// Validate checks that every configured level is canonical
func (p *ScoringPolicy) Validate() error {
	if p.MinFields < 1 {
		return goerr.New("min fields must be positive", goerr.V("policy", p.Name), goerr.V("min_fields", p.MinFields))
	}

	levels := []types.Level{p.Occurrence.Ceiling, p.Occurrence.Unparsed, p.DefaultImpact}
	if len(p.Occurrence.Percents) > 0 {
		levels = append(levels, p.Occurrence.PercentCeiling)
	}
	for _, b := range p.Occurrence.Counts {
		levels = append(levels, b.Level)
	}
	for _, b := range p.Occurrence.Percents {
		levels = append(levels, b.Level)
	}
	for _, r := range p.Occurrence.Frequencies {
		levels = append(levels, r.Level)
	}
	for _, r := range p.Impact {
		levels = append(levels, r.Level)
	}

	for _, lv := range levels {
		if !lv.IsValid() {
			return goerr.New("invalid level in scoring policy", goerr.V("policy", p.Name), goerr.V("level", lv))
		}
	}

	for _, rules := range [][]KeywordRule{p.Owner, p.Coordinator, p.Controls} {
		for _, r := range rules {
			if len(r.Keywords) == 0 || r.Value == "" {
				return goerr.New("keyword rule requires keywords and value", goerr.V("policy", p.Name), goerr.V("value", r.Value))
			}
		}
	}

	return nil
}

// DefaultZeroOccurrence is the fail-safe vocabulary for non-occurring KRIs
func DefaultZeroOccurrence() []string {
	return []string{
		"0", "0.0", "zero", "nil", "none", "no", "n/a", "",
		"always updated", "timelines met", "on time", "no issues", "ok",
	}
}

// DefaultCoordinatorRules returns the coordinator keyword table. Order decides
// ties.
func DefaultCoordinatorRules() []KeywordRule {
	return []KeywordRule{
		{Keywords: []string{"compliance", " aml ", "money laundering", " kyc ", "regulatory"}, Value: "Compliance Coordinator"},
		{Keywords: []string{"fraud", "forgery", "theft"}, Value: "Fraud Risk Coordinator"},
		{Keywords: []string{" it ", " ict ", "system", "cyber", "network", "server"}, Value: "IT Risk Coordinator"},
		{Keywords: []string{"treasury", "liquidity", "investment"}, Value: "Treasury Risk Coordinator"},
		{Keywords: []string{"customer", "reputation", "complaint"}, Value: "Customer Experience Coordinator"},
		{Keywords: []string{" hr ", "human resource", "staff", "payroll"}, Value: "HR Coordinator"},
	}
}

// DefaultControlRules returns canned control descriptions per department
func DefaultControlRules() []KeywordRule {
	return []KeywordRule{
		{Keywords: []string{"microfinance"}, Value: "Loan appraisal checklists, field verification visits and portfolio-at-risk monitoring"},
		{Keywords: []string{"credit", "loan"}, Value: "Credit committee approval, collateral verification and arrears follow-up"},
		{Keywords: []string{"finance", "accounts"}, Value: "Maker-checker on postings, daily reconciliations and management review of ledgers"},
		{Keywords: []string{" it ", " ict ", "information technology"}, Value: "Access reviews, backup and recovery testing and change management approvals"},
		{Keywords: []string{"operations", "teller", "customer service"}, Value: "Dual control on cash, end-of-day balancing and supervisor overrides"},
		{Keywords: []string{"compliance", " aml "}, Value: "KYC checks, transaction monitoring and regulatory return reviews"},
		{Keywords: []string{"audit"}, Value: "Risk-based audit plan and follow-up of audit findings"},
		{Keywords: []string{"treasury"}, Value: "Limit monitoring, liquidity gap analysis and deal confirmations"},
		{Keywords: []string{" hr ", "human resource"}, Value: "Segregation of duties, mandatory leave and staff vetting"},
		{Keywords: []string{"legal"}, Value: "Contract review and litigation tracking"},
	}
}

// DraftPolicy is used by preview and save-as-draft extraction
func DraftPolicy() *ScoringPolicy {
	return &ScoringPolicy{
		Name:      "draft",
		MinFields: 3,
		Occurrence: OccurrencePolicy{
			Counts: []Band{
				{Max: 0, Level: types.LevelVeryLow},
				{Max: 2, Level: types.LevelLow},
				{Max: 5, Level: types.LevelMedium},
				{Max: 20, Level: types.LevelHigh},
			},
			Ceiling:  types.LevelVeryHigh,
			Unparsed: types.LevelVeryLow,
		},
		Impact: []LevelRule{
			{Level: types.LevelVeryHigh, Keywords: []string{"fraud", "theft", "embezzlement", "cyber", "breach", "money laundering", "sanction"}},
			{Level: types.LevelHigh, Keywords: []string{"reputational", "regulatory", "penalty", "outage", "downtime", "system failure", "liquidity", "legal"}},
			{Level: types.LevelMedium, Keywords: []string{"delay", "error", "complaint", "manual", "backlog"}},
		},
		DefaultImpact: types.LevelMedium,
		Owner: []KeywordRule{
			{Keywords: []string{"microfinance"}, Value: "Head of Microfinance"},
			{Keywords: []string{"credit", "loan"}, Value: "Head of Credit"},
			{Keywords: []string{"finance"}, Value: "Chief Finance Officer"},
			{Keywords: []string{" it ", " ict ", "information technology"}, Value: "Head of IT"},
			{Keywords: []string{"operations", "teller", "customer service"}, Value: "Head of Operations"},
			{Keywords: []string{"compliance"}, Value: "Chief Compliance Officer"},
			{Keywords: []string{"audit"}, Value: "Head of Internal Audit"},
			{Keywords: []string{"treasury"}, Value: "Treasurer"},
			{Keywords: []string{" hr ", "human resource"}, Value: "Head of Human Resources"},
			{Keywords: []string{"legal"}, Value: "Head of Legal"},
		},
		DefaultOwner:       "Department Head",
		Coordinator:        DefaultCoordinatorRules(),
		DefaultCoordinator: "Risk & Compliance Coordinator",
		Controls:           DefaultControlRules(),
		DefaultControls:    "Standard Controls",
		ZeroOccurrence:     DefaultZeroOccurrence(),
		ReduceResidual:     false,
	}
}

// ApprovePolicy is used by save-and-approve extraction
func ApprovePolicy() *ScoringPolicy {
	return &ScoringPolicy{
		Name:      "approve",
		MinFields: 4,
		Occurrence: OccurrencePolicy{
			Counts: []Band{
				{Max: 0, Level: types.LevelVeryLow},
				{Max: 1, Level: types.LevelLow},
				{Max: 3, Level: types.LevelMedium},
				{Max: 9, Level: types.LevelHigh},
			},
			Ceiling:       types.LevelVeryHigh,
			AllowFraction: true,
			Unparsed:      types.LevelMedium,
			Percents: []Band{
				{Max: 0, Level: types.LevelVeryLow},
				{Max: 5, Exclusive: true, Level: types.LevelMedium},
				{Max: 10, Exclusive: true, Level: types.LevelHigh},
			},
			PercentCeiling: types.LevelVeryHigh,
			Frequencies: []LevelRule{
				{Level: types.LevelVeryHigh, Keywords: []string{"daily", "every day", "per day", "hourly"}},
				{Level: types.LevelHigh, Keywords: []string{"weekly", "often", "frequent"}},
				{Level: types.LevelMedium, Keywords: []string{"monthly"}},
				{Level: types.LevelLow, Keywords: []string{"quarterly", "annually", "yearly", "rarely"}},
			},
		},
		Impact: []LevelRule{
			{Level: types.LevelVeryHigh, Keywords: []string{"fraud", "money laundering", " aml ", "terrorist financing", "cyber", "data breach", "insolvency"}},
			{Level: types.LevelHigh, Keywords: []string{"reputation", "compliance", "penalty", " fine ", "outage", "disruption", "financial loss", "liquidity"}},
			{Level: types.LevelMedium, Keywords: []string{"delay", "backlog", "manual", "error", "late"}},
		},
		DefaultImpact: types.LevelMedium,
		Owner: []KeywordRule{
			{Keywords: []string{"compliance"}, Value: "Chief Compliance Officer"},
			{Keywords: []string{" aml ", "money laundering"}, Value: "Money Laundering Reporting Officer"},
			{Keywords: []string{"audit"}, Value: "Head of Internal Audit"},
			{Keywords: []string{"credit"}, Value: "Head of Credit"},
			{Keywords: []string{"recovery", "recoveries"}, Value: "Head of Recoveries"},
			{Keywords: []string{"operations"}, Value: "Head of Operations"},
			{Keywords: []string{" it ", " ict "}, Value: "Head of IT"},
			{Keywords: []string{"finance"}, Value: "Chief Finance Officer"},
			{Keywords: []string{"treasury"}, Value: "Treasurer"},
		},
		DefaultOwner:       "Department Head",
		Coordinator:        DefaultCoordinatorRules(),
		DefaultCoordinator: "Risk & Compliance Coordinator",
		Controls:           DefaultControlRules(),
		DefaultControls:    "Standard Controls",
		ZeroOccurrence:     DefaultZeroOccurrence(),
		ReduceResidual:     true,
	}
}
