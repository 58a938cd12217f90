package scoring_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/oprisk/pkg/domain/model/config"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
	"github.com/secmon-lab/oprisk/pkg/service/scoring"
)

func TestDraftScorer_Probability(t *testing.T) {
	s := scoring.New(config.DraftPolicy())

	tests := []struct {
		input string
		want  types.Level
	}{
		{"0", types.LevelVeryLow},
		{"1", types.LevelLow},
		{"2", types.LevelLow},
		{"3", types.LevelMedium},
		{"5", types.LevelMedium},
		{"6", types.LevelHigh},
		{"20", types.LevelHigh},
		{"21", types.LevelVeryHigh},
		{"1,000", types.LevelVeryHigh},
		{" 4 ", types.LevelMedium},
		{"abc", types.LevelVeryLow},
		{"", types.LevelVeryLow},
		{"2.5", types.LevelVeryLow},
		{"daily", types.LevelVeryLow},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gt.Value(t, s.Probability(tt.input)).Equal(tt.want)
		})
	}
}

func TestApproveScorer_Probability(t *testing.T) {
	s := scoring.New(config.ApprovePolicy())

	tests := []struct {
		input string
		want  types.Level
	}{
		{"0", types.LevelVeryLow},
		{"1", types.LevelLow},
		{"2.5", types.LevelMedium},
		{"3", types.LevelMedium},
		{"9", types.LevelHigh},
		{"10", types.LevelVeryHigh},
		{"abc", types.LevelMedium},
		{"", types.LevelMedium},
		{"0%", types.LevelVeryLow},
		{"4%", types.LevelMedium},
		{"5%", types.LevelHigh},
		{"9.9%", types.LevelHigh},
		{"10%", types.LevelVeryHigh},
		{"12 %", types.LevelVeryHigh},
		{"x%", types.LevelMedium},
		{"Daily", types.LevelVeryHigh},
		{"twice weekly", types.LevelHigh},
		{"monthly", types.LevelMedium},
		{"Quarterly", types.LevelLow},
		{"NaN", types.LevelMedium},
		{"inf", types.LevelMedium},
		{"-Infinity", types.LevelMedium},
		{"nan%", types.LevelMedium},
		{"+Inf %", types.LevelMedium},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gt.Value(t, s.Probability(tt.input)).Equal(tt.want)
		})
	}
}

func TestScorer_Impact(t *testing.T) {
	draft := scoring.New(config.DraftPolicy())
	approve := scoring.New(config.ApprovePolicy())

	tests := []struct {
		name   string
		scorer *scoring.Scorer
		text   string
		want   types.Level
	}{
		{"fraud is very high", draft, "Card fraud at branch", types.LevelVeryHigh},
		{"fraud outranks reputational", draft, "Reputational damage from fraud", types.LevelVeryHigh},
		{"reputational is high", draft, "Reputational damage", types.LevelHigh},
		{"delay is medium", draft, "Delay in reconciliation", types.LevelMedium},
		{"unrelated text defaults to medium", draft, "Printer toner", types.LevelMedium},
		{"case insensitive", draft, "CYBER attack", types.LevelVeryHigh},
		{"approve aml word", approve, "AML screening gaps", types.LevelVeryHigh},
		{"approve fine word", approve, "Regulatory fine", types.LevelHigh},
		{"approve fine matches after punctuation folding", approve, "Fine-tuning reports", types.LevelHigh},
		{"approve late is medium", approve, "Late submission", types.LevelMedium},
		{"approve default", approve, "Printer toner", types.LevelMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.scorer.Impact(tt.text)).Equal(tt.want)
		})
	}
}

func TestScorer_IsZeroOccurrence(t *testing.T) {
	s := scoring.New(config.DraftPolicy())

	tests := []struct {
		input string
		want  bool
	}{
		{"0", true},
		{"", true},
		{"  ", true},
		{"N/A", true},
		{"On Time", true},
		{"none", true},
		{"Timelines met", true},
		{"5", false},
		{"daily", false},
		{"0.5", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gt.Value(t, s.IsZeroOccurrence(tt.input)).Equal(tt.want)
		})
	}
}

func TestScorer_Owner(t *testing.T) {
	draft := scoring.New(config.DraftPolicy())
	approve := scoring.New(config.ApprovePolicy())

	tests := []struct {
		name   string
		scorer *scoring.Scorer
		area   string
		want   string
	}{
		{"it area", draft, "IT Department", "Head of IT"},
		{"it is matched as a word", draft, "Audit", "Head of Internal Audit"},
		{"microfinance before finance", draft, "Microfinance Unit", "Head of Microfinance"},
		{"finance", draft, "Finance", "Chief Finance Officer"},
		{"loan", draft, "Loans", "Head of Credit"},
		{"unknown area", draft, "Marketing", "Department Head"},
		{"approve compliance first", approve, "Compliance and AML", "Chief Compliance Officer"},
		{"approve aml", approve, "AML Unit", "Money Laundering Reporting Officer"},
		{"approve recoveries", approve, "Recoveries", "Head of Recoveries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.scorer.Owner(tt.area)).Equal(tt.want)
		})
	}
}

func TestScorer_Coordinator(t *testing.T) {
	s := scoring.New(config.DraftPolicy())

	tests := []struct {
		text string
		want string
	}{
		{"Card fraud at branch", "Fraud Risk Coordinator"},
		{"Server down", "IT Risk Coordinator"},
		{"IT Department outage", "IT Risk Coordinator"},
		{"KYC incomplete", "Compliance Coordinator"},
		{"Compliance breach via system", "Compliance Coordinator"},
		{"Staff turnover", "HR Coordinator"},
		{"Customer complaints", "Customer Experience Coordinator"},
		{"Liquidity gap", "Treasury Risk Coordinator"},
		{"Nothing specific", "Risk & Compliance Coordinator"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			gt.Value(t, s.Coordinator(tt.text)).Equal(tt.want)
		})
	}
}

func TestScorer_Controls(t *testing.T) {
	s := scoring.New(config.DraftPolicy())

	gt.String(t, s.Controls("IT Department")).Contains("Access reviews")
	gt.String(t, s.Controls("Treasury")).Contains("Limit monitoring")
	gt.Value(t, s.Controls("Marketing")).Equal("Standard Controls")
}

func TestScorer_Residual(t *testing.T) {
	t.Run("draft copies inherent levels", func(t *testing.T) {
		s := scoring.New(config.DraftPolicy())
		p, i := s.Residual(types.LevelHigh, types.LevelVeryHigh)
		gt.Value(t, p).Equal(types.LevelHigh)
		gt.Value(t, i).Equal(types.LevelVeryHigh)
	})

	t.Run("approve reduces one notch", func(t *testing.T) {
		s := scoring.New(config.ApprovePolicy())
		p, i := s.Residual(types.LevelHigh, types.LevelVeryLow)
		gt.Value(t, p).Equal(types.LevelMedium)
		gt.Value(t, i).Equal(types.LevelVeryLow)
	})
}

func TestScorer_CustomPolicy(t *testing.T) {
	policy := config.DraftPolicy()
	policy.Owner = []config.KeywordRule{
		{Keywords: []string{"cards"}, Value: "Head of Cards"},
	}
	policy.ZeroOccurrence = []string{"nothing"}

	s := scoring.New(policy)
	gt.Value(t, s.Policy()).Equal(policy)
	gt.Value(t, s.Owner("Cards & Payments")).Equal("Head of Cards")
	gt.Value(t, s.Owner("IT Department")).Equal("Department Head")
	gt.Bool(t, s.IsZeroOccurrence("Nothing")).True()
	gt.Bool(t, s.IsZeroOccurrence("0")).False()
}

func TestScorer_PunctuatedKeywords(t *testing.T) {
	policy := config.DraftPolicy()
	policy.Owner = []config.KeywordRule{
		{Keywords: []string{"E-Banking"}, Value: "Head of Digital"},
		{Keywords: []string{" anti-money "}, Value: "MLRO"},
		{Keywords: []string{"--"}, Value: "never"},
	}

	s := scoring.New(policy)
	gt.Value(t, s.Owner("e-banking operations")).Equal("Head of Digital")
	gt.Value(t, s.Owner("E Banking")).Equal("Head of Digital")
	gt.Value(t, s.Owner("Anti-Money Laundering")).Equal("MLRO")
	gt.Value(t, s.Owner("semi-anti-moneyed")).Equal("Department Head")
	gt.Value(t, s.Owner("-- --")).Equal("Department Head")
}
