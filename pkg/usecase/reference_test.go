package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/repository/memory"
	"github.com/secmon-lab/oprisk/pkg/usecase"
)

func TestReferencePrefix(t *testing.T) {
	testCases := []struct {
		area   string
		expect string
	}{
		{area: "IT Department", expect: "IT"},
		{area: "Microfinance", expect: "MICR"},
		{area: "  credit & loans", expect: "CRED"},
		{area: "- HR", expect: "HR"},
		{area: "", expect: "GEN"},
		{area: "***", expect: "GEN"},
	}

	for _, tc := range testCases {
		t.Run(tc.area, func(t *testing.T) {
			gt.Value(t, usecase.ReferencePrefix(tc.area)).Equal(tc.expect)
		})
	}
}

func TestBaseReferenceID(t *testing.T) {
	gt.Value(t, usecase.BaseReferenceID("IT Department", 1)).Equal("RISK-IT-001")
	gt.Value(t, usecase.BaseReferenceID("Treasury", 12)).Equal("RISK-TREA-012")
	gt.Value(t, usecase.BaseReferenceID("", 1000)).Equal("RISK-GEN-1000")
}

func TestUniqueReferenceID(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	ref, err := usecase.UniqueReferenceID(ctx, repo.Risk(), "RISK-IT-001")
	gt.NoError(t, err).Required()
	gt.Value(t, ref).Equal("RISK-IT-001")

	_, err = repo.Risk().Create(ctx, &model.Risk{ReferenceID: "RISK-IT-001", Description: "Server failure"})
	gt.NoError(t, err).Required()

	ref, err = usecase.UniqueReferenceID(ctx, repo.Risk(), "RISK-IT-001")
	gt.NoError(t, err).Required()
	gt.Value(t, ref).Equal("RISK-IT-001-1")

	_, err = repo.Risk().Create(ctx, &model.Risk{ReferenceID: "RISK-IT-001-1", Description: "Network failure"})
	gt.NoError(t, err).Required()

	ref, err = usecase.UniqueReferenceID(ctx, repo.Risk(), "RISK-IT-001")
	gt.NoError(t, err).Required()
	gt.Value(t, ref).Equal("RISK-IT-001-2")
}
