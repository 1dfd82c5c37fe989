package service

import (
	"context"
	"strings"
	"testing"

	"gazetteer-data/internal/domain"
	"gazetteer-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestWizard(t *testing.T) (*WizardService, *recordingPublisher) {
	t.Helper()
	lookups := NewLookupService(repository.NewMemoryLookupsRepository(testTables()), nil, 0, zap.NewNop())
	events := &recordingPublisher{}
	return NewWizardService(lookups, events, zap.NewNop()), events
}

func TestReconcileOnTabChange_MillHouse(t *testing.T) {
	svc, events := newTestWizard(t)

	resp, err := svc.ReconcileOnTabChange(context.Background(), ReconcileRequest{
		From: domain.LanguageEnglish,
		Eng: domain.AddressFieldSet{
			Language:    domain.LanguageEnglish,
			Usrn:        100,
			PostcodeRef: 5,
			PostTownRef: 30,
			PaoText:     "MILL HOUSE",
		},
		Alt: domain.AddressFieldSet{Language: domain.LanguageWelsh},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Alt)
	assert.Equal(t, int64(100), resp.Alt.Usrn)
	assert.Equal(t, int64(31), resp.Alt.PostTownRef)
	assert.Equal(t, "MILL HOUSE", resp.Alt.PaoText)
	assert.ElementsMatch(t, []string{"usrn", "postcodeRef", "paoText", "postTownRef"}, resp.Changed)
	assert.Empty(t, resp.Errors)
	assert.Nil(t, resp.EngRange)

	require.Len(t, events.ofType(EventDataChanged), 1)
	assert.Equal(t, []string{"usrn", "postcodeRef", "paoText", "postTownRef"}, events.ofType(EventDataChanged)[0].(DataChangedEvent).Changed)
	assert.Len(t, events.ofType(EventErrorChanged), 1)
}

func TestReconcileOnTabChange_NoChangeSkipsDataEvent(t *testing.T) {
	svc, events := newTestWizard(t)
	rec := domain.AddressFieldSet{Language: domain.LanguageEnglish, Usrn: 100}
	alt := rec
	alt.Language = domain.LanguageWelsh

	resp, err := svc.ReconcileOnTabChange(context.Background(), ReconcileRequest{From: domain.LanguageWelsh, Eng: rec, Alt: alt})
	require.NoError(t, err)
	assert.Equal(t, []string{}, resp.Changed)
	assert.Empty(t, events.ofType(EventDataChanged))
}

func TestReconcileOnTabChange_Range(t *testing.T) {
	svc, _ := newTestWizard(t)
	eng := domain.AddressRangeSet{
		Language:    domain.LanguageEnglish,
		Usrn:        100,
		PostcodeRef: 5,
		PostTownRef: 30,
		RangeType:   domain.RangeTypeSao,
		RangeText:   "Flat",
		AddressList: []domain.AddressListEntry{{SaoStartNumber: 1, SaoText: "Flat"}},
	}
	resp, err := svc.ReconcileOnTabChange(context.Background(), ReconcileRequest{
		From:     domain.LanguageEnglish,
		IsRange:  true,
		EngRange: eng,
		AltRange: domain.AddressRangeSet{Language: domain.LanguageWelsh, RangeText: "Fflat"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.AltRange)
	require.Len(t, resp.AltRange.AddressList, 1)
	assert.Equal(t, "Fflat", resp.AltRange.AddressList[0].SaoText)
	assert.Contains(t, resp.AltRange.AddressList[0].Address, "Stryd Fawr")
	assert.Contains(t, resp.Changed, "addressList")
}

func TestReconcileOnTabChange_ReportsFieldErrors(t *testing.T) {
	svc, _ := newTestWizard(t)
	resp, err := svc.ReconcileOnTabChange(context.Background(), ReconcileRequest{
		From: domain.LanguageEnglish,
		Eng:  domain.AddressFieldSet{Language: domain.LanguageEnglish, SaoStartSuffix: "ab"},
		Alt:  domain.AddressFieldSet{},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Errors, FieldError{Field: "eng.saoStartSuffix", Message: "must be exactly 1 character(s)"})
	assert.Contains(t, resp.Errors, FieldError{Field: "alt.language", Message: "is required"})
}

func TestReconcileOnTabChange_RequestValidation(t *testing.T) {
	svc, _ := newTestWizard(t)
	_, err := svc.ReconcileOnTabChange(context.Background(), ReconcileRequest{})
	assert.EqualError(t, err, "from is required")

	_, err = svc.ReconcileOnTabChange(context.Background(), ReconcileRequest{From: "FRA"})
	assert.EqualError(t, err, "from must be one of ENG, CYM, GAE")
}

func TestRebuildAddressList_Generate(t *testing.T) {
	svc, _ := newTestWizard(t)
	ref := domain.AddressRangeSet{
		Language:         domain.LanguageEnglish,
		Usrn:             100,
		PostcodeRef:      5,
		PostTownRef:      30,
		RangeType:        domain.RangeTypeSao,
		RangeText:        "Flat",
		RangeStartNumber: 1,
		RangeEndNumber:   3,
		Numbering:        domain.NumberingConsecutive,
	}
	update := ref
	update.Language = domain.LanguageWelsh
	update.PostTownRef = 31
	update.RangeText = "Fflat"

	resp, err := svc.RebuildAddressList(context.Background(), RebuildRequest{Reference: ref, Update: update, Generate: true})
	require.NoError(t, err)
	require.Len(t, resp.AddressList, 3)
	assert.Equal(t, "Fflat, 2", resp.AddressList[1].MapLabel)
	assert.Equal(t, "Fflat, 2, Stryd Fawr, Caerdydd, CF10 1AA", resp.AddressList[1].Address)
}

func TestRebuildAddressList_RequiresLanguage(t *testing.T) {
	svc, _ := newTestWizard(t)
	_, err := svc.RebuildAddressList(context.Background(), RebuildRequest{})
	assert.Error(t, err)
}

func TestValidateAddress(t *testing.T) {
	svc, events := newTestWizard(t)

	resp, err := svc.ValidateAddress(context.Background(), ValidateRequest{
		IsRange: true,
		Range: domain.AddressRangeSet{
			Language:         domain.LanguageGaelic,
			RangeStartNumber: 10,
			RangeEndNumber:   5,
			AddressList:      []domain.AddressListEntry{{SaoText: strings.Repeat("x", 91)}},
		},
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Errors, FieldError{Field: "rangeEndNumber", Message: "must not be less than rangeStartNumber"})
	assert.Contains(t, resp.Errors, FieldError{Field: "addressList[0].saoText", Message: "must be at most 90 characters"})
	assert.Len(t, events.ofType(EventErrorChanged), 1)

	resp, err = svc.ValidateAddress(context.Background(), ValidateRequest{
		Single: domain.AddressFieldSet{Language: domain.LanguageWelsh, PaoStartNumber: 12},
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.Equal(t, []FieldError{}, resp.Errors)
}
