package service

import (
	"context"
	"fmt"

	"gazetteer-data/internal/domain"
	"gazetteer-data/internal/langsync"

	"go.uber.org/zap"
)

// LookupsSource supplies lookup snapshots to the wizard.
type LookupsSource interface {
	Lookups(ctx context.Context) (domain.LookupTables, error)
}

// WizardService runs the bilingual address wizard operations.
type WizardService struct {
	lookups LookupsSource
	events  EventPublisher
	logger  *zap.Logger
}

func NewWizardService(lookups LookupsSource, events EventPublisher, logger *zap.Logger) *WizardService {
	if events == nil {
		events = NopPublisher{}
	}
	return &WizardService{lookups: lookups, events: events, logger: logger}
}

// ReconcileRequest carries both language copies at the moment the user leaves
// the From tab. Eng/Alt are read for single addresses, EngRange/AltRange for ranges.
type ReconcileRequest struct {
	From     domain.Language        `json:"from"`
	IsRange  bool                   `json:"isRange"`
	Eng      domain.AddressFieldSet `json:"eng"`
	Alt      domain.AddressFieldSet `json:"alt"`
	EngRange domain.AddressRangeSet `json:"engRange"`
	AltRange domain.AddressRangeSet `json:"altRange"`
}

// ReconcileResponse holds the reconciled pair, the changed destination fields
// and the validation state of both copies.
type ReconcileResponse struct {
	Eng      *domain.AddressFieldSet `json:"eng,omitempty"`
	Alt      *domain.AddressFieldSet `json:"alt,omitempty"`
	EngRange *domain.AddressRangeSet `json:"engRange,omitempty"`
	AltRange *domain.AddressRangeSet `json:"altRange,omitempty"`
	Changed  []string                `json:"changed"`
	Errors   []FieldError            `json:"errors"`
}

func (s *WizardService) reconciler(ctx context.Context) (*langsync.Reconciler, error) {
	t, err := s.lookups.Lookups(ctx)
	if err != nil {
		return nil, err
	}
	return langsync.NewReconciler(langsync.NewTableLookups(t)), nil
}

// ReconcileOnTabChange synchronises the destination copy from the From copy.
func (s *WizardService) ReconcileOnTabChange(ctx context.Context, req ReconcileRequest) (*ReconcileResponse, error) {
	if req.From == "" {
		return nil, fmt.Errorf("from is required")
	}
	if !req.From.IsValid() {
		return nil, fmt.Errorf("from must be one of ENG, CYM, GAE")
	}

	r, err := s.reconciler(ctx)
	if err != nil {
		s.logger.Error("Failed to load lookups for reconcile", zap.String("from", string(req.From)), zap.Error(err))
		return nil, fmt.Errorf("failed to reconcile: %w", err)
	}

	resp := &ReconcileResponse{}
	if req.IsRange {
		out, changed := r.ReconcileRange(req.From, langsync.Pair[domain.AddressRangeSet]{Eng: req.EngRange, Alt: req.AltRange})
		resp.EngRange, resp.AltRange, resp.Changed = &out.Eng, &out.Alt, changed
		resp.Errors = append(validateRecord("engRange", out.Eng), validateRecord("altRange", out.Alt)...)
	} else {
		out, changed := r.ReconcileSingle(req.From, langsync.Pair[domain.AddressFieldSet]{Eng: req.Eng, Alt: req.Alt})
		resp.Eng, resp.Alt, resp.Changed = &out.Eng, &out.Alt, changed
		resp.Errors = append(validateRecord("eng", out.Eng), validateRecord("alt", out.Alt)...)
	}
	if resp.Changed == nil {
		resp.Changed = []string{}
	}

	if len(resp.Changed) > 0 {
		s.events.Publish(ctx, EventDataChanged, DataChangedEvent{
			From:    string(req.From),
			IsRange: req.IsRange,
			Changed: resp.Changed,
		})
	}
	s.events.Publish(ctx, EventErrorChanged, ErrorChangedEvent{Errors: resp.Errors})
	return resp, nil
}

// RebuildRequest asks for update's address list re-derived from reference's.
// Generate, when set, builds the reference list from its numeric range first.
type RebuildRequest struct {
	Reference domain.AddressRangeSet `json:"reference"`
	Update    domain.AddressRangeSet `json:"update"`
	Generate  bool                   `json:"generate"`
}

type RebuildResponse struct {
	AddressList []domain.AddressListEntry `json:"addressList"`
}

// RebuildAddressList regenerates the per-unit list of a range.
func (s *WizardService) RebuildAddressList(ctx context.Context, req RebuildRequest) (*RebuildResponse, error) {
	if !req.Update.Language.IsValid() {
		return nil, fmt.Errorf("update.language must be one of ENG, CYM, GAE")
	}

	r, err := s.reconciler(ctx)
	if err != nil {
		s.logger.Error("Failed to load lookups for address list", zap.Error(err))
		return nil, fmt.Errorf("failed to rebuild address list: %w", err)
	}

	ref := req.Reference
	if req.Generate {
		if ref.Language == "" {
			ref.Language = req.Update.Language
		}
		ref.AddressList = r.GenerateAddressList(ref)
	}
	list := r.RebuildAddressList(ref, req.Update)
	s.events.Publish(ctx, EventDataChanged, DataChangedEvent{
		From:    string(req.Update.Language),
		IsRange: true,
		Changed: []string{"addressList"},
	})
	return &RebuildResponse{AddressList: list}, nil
}

// ValidateRequest holds one record; IsRange selects which.
type ValidateRequest struct {
	IsRange bool                   `json:"isRange"`
	Single  domain.AddressFieldSet `json:"single"`
	Range   domain.AddressRangeSet `json:"range"`
}

type ValidateResponse struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// ValidateAddress reports field errors and emits error_changed.
func (s *WizardService) ValidateAddress(ctx context.Context, req ValidateRequest) (*ValidateResponse, error) {
	var errs []FieldError
	if req.IsRange {
		errs = validateRecord("", req.Range)
	} else {
		errs = validateRecord("", req.Single)
	}
	s.events.Publish(ctx, EventErrorChanged, ErrorChangedEvent{Errors: errs})
	return &ValidateResponse{Valid: len(errs) == 0, Errors: errs}, nil
}
