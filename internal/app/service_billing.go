package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/export"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/util"
)

type ProformaInput struct {
	ClientID string               `json:"clientId"`
	Status   string               `json:"status"`
	Notes    string               `json:"notes"`
	Items    []store.ProformaItem `json:"items"`
}

type ExpenseInput struct {
	Description string    `json:"description"`
	AmountCents int64     `json:"amountCents"`
	Category    string    `json:"category"`
	IncurredOn  time.Time `json:"incurredOn"`
}

func (s *Service) ListProformas(ctx context.Context, session Session) ([]store.Proforma, error) {
	perm, err := s.permissionFor(ctx, session, FeatureProformas)
	if err != nil {
		return nil, err
	}
	if !perm.CanView {
		return nil, errForbidden
	}
	return s.store.ListProformas(ctx)
}

func (s *Service) GetProforma(ctx context.Context, session Session, proformaID string) (store.Proforma, error) {
	perm, err := s.permissionFor(ctx, session, FeatureProformas)
	if err != nil {
		return store.Proforma{}, err
	}
	if !perm.CanView {
		return store.Proforma{}, errForbidden
	}
	return s.store.GetProforma(ctx, proformaID)
}

func (s *Service) CreateProforma(ctx context.Context, session Session, input ProformaInput) (store.Proforma, error) {
	perm, err := s.permissionFor(ctx, session, FeatureProformas)
	if err != nil {
		return store.Proforma{}, err
	}
	if !perm.CanManage {
		return store.Proforma{}, errForbidden
	}
	proforma, err := s.proformaFromInput(ctx, input)
	if err != nil {
		return store.Proforma{}, err
	}
	number, err := s.store.NextProformaNumber(ctx)
	if err != nil {
		return store.Proforma{}, err
	}
	proforma.ID = util.NewID("pfm")
	proforma.Number = number
	proforma.CreatedBy = session.UserID
	if err := s.store.InsertProforma(ctx, proforma); err != nil {
		return store.Proforma{}, err
	}
	return s.store.GetProforma(ctx, proforma.ID)
}

func (s *Service) UpdateProforma(ctx context.Context, session Session, proformaID string, input ProformaInput) (store.Proforma, error) {
	perm, err := s.permissionFor(ctx, session, FeatureProformas)
	if err != nil {
		return store.Proforma{}, err
	}
	if !perm.CanManage {
		return store.Proforma{}, errForbidden
	}
	existing, err := s.store.GetProforma(ctx, proformaID)
	if err != nil {
		return store.Proforma{}, err
	}
	proforma, err := s.proformaFromInput(ctx, input)
	if err != nil {
		return store.Proforma{}, err
	}
	proforma.ID = proformaID
	proforma.Number = existing.Number
	if err := s.store.UpdateProforma(ctx, proforma); err != nil {
		return store.Proforma{}, err
	}
	return s.store.GetProforma(ctx, proformaID)
}

func (s *Service) proformaFromInput(ctx context.Context, input ProformaInput) (store.Proforma, error) {
	if len(input.Items) == 0 {
		return store.Proforma{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "at least one line item is required", nil)
	}
	status := input.Status
	if status == "" {
		status = "draft"
	}
	if _, ok := allowedProformaStatuses[status]; !ok {
		return store.Proforma{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown status %q", status), nil)
	}
	if _, err := s.store.GetClient(ctx, input.ClientID); err != nil {
		return store.Proforma{}, err
	}

	var total int64
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return store.Proforma{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("item %d: quantity must be positive", i), nil)
		}
		if item.UnitPriceCents < 0 {
			return store.Proforma{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("item %d: unit price cannot be negative", i), nil)
		}
		total += int64(item.Quantity) * item.UnitPriceCents
	}

	return store.Proforma{
		ClientID:   input.ClientID,
		Status:     status,
		Notes:      input.Notes,
		Items:      input.Items,
		TotalCents: total,
	}, nil
}

func (s *Service) DeleteProforma(ctx context.Context, session Session, proformaID string) error {
	perm, err := s.permissionFor(ctx, session, FeatureProformas)
	if err != nil {
		return err
	}
	if !perm.CanDelete {
		return errForbidden
	}
	if _, err := s.store.GetProforma(ctx, proformaID); err != nil {
		return err
	}
	return s.store.DeleteProforma(ctx, proformaID)
}

// ExportProformaPDF renders the proforma through headless Chrome.
func (s *Service) ExportProformaPDF(ctx context.Context, session Session, proformaID string) (*export.Result, error) {
	perm, err := s.permissionFor(ctx, session, FeatureProformas)
	if err != nil {
		return nil, err
	}
	if !perm.CanView {
		return nil, errForbidden
	}
	if s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available", nil)
	}
	proforma, err := s.store.GetProforma(ctx, proformaID)
	if err != nil {
		return nil, err
	}
	creator, err := s.store.GetUserByID(ctx, proforma.CreatedBy)
	issuedBy := proforma.CreatedBy
	if err == nil {
		issuedBy = creator.Username
	}

	items := make([]export.TemplateItem, 0, len(proforma.Items))
	for _, item := range proforma.Items {
		items = append(items, export.TemplateItem{
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: int64(item.Quantity) * item.UnitPriceCents,
		})
	}
	return s.exporter.ProformaPDF(export.TemplateData{
		Number:     proforma.Number,
		ClientName: proforma.ClientName,
		Status:     proforma.Status,
		Notes:      proforma.Notes,
		Items:      items,
		TotalCents: proforma.TotalCents,
		IssuedBy:   issuedBy,
		IssuedAt:   proforma.CreatedAt,
	})
}

func (s *Service) ListExpenses(ctx context.Context, session Session, limit int) ([]store.Expense, error) {
	perm, err := s.permissionFor(ctx, session, FeatureExpenses)
	if err != nil {
		return nil, err
	}
	if !perm.CanView {
		return nil, errForbidden
	}
	return s.store.ListExpenses(ctx, limit)
}

func (s *Service) GetExpense(ctx context.Context, session Session, expenseID string) (store.Expense, error) {
	perm, err := s.permissionFor(ctx, session, FeatureExpenses)
	if err != nil {
		return store.Expense{}, err
	}
	if !perm.CanView {
		return store.Expense{}, errForbidden
	}
	return s.store.GetExpense(ctx, expenseID)
}

func (s *Service) CreateExpense(ctx context.Context, session Session, input ExpenseInput) (store.Expense, error) {
	perm, err := s.permissionFor(ctx, session, FeatureExpenses)
	if err != nil {
		return store.Expense{}, err
	}
	if !perm.CanManage {
		return store.Expense{}, errForbidden
	}
	expense, err := expenseFromInput(input)
	if err != nil {
		return store.Expense{}, err
	}
	expense.ID = util.NewID("exp")
	expense.RecordedBy = session.UserID
	if err := s.store.InsertExpense(ctx, expense); err != nil {
		return store.Expense{}, err
	}
	return s.store.GetExpense(ctx, expense.ID)
}

func (s *Service) UpdateExpense(ctx context.Context, session Session, expenseID string, input ExpenseInput) (store.Expense, error) {
	perm, err := s.permissionFor(ctx, session, FeatureExpenses)
	if err != nil {
		return store.Expense{}, err
	}
	if !perm.CanManage {
		return store.Expense{}, errForbidden
	}
	existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return store.Expense{}, err
	}
	expense, err := expenseFromInput(input)
	if err != nil {
		return store.Expense{}, err
	}
	expense.ID = expenseID
	expense.RecordedBy = existing.RecordedBy
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return store.Expense{}, err
	}
	return s.store.GetExpense(ctx, expenseID)
}

func expenseFromInput(input ExpenseInput) (store.Expense, error) {
	if input.Description == "" {
		return store.Expense{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "description is required", nil)
	}
	if input.AmountCents <= 0 {
		return store.Expense{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "amount must be positive", nil)
	}
	if input.IncurredOn.IsZero() {
		return store.Expense{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "incurredOn is required", nil)
	}
	category := input.Category
	if category == "" {
		category = "general"
	}
	return store.Expense{
		Description: input.Description,
		AmountCents: input.AmountCents,
		Category:    category,
		IncurredOn:  input.IncurredOn,
	}, nil
}

func (s *Service) DeleteExpense(ctx context.Context, session Session, expenseID string) error {
	perm, err := s.permissionFor(ctx, session, FeatureExpenses)
	if err != nil {
		return err
	}
	if !perm.CanDelete {
		return errForbidden
	}
	if _, err := s.store.GetExpense(ctx, expenseID); err != nil {
		return err
	}
	return s.store.DeleteExpense(ctx, expenseID)
}

func (s *Service) MonthlyExpenseSummary(ctx context.Context, session Session, month time.Time) ([]store.CategoryTotal, error) {
	perm, err := s.permissionFor(ctx, session, FeatureExpenses)
	if err != nil {
		return nil, err
	}
	if !perm.CanView {
		return nil, errForbidden
	}
	return s.store.MonthlyExpenseSummary(ctx, month)
}
