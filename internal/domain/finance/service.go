package finance

import (
	"context"
	"fmt"
	"strings"
)

const maxInstallments = 120

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListCurrencies(ctx context.Context, houseID int64) ([]Currency, error) {
	return s.repo.ListCurrencies(ctx, houseID)
}

func (s *Service) CreateCurrency(ctx context.Context, houseID int64, code, symbol string) (*Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	symbol = strings.TrimSpace(symbol)
	if len(code) != 3 {
		return nil, fmt.Errorf("%w: currency code must be 3 letters", ErrValidation)
	}
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrValidation)
	}

	currency := Currency{Code: code, Symbol: symbol}
	if err := s.repo.CreateCurrency(ctx, houseID, &currency); err != nil {
		return nil, err
	}
	return &currency, nil
}

func (s *Service) UpdateCurrency(ctx context.Context, houseID, id int64, code, symbol string) (*Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	symbol = strings.TrimSpace(symbol)
	if len(code) != 3 {
		return nil, fmt.Errorf("%w: currency code must be 3 letters", ErrValidation)
	}
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrValidation)
	}

	currency := Currency{ID: id, Code: code, Symbol: symbol}
	if err := s.repo.UpdateCurrency(ctx, houseID, &currency); err != nil {
		return nil, err
	}
	return &currency, nil
}

func (s *Service) DeleteCurrency(ctx context.Context, houseID, id int64) error {
	return s.repo.DeleteCurrency(ctx, houseID, id)
}

func (s *Service) ListCategories(ctx context.Context, houseID int64) ([]Category, error) {
	return s.repo.ListCategories(ctx, houseID)
}

func (s *Service) CreateCategory(ctx context.Context, houseID int64, name string, parentID *int64) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	category := Category{Name: name, ParentID: parentID}
	if err := s.repo.CreateCategory(ctx, houseID, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, houseID, id int64, name string, parentID *int64) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if parentID != nil && *parentID == id {
		return nil, fmt.Errorf("%w: category cannot be its own parent", ErrValidation)
	}

	category := Category{ID: id, Name: name, ParentID: parentID}
	if err := s.repo.UpdateCategory(ctx, houseID, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, houseID, id int64) error {
	return s.repo.DeleteCategory(ctx, houseID, id)
}

func (s *Service) ListCostCenters(ctx context.Context, houseID int64) ([]CostCenter, error) {
	return s.repo.ListCostCenters(ctx, houseID)
}

func (s *Service) CreateCostCenter(ctx context.Context, houseID int64, name, description string) (*CostCenter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	costCenter := CostCenter{Name: name}
	if description = strings.TrimSpace(description); description != "" {
		costCenter.Description = &description
	}
	if err := s.repo.CreateCostCenter(ctx, houseID, &costCenter); err != nil {
		return nil, err
	}
	return &costCenter, nil
}

func (s *Service) UpdateCostCenter(ctx context.Context, houseID, id int64, name, description string) (*CostCenter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	costCenter := CostCenter{ID: id, Name: name}
	if description = strings.TrimSpace(description); description != "" {
		costCenter.Description = &description
	}
	if err := s.repo.UpdateCostCenter(ctx, houseID, &costCenter); err != nil {
		return nil, err
	}
	return &costCenter, nil
}

func (s *Service) DeleteCostCenter(ctx context.Context, houseID, id int64) error {
	return s.repo.DeleteCostCenter(ctx, houseID, id)
}

func (s *Service) ListPayers(ctx context.Context, houseID int64) ([]Payer, error) {
	return s.repo.ListPayers(ctx, houseID)
}

func (s *Service) CreatePayer(ctx context.Context, houseID int64, name string, userID *int64) (*Payer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	payer := Payer{Name: name, UserID: userID}
	if err := s.repo.CreatePayer(ctx, houseID, &payer); err != nil {
		return nil, err
	}
	return &payer, nil
}

func (s *Service) UpdatePayer(ctx context.Context, houseID, id int64, name string, userID *int64) (*Payer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	payer := Payer{ID: id, Name: name, UserID: userID}
	if err := s.repo.UpdatePayer(ctx, houseID, &payer); err != nil {
		return nil, err
	}
	return &payer, nil
}

func (s *Service) DeletePayer(ctx context.Context, houseID, id int64) error {
	return s.repo.DeletePayer(ctx, houseID, id)
}

func (s *Service) ListEntries(ctx context.Context, houseID int64) ([]Entry, error) {
	return s.repo.ListEntries(ctx, houseID)
}

// CreateEntry records a finance entry and generates one pending transaction
// per installment. The amount is split evenly in cents with the rounding
// remainder on the last installment, so the installments always sum to the
// entry amount.
func (s *Service) CreateEntry(ctx context.Context, houseID int64, input CreateEntryInput) (*Entry, error) {
	input.Description = strings.TrimSpace(input.Description)
	if input.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if input.Installments < 1 || input.Installments > maxInstallments {
		return nil, fmt.Errorf("%w: installments must be between 1 and %d", ErrValidation, maxInstallments)
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrValidation)
	}

	entry := Entry{
		Description:  input.Description,
		AmountCents:  input.AmountCents,
		Income:       input.Income,
		CurrencyID:   input.CurrencyID,
		CategoryID:   input.CategoryID,
		CostCenterID: input.CostCenterID,
		PayerID:      input.PayerID,
		StartDate:    input.StartDate,
		Installments: input.Installments,
	}

	err := s.repo.Transaction(ctx, houseID, func(tx Repository) error {
		if err := tx.CreateEntry(ctx, houseID, &entry); err != nil {
			return err
		}
		return tx.CreateTransactions(ctx, houseID, buildInstallments(&entry))
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) DeleteEntry(ctx context.Context, houseID, id int64) error {
	return s.repo.DeleteEntry(ctx, houseID, id)
}

func (s *Service) ListTransactions(ctx context.Context, houseID int64, filter TransactionFilter) ([]Transaction, error) {
	if filter.Status != "" && filter.Status != StatusPending && filter.Status != StatusPaid {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, filter.Status)
	}
	return s.repo.ListTransactions(ctx, houseID, filter)
}

func (s *Service) PayTransaction(ctx context.Context, houseID, id int64) error {
	transaction, err := s.repo.GetTransaction(ctx, houseID, id)
	if err != nil {
		return err
	}
	if transaction.Status == StatusPaid {
		return ErrTransactionAlreadyPaid
	}
	return s.repo.MarkTransactionPaid(ctx, houseID, id)
}

func (s *Service) Summarize(ctx context.Context, houseID int64) (*Summary, error) {
	return s.repo.Summarize(ctx, houseID)
}

func buildInstallments(entry *Entry) []Transaction {
	count := entry.Installments
	base := entry.AmountCents / int64(count)
	remainder := entry.AmountCents - base*int64(count)

	transactions := make([]Transaction, 0, count)
	for i := 0; i < count; i++ {
		amount := base
		if i == count-1 {
			amount += remainder
		}
		transactions = append(transactions, Transaction{
			EntryID:     entry.ID,
			Installment: i + 1,
			AmountCents: amount,
			DueDate:     entry.StartDate.AddDate(0, i, 0),
			Status:      StatusPending,
		})
	}
	return transactions
}
