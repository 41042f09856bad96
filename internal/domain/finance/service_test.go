package finance

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeFinanceRepo struct {
	nextID       int64
	entries      map[int64]*Entry
	transactions map[int64]*Transaction

	createTransactionsErr error
}

func newFakeFinanceRepo() *fakeFinanceRepo {
	return &fakeFinanceRepo{
		nextID:       1,
		entries:      make(map[int64]*Entry),
		transactions: make(map[int64]*Transaction),
	}
}

func (r *fakeFinanceRepo) id() int64 {
	id := r.nextID
	r.nextID++
	return id
}

func (r *fakeFinanceRepo) Transaction(ctx context.Context, houseID int64, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeFinanceRepo) ListCurrencies(ctx context.Context, houseID int64) ([]Currency, error) {
	return nil, nil
}

func (r *fakeFinanceRepo) CreateCurrency(ctx context.Context, houseID int64, currency *Currency) error {
	currency.ID = r.id()
	return nil
}

func (r *fakeFinanceRepo) UpdateCurrency(ctx context.Context, houseID int64, currency *Currency) error {
	return nil
}

func (r *fakeFinanceRepo) DeleteCurrency(ctx context.Context, houseID, id int64) error { return nil }

func (r *fakeFinanceRepo) ListCategories(ctx context.Context, houseID int64) ([]Category, error) {
	return nil, nil
}

func (r *fakeFinanceRepo) CreateCategory(ctx context.Context, houseID int64, category *Category) error {
	category.ID = r.id()
	return nil
}

func (r *fakeFinanceRepo) UpdateCategory(ctx context.Context, houseID int64, category *Category) error {
	return nil
}

func (r *fakeFinanceRepo) DeleteCategory(ctx context.Context, houseID, id int64) error { return nil }

func (r *fakeFinanceRepo) ListCostCenters(ctx context.Context, houseID int64) ([]CostCenter, error) {
	return nil, nil
}

func (r *fakeFinanceRepo) CreateCostCenter(ctx context.Context, houseID int64, costCenter *CostCenter) error {
	costCenter.ID = r.id()
	return nil
}

func (r *fakeFinanceRepo) UpdateCostCenter(ctx context.Context, houseID int64, costCenter *CostCenter) error {
	return nil
}

func (r *fakeFinanceRepo) DeleteCostCenter(ctx context.Context, houseID, id int64) error { return nil }

func (r *fakeFinanceRepo) ListPayers(ctx context.Context, houseID int64) ([]Payer, error) {
	return nil, nil
}

func (r *fakeFinanceRepo) CreatePayer(ctx context.Context, houseID int64, payer *Payer) error {
	payer.ID = r.id()
	return nil
}

func (r *fakeFinanceRepo) UpdatePayer(ctx context.Context, houseID int64, payer *Payer) error {
	return nil
}

func (r *fakeFinanceRepo) DeletePayer(ctx context.Context, houseID, id int64) error { return nil }

func (r *fakeFinanceRepo) ListEntries(ctx context.Context, houseID int64) ([]Entry, error) {
	result := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, *entry)
	}
	return result, nil
}

func (r *fakeFinanceRepo) CreateEntry(ctx context.Context, houseID int64, entry *Entry) error {
	entry.ID = r.id()
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeFinanceRepo) DeleteEntry(ctx context.Context, houseID, id int64) error {
	if _, ok := r.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *fakeFinanceRepo) CreateTransactions(ctx context.Context, houseID int64, transactions []Transaction) error {
	if r.createTransactionsErr != nil {
		return r.createTransactionsErr
	}
	for i := range transactions {
		transactions[i].ID = r.id()
		stored := transactions[i]
		r.transactions[stored.ID] = &stored
	}
	return nil
}

func (r *fakeFinanceRepo) ListTransactions(ctx context.Context, houseID int64, filter TransactionFilter) ([]Transaction, error) {
	var result []Transaction
	for _, transaction := range r.transactions {
		if filter.Status != "" && transaction.Status != filter.Status {
			continue
		}
		if filter.EntryID != 0 && transaction.EntryID != filter.EntryID {
			continue
		}
		result = append(result, *transaction)
	}
	return result, nil
}

func (r *fakeFinanceRepo) GetTransaction(ctx context.Context, houseID, id int64) (*Transaction, error) {
	transaction, ok := r.transactions[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return transaction, nil
}

func (r *fakeFinanceRepo) MarkTransactionPaid(ctx context.Context, houseID, id int64) error {
	transaction, ok := r.transactions[id]
	if !ok {
		return ErrTransactionNotFound
	}
	now := time.Now().UTC()
	transaction.Status = StatusPaid
	transaction.PaidAt = &now
	return nil
}

func (r *fakeFinanceRepo) Summarize(ctx context.Context, houseID int64) (*Summary, error) {
	summary := &Summary{}
	for _, transaction := range r.transactions {
		if transaction.Status == StatusPaid {
			summary.PaidCents += transaction.AmountCents
		} else {
			summary.PendingCents += transaction.AmountCents
		}
	}
	return summary, nil
}

func validEntryInput() CreateEntryInput {
	return CreateEntryInput{
		Description:  "Groceries",
		AmountCents:  10000,
		CurrencyID:   1,
		CategoryID:   1,
		PayerID:      1,
		StartDate:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Installments: 1,
	}
}

func TestCreateEntrySingleInstallment(t *testing.T) {
	repo := newFakeFinanceRepo()
	svc := NewService(repo)

	entry, err := svc.CreateEntry(context.Background(), 1, validEntryInput())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	transactions, _ := repo.ListTransactions(context.Background(), 1, TransactionFilter{EntryID: entry.ID})
	if len(transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(transactions))
	}
	if transactions[0].AmountCents != 10000 {
		t.Fatalf("expected full amount, got %d", transactions[0].AmountCents)
	}
	if transactions[0].Status != StatusPending {
		t.Fatalf("expected pending, got %q", transactions[0].Status)
	}
}

func TestCreateEntryInstallmentSplitSumsExactly(t *testing.T) {
	repo := newFakeFinanceRepo()
	svc := NewService(repo)

	input := validEntryInput()
	input.AmountCents = 10000
	input.Installments = 3

	entry, err := svc.CreateEntry(context.Background(), 1, input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	transactions, _ := repo.ListTransactions(context.Background(), 1, TransactionFilter{EntryID: entry.ID})
	if len(transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(transactions))
	}

	var total int64
	byInstallment := make(map[int]Transaction, len(transactions))
	for _, transaction := range transactions {
		total += transaction.AmountCents
		byInstallment[transaction.Installment] = transaction
	}
	if total != input.AmountCents {
		t.Fatalf("installments must sum to the entry amount, got %d", total)
	}
	if byInstallment[1].AmountCents != 3333 || byInstallment[2].AmountCents != 3333 {
		t.Fatalf("expected even base amounts, got %d and %d", byInstallment[1].AmountCents, byInstallment[2].AmountCents)
	}
	if byInstallment[3].AmountCents != 3334 {
		t.Fatalf("rounding remainder belongs to the last installment, got %d", byInstallment[3].AmountCents)
	}
}

func TestCreateEntryInstallmentDueDatesAreMonthly(t *testing.T) {
	repo := newFakeFinanceRepo()
	svc := NewService(repo)

	input := validEntryInput()
	input.Installments = 3

	entry, err := svc.CreateEntry(context.Background(), 1, input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	transactions, _ := repo.ListTransactions(context.Background(), 1, TransactionFilter{EntryID: entry.ID})
	for _, transaction := range transactions {
		expected := input.StartDate.AddDate(0, transaction.Installment-1, 0)
		if !transaction.DueDate.Equal(expected) {
			t.Fatalf("installment %d: expected due %v, got %v", transaction.Installment, expected, transaction.DueDate)
		}
	}
}

func TestCreateEntryValidation(t *testing.T) {
	svc := NewService(newFakeFinanceRepo())

	cases := map[string]func(*CreateEntryInput){
		"empty description":     func(i *CreateEntryInput) { i.Description = " " },
		"zero amount":           func(i *CreateEntryInput) { i.AmountCents = 0 },
		"negative amount":       func(i *CreateEntryInput) { i.AmountCents = -5 },
		"zero installments":     func(i *CreateEntryInput) { i.Installments = 0 },
		"too many installments": func(i *CreateEntryInput) { i.Installments = maxInstallments + 1 },
		"zero start date":       func(i *CreateEntryInput) { i.StartDate = time.Time{} },
	}

	for name, mutate := range cases {
		input := validEntryInput()
		mutate(&input)
		if _, err := svc.CreateEntry(context.Background(), 1, input); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestPayTransaction(t *testing.T) {
	repo := newFakeFinanceRepo()
	svc := NewService(repo)

	entry, err := svc.CreateEntry(context.Background(), 1, validEntryInput())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	transactions, _ := repo.ListTransactions(context.Background(), 1, TransactionFilter{EntryID: entry.ID})

	if err := svc.PayTransaction(context.Background(), 1, transactions[0].ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	err = svc.PayTransaction(context.Background(), 1, transactions[0].ID)
	if !errors.Is(err, ErrTransactionAlreadyPaid) {
		t.Fatalf("expected ErrTransactionAlreadyPaid, got %v", err)
	}
}

func TestPayTransactionNotFound(t *testing.T) {
	svc := NewService(newFakeFinanceRepo())
	err := svc.PayTransaction(context.Background(), 1, 99)
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestListTransactionsRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newFakeFinanceRepo())
	if _, err := svc.ListTransactions(context.Background(), 1, TransactionFilter{Status: "overdue"}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestCreateCurrencyNormalizesCode(t *testing.T) {
	svc := NewService(newFakeFinanceRepo())
	currency, err := svc.CreateCurrency(context.Background(), 1, " eur ", "€")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if currency.Code != "EUR" {
		t.Fatalf("expected upper-cased code, got %q", currency.Code)
	}
}

func TestUpdateCurrencyValidatesCode(t *testing.T) {
	svc := NewService(newFakeFinanceRepo())

	if _, err := svc.UpdateCurrency(context.Background(), 1, 1, "EURO", "€"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	currency, err := svc.UpdateCurrency(context.Background(), 1, 1, "usd", "$")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if currency.Code != "USD" {
		t.Fatalf("expected upper-cased code, got %q", currency.Code)
	}
}

func TestUpdateCategoryRejectsSelfParent(t *testing.T) {
	svc := NewService(newFakeFinanceRepo())

	self := int64(7)
	_, err := svc.UpdateCategory(context.Background(), 1, 7, "Food", &self)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	parent := int64(3)
	category, err := svc.UpdateCategory(context.Background(), 1, 7, "Food", &parent)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if category.ParentID == nil || *category.ParentID != parent {
		t.Fatalf("expected parent %d, got %v", parent, category.ParentID)
	}
}
