package finance

import "context"

// Repository is backed by one tenant database per house; every call carries
// the house id so the implementation can resolve the right pool.
type Repository interface {
	Transaction(ctx context.Context, houseID int64, fn func(Repository) error) error

	ListCurrencies(ctx context.Context, houseID int64) ([]Currency, error)
	CreateCurrency(ctx context.Context, houseID int64, currency *Currency) error
	UpdateCurrency(ctx context.Context, houseID int64, currency *Currency) error
	DeleteCurrency(ctx context.Context, houseID, id int64) error

	ListCategories(ctx context.Context, houseID int64) ([]Category, error)
	CreateCategory(ctx context.Context, houseID int64, category *Category) error
	UpdateCategory(ctx context.Context, houseID int64, category *Category) error
	DeleteCategory(ctx context.Context, houseID, id int64) error

	ListCostCenters(ctx context.Context, houseID int64) ([]CostCenter, error)
	CreateCostCenter(ctx context.Context, houseID int64, costCenter *CostCenter) error
	UpdateCostCenter(ctx context.Context, houseID int64, costCenter *CostCenter) error
	DeleteCostCenter(ctx context.Context, houseID, id int64) error

	ListPayers(ctx context.Context, houseID int64) ([]Payer, error)
	CreatePayer(ctx context.Context, houseID int64, payer *Payer) error
	UpdatePayer(ctx context.Context, houseID int64, payer *Payer) error
	DeletePayer(ctx context.Context, houseID, id int64) error

	ListEntries(ctx context.Context, houseID int64) ([]Entry, error)
	CreateEntry(ctx context.Context, houseID int64, entry *Entry) error
	DeleteEntry(ctx context.Context, houseID, id int64) error

	CreateTransactions(ctx context.Context, houseID int64, transactions []Transaction) error
	ListTransactions(ctx context.Context, houseID int64, filter TransactionFilter) ([]Transaction, error)
	GetTransaction(ctx context.Context, houseID, id int64) (*Transaction, error)
	MarkTransactionPaid(ctx context.Context, houseID, id int64) error

	Summarize(ctx context.Context, houseID int64) (*Summary, error)
}
