package finance

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	financedomain "casa360/internal/domain/finance"
)

// Pools resolves the tenant database pool for one house.
type Pools interface {
	House(ctx context.Context, houseID int64) (*gorm.DB, error)
}

// PostgresRepository issues finance queries against per-house tenant
// databases resolved through the pool registry.
type PostgresRepository struct {
	pools Pools
	tx    *gorm.DB
}

func NewPostgres(pools Pools) *PostgresRepository {
	return &PostgresRepository{pools: pools}
}

func (r *PostgresRepository) conn(ctx context.Context, houseID int64) (*gorm.DB, error) {
	if r.tx != nil {
		return r.tx, nil
	}
	pool, err := r.pools.House(ctx, houseID)
	if err != nil {
		return nil, err
	}
	return pool.WithContext(ctx), nil
}

func (r *PostgresRepository) Transaction(ctx context.Context, houseID int64, fn func(financedomain.Repository) error) error {
	pool, err := r.pools.House(ctx, houseID)
	if err != nil {
		return err
	}
	return pool.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{pools: r.pools, tx: tx})
	})
}

func (r *PostgresRepository) ListCurrencies(ctx context.Context, houseID int64) ([]financedomain.Currency, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}
	var currencies []financedomain.Currency
	if err := conn.Order("code asc").Find(&currencies).Error; err != nil {
		return nil, err
	}
	return currencies, nil
}

func (r *PostgresRepository) CreateCurrency(ctx context.Context, houseID int64, currency *financedomain.Currency) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	return conn.Create(currency).Error
}

func (r *PostgresRepository) UpdateCurrency(ctx context.Context, houseID int64, currency *financedomain.Currency) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	result := conn.Model(&financedomain.Currency{}).Where("id = ?", currency.ID).
		Select("code", "symbol").Updates(currency)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return financedomain.ErrCurrencyNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteCurrency(ctx context.Context, houseID, id int64) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	result := conn.Delete(&financedomain.Currency{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return financedomain.ErrCurrencyNotFound
	}
	return nil
}

func (r *PostgresRepository) ListCategories(ctx context.Context, houseID int64) ([]financedomain.Category, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}
	var categories []financedomain.Category
	if err := conn.Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, houseID int64, category *financedomain.Category) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	return conn.Create(category).Error
}

func (r *PostgresRepository) UpdateCategory(ctx context.Context, houseID int64, category *financedomain.Category) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	result := conn.Model(&financedomain.Category{}).Where("id = ?", category.ID).
		Select("name", "parent_id").Updates(category)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return financedomain.ErrCategoryNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteCategory(ctx context.Context, houseID, id int64) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	result := conn.Delete(&financedomain.Category{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return financedomain.ErrCategoryNotFound
	}
	return nil
}

func (r *PostgresRepository) ListCostCenters(ctx context.Context, houseID int64) ([]financedomain.CostCenter, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}
	var costCenters []financedomain.CostCenter
	if err := conn.Order("name asc").Find(&costCenters).Error; err != nil {
		return nil, err
	}
	return costCenters, nil
}

func (r *PostgresRepository) CreateCostCenter(ctx context.Context, houseID int64, costCenter *financedomain.CostCenter) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	return conn.Create(costCenter).Error
}

func (r *PostgresRepository) UpdateCostCenter(ctx context.Context, houseID int64, costCenter *financedomain.CostCenter) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	result := conn.Model(&financedomain.CostCenter{}).Where("id = ?", costCenter.ID).
		Select("name", "description").Updates(costCenter)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return financedomain.ErrCostCenterNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteCostCenter(ctx context.Context, houseID, id int64) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	result := conn.Delete(&financedomain.CostCenter{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return financedomain.ErrCostCenterNotFound
	}
	return nil
}

func (r *PostgresRepository) ListPayers(ctx context.Context, houseID int64) ([]financedomain.Payer, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}
	var payers []financedomain.Payer
	if err := conn.Order("name asc").Find(&payers).Error; err != nil {
		return nil, err
	}
	return payers, nil
}

func (r *PostgresRepository) CreatePayer(ctx context.Context, houseID int64, payer *financedomain.Payer) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	return conn.Create(payer).Error
}

func (r *PostgresRepository) UpdatePayer(ctx context.Context, houseID int64, payer *financedomain.Payer) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	result := conn.Model(&financedomain.Payer{}).Where("id = ?", payer.ID).
		Select("name", "user_id").Updates(payer)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return financedomain.ErrPayerNotFound
	}
	return nil
}

func (r *PostgresRepository) DeletePayer(ctx context.Context, houseID, id int64) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	result := conn.Delete(&financedomain.Payer{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return financedomain.ErrPayerNotFound
	}
	return nil
}

func (r *PostgresRepository) ListEntries(ctx context.Context, houseID int64) ([]financedomain.Entry, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}
	var entries []financedomain.Entry
	if err := conn.Order("created_at desc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PostgresRepository) CreateEntry(ctx context.Context, houseID int64, entry *financedomain.Entry) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	return conn.Create(entry).Error
}

func (r *PostgresRepository) DeleteEntry(ctx context.Context, houseID, id int64) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&financedomain.Transaction{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&financedomain.Entry{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return financedomain.ErrEntryNotFound
		}
		return nil
	})
}

func (r *PostgresRepository) CreateTransactions(ctx context.Context, houseID int64, transactions []financedomain.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	return conn.Create(&transactions).Error
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, houseID int64, filter financedomain.TransactionFilter) ([]financedomain.Transaction, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}
	query := conn.Order("due_date asc")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.EntryID != 0 {
		query = query.Where("entry_id = ?", filter.EntryID)
	}
	var transactions []financedomain.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *PostgresRepository) GetTransaction(ctx context.Context, houseID, id int64) (*financedomain.Transaction, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}
	var transaction financedomain.Transaction
	if err := conn.First(&transaction, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, financedomain.ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *PostgresRepository) MarkTransactionPaid(ctx context.Context, houseID, id int64) error {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return err
	}
	result := conn.Model(&financedomain.Transaction{}).
		Where("id = ? AND status = ?", id, financedomain.StatusPending).
		Updates(map[string]any{"status": financedomain.StatusPaid, "paid_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return financedomain.ErrTransactionNotFound
	}
	return nil
}

func (r *PostgresRepository) Summarize(ctx context.Context, houseID int64) (*financedomain.Summary, error) {
	conn, err := r.conn(ctx, houseID)
	if err != nil {
		return nil, err
	}

	summary := &financedomain.Summary{}

	type statusRow struct {
		Status string
		Total  int64
	}
	var statusRows []statusRow
	err = conn.Model(&financedomain.Transaction{}).
		Select("status, SUM(amount_cents) AS total").
		Group("status").
		Scan(&statusRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range statusRows {
		switch row.Status {
		case financedomain.StatusPaid:
			summary.PaidCents = row.Total
		case financedomain.StatusPending:
			summary.PendingCents = row.Total
		}
	}

	type categoryRow struct {
		CategoryID   int64
		CategoryName string
		Total        int64
	}
	var categoryRows []categoryRow
	err = conn.
		Table("finance_transactions").
		Select("finance_category.id AS category_id, finance_category.name AS category_name, SUM(finance_transactions.amount_cents) AS total").
		Joins("join finance_entries on finance_entries.id = finance_transactions.entry_id").
		Joins("join finance_category on finance_category.id = finance_entries.category_id").
		Group("finance_category.id, finance_category.name").
		Order("total desc").
		Scan(&categoryRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range categoryRows {
		summary.ByCategory = append(summary.ByCategory, financedomain.CategoryTotal{
			CategoryID:   row.CategoryID,
			CategoryName: row.CategoryName,
			TotalCents:   row.Total,
		})
	}

	return summary, nil
}
