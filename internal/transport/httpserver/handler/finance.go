package handler

import (
	"errors"
	"net/http"
	"time"

	financedomain "casa360/internal/domain/finance"
	"casa360/internal/transport/httpserver/middleware"
)

type createCurrencyRequest struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

type createCategoryRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

type createCostCenterRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type createPayerRequest struct {
	Name   string `json:"name"`
	UserID *int64 `json:"user_id"`
}

type createEntryRequest struct {
	Description  string `json:"description"`
	AmountCents  int64  `json:"amount_cents"`
	Income       bool   `json:"income"`
	CurrencyID   int64  `json:"currency_id"`
	CategoryID   int64  `json:"category_id"`
	CostCenterID *int64 `json:"cost_center_id"`
	PayerID      int64  `json:"payer_id"`
	StartDate    string `json:"start_date"`
	Installments int    `json:"installments"`
}

type currencyResponse struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

type categoryResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

type costCenterResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type payerResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID *int64 `json:"user_id"`
}

type entryResponse struct {
	ID           int64     `json:"id"`
	Description  string    `json:"description"`
	AmountCents  int64     `json:"amount_cents"`
	Income       bool      `json:"income"`
	CurrencyID   int64     `json:"currency_id"`
	CategoryID   int64     `json:"category_id"`
	CostCenterID *int64    `json:"cost_center_id"`
	PayerID      int64     `json:"payer_id"`
	StartDate    time.Time `json:"start_date"`
	Installments int       `json:"installments"`
	CreatedAt    time.Time `json:"created_at"`
}

type transactionResponse struct {
	ID          int64      `json:"id"`
	EntryID     int64      `json:"entry_id"`
	Installment int        `json:"installment"`
	AmountCents int64      `json:"amount_cents"`
	DueDate     time.Time  `json:"due_date"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paid_at"`
}

type summaryResponse struct {
	PendingCents int64                   `json:"pending_cents"`
	PaidCents    int64                   `json:"paid_cents"`
	ByCategory   []categoryTotalResponse `json:"by_category"`
}

type categoryTotalResponse struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	TotalCents   int64  `json:"total_cents"`
}

func houseScope(w http.ResponseWriter, r *http.Request) (int64, bool) {
	access, ok := middleware.HouseFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusForbidden, "not_member", "not a member of this house")
		return 0, false
	}
	return access.HouseID, true
}

func (h *Handlers) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	currencies, err := h.Finance.ListCurrencies(r.Context(), id)
	if err != nil {
		h.writeFinanceError(w, "finance.currencies.list", err, id)
		return
	}
	response := make([]currencyResponse, 0, len(currencies))
	for _, currency := range currencies {
		response = append(response, currencyResponse(currency))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateCurrency(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	var req createCurrencyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	currency, err := h.Finance.CreateCurrency(r.Context(), id, req.Code, req.Symbol)
	if err != nil {
		h.writeFinanceError(w, "finance.currencies.create", err, id)
		return
	}
	writeJSON(w, http.StatusCreated, currencyResponse(*currency))
}

func (h *Handlers) UpdateCurrency(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	currencyID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	var req createCurrencyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	currency, err := h.Finance.UpdateCurrency(r.Context(), id, currencyID, req.Code, req.Symbol)
	if err != nil {
		h.writeFinanceError(w, "finance.currencies.update", err, id)
		return
	}
	writeJSON(w, http.StatusOK, currencyResponse(*currency))
}

func (h *Handlers) DeleteCurrency(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	currencyID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.Finance.DeleteCurrency(r.Context(), id, currencyID); err != nil {
		h.writeFinanceError(w, "finance.currencies.delete", err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListFinanceCategories(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	categories, err := h.Finance.ListCategories(r.Context(), id)
	if err != nil {
		h.writeFinanceError(w, "finance.categories.list", err, id)
		return
	}
	response := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		response = append(response, categoryResponse(category))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateFinanceCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	category, err := h.Finance.CreateCategory(r.Context(), id, req.Name, req.ParentID)
	if err != nil {
		h.writeFinanceError(w, "finance.categories.create", err, id)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse(*category))
}

func (h *Handlers) UpdateFinanceCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	categoryID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	category, err := h.Finance.UpdateCategory(r.Context(), id, categoryID, req.Name, req.ParentID)
	if err != nil {
		h.writeFinanceError(w, "finance.categories.update", err, id)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse(*category))
}

func (h *Handlers) DeleteFinanceCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	categoryID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.Finance.DeleteCategory(r.Context(), id, categoryID); err != nil {
		h.writeFinanceError(w, "finance.categories.delete", err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListCostCenters(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	costCenters, err := h.Finance.ListCostCenters(r.Context(), id)
	if err != nil {
		h.writeFinanceError(w, "finance.cost_centers.list", err, id)
		return
	}
	response := make([]costCenterResponse, 0, len(costCenters))
	for _, costCenter := range costCenters {
		response = append(response, costCenterResponse(costCenter))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateCostCenter(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	var req createCostCenterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	costCenter, err := h.Finance.CreateCostCenter(r.Context(), id, req.Name, req.Description)
	if err != nil {
		h.writeFinanceError(w, "finance.cost_centers.create", err, id)
		return
	}
	writeJSON(w, http.StatusCreated, costCenterResponse(*costCenter))
}

func (h *Handlers) UpdateCostCenter(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	costCenterID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	var req createCostCenterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	costCenter, err := h.Finance.UpdateCostCenter(r.Context(), id, costCenterID, req.Name, req.Description)
	if err != nil {
		h.writeFinanceError(w, "finance.cost_centers.update", err, id)
		return
	}
	writeJSON(w, http.StatusOK, costCenterResponse(*costCenter))
}

func (h *Handlers) DeleteCostCenter(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	costCenterID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.Finance.DeleteCostCenter(r.Context(), id, costCenterID); err != nil {
		h.writeFinanceError(w, "finance.cost_centers.delete", err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListPayers(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	payers, err := h.Finance.ListPayers(r.Context(), id)
	if err != nil {
		h.writeFinanceError(w, "finance.payers.list", err, id)
		return
	}
	response := make([]payerResponse, 0, len(payers))
	for _, payer := range payers {
		response = append(response, payerResponse(payer))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreatePayer(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	var req createPayerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	payer, err := h.Finance.CreatePayer(r.Context(), id, req.Name, req.UserID)
	if err != nil {
		h.writeFinanceError(w, "finance.payers.create", err, id)
		return
	}
	writeJSON(w, http.StatusCreated, payerResponse(*payer))
}

func (h *Handlers) UpdatePayer(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	payerID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	var req createPayerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	payer, err := h.Finance.UpdatePayer(r.Context(), id, payerID, req.Name, req.UserID)
	if err != nil {
		h.writeFinanceError(w, "finance.payers.update", err, id)
		return
	}
	writeJSON(w, http.StatusOK, payerResponse(*payer))
}

func (h *Handlers) DeletePayer(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	payerID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.Finance.DeletePayer(r.Context(), id, payerID); err != nil {
		h.writeFinanceError(w, "finance.payers.delete", err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	entries, err := h.Finance.ListEntries(r.Context(), id)
	if err != nil {
		h.writeFinanceError(w, "finance.entries.list", err, id)
		return
	}
	response := make([]entryResponse, 0, len(entries))
	for i := range entries {
		response = append(response, toEntryResponse(&entries[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	var req createEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	startDate, err := parseDateRequired(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "start_date must be YYYY-MM-DD")
		return
	}

	entry, err := h.Finance.CreateEntry(r.Context(), id, financedomain.CreateEntryInput{
		Description:  req.Description,
		AmountCents:  req.AmountCents,
		Income:       req.Income,
		CurrencyID:   req.CurrencyID,
		CategoryID:   req.CategoryID,
		CostCenterID: req.CostCenterID,
		PayerID:      req.PayerID,
		StartDate:    startDate,
		Installments: req.Installments,
	})
	if err != nil {
		h.writeFinanceError(w, "finance.entries.create", err, id)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	entryID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.Finance.DeleteEntry(r.Context(), id, entryID); err != nil {
		h.writeFinanceError(w, "finance.entries.delete", err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	entryID, err := parseInt64Param(r.URL.Query().Get("entry_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid entry_id")
		return
	}
	filter := financedomain.TransactionFilter{
		Status:  r.URL.Query().Get("status"),
		EntryID: entryID,
	}

	transactions, err := h.Finance.ListTransactions(r.Context(), id, filter)
	if err != nil {
		h.writeFinanceError(w, "finance.transactions.list", err, id)
		return
	}
	response := make([]transactionResponse, 0, len(transactions))
	for i := range transactions {
		response = append(response, toTransactionResponse(&transactions[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) PayTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	transactionID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.Finance.PayTransaction(r.Context(), id, transactionID); err != nil {
		h.writeFinanceError(w, "finance.transactions.pay", err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) FinanceSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	summary, err := h.Finance.Summarize(r.Context(), id)
	if err != nil {
		h.writeFinanceError(w, "finance.summary", err, id)
		return
	}

	response := summaryResponse{
		PendingCents: summary.PendingCents,
		PaidCents:    summary.PaidCents,
		ByCategory:   make([]categoryTotalResponse, 0, len(summary.ByCategory)),
	}
	for _, total := range summary.ByCategory {
		response.ByCategory = append(response.ByCategory, categoryTotalResponse(total))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) writeFinanceError(w http.ResponseWriter, op string, err error, houseID int64) {
	switch {
	case errors.Is(err, financedomain.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, financedomain.ErrCurrencyNotFound):
		writeError(w, http.StatusNotFound, "currency_not_found", "currency not found")
	case errors.Is(err, financedomain.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, "category_not_found", "category not found")
	case errors.Is(err, financedomain.ErrCostCenterNotFound):
		writeError(w, http.StatusNotFound, "cost_center_not_found", "cost center not found")
	case errors.Is(err, financedomain.ErrPayerNotFound):
		writeError(w, http.StatusNotFound, "payer_not_found", "payer not found")
	case errors.Is(err, financedomain.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "entry_not_found", "entry not found")
	case errors.Is(err, financedomain.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, "transaction_not_found", "transaction not found")
	case errors.Is(err, financedomain.ErrTransactionAlreadyPaid):
		h.log.BusinessError(op+": transaction already paid", err, "house_id", houseID)
		writeError(w, http.StatusConflict, "transaction_already_paid", "transaction already paid")
	default:
		h.log.InternalError(op+": failed", err, "house_id", houseID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toEntryResponse(entry *financedomain.Entry) entryResponse {
	return entryResponse{
		ID:           entry.ID,
		Description:  entry.Description,
		AmountCents:  entry.AmountCents,
		Income:       entry.Income,
		CurrencyID:   entry.CurrencyID,
		CategoryID:   entry.CategoryID,
		CostCenterID: entry.CostCenterID,
		PayerID:      entry.PayerID,
		StartDate:    entry.StartDate,
		Installments: entry.Installments,
		CreatedAt:    entry.CreatedAt,
	}
}

func toTransactionResponse(transaction *financedomain.Transaction) transactionResponse {
	return transactionResponse{
		ID:          transaction.ID,
		EntryID:     transaction.EntryID,
		Installment: transaction.Installment,
		AmountCents: transaction.AmountCents,
		DueDate:     transaction.DueDate,
		Status:      transaction.Status,
		PaidAt:      transaction.PaidAt,
	}
}
