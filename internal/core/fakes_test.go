package core_test

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger-core/internal/core"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// fakeAccountRepo is an in-memory AccountRepository with failure injection.
type fakeAccountRepo struct {
	accounts  map[int64]core.Account
	relations map[int64]core.Relations
	nextID    int64
	failWith  error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts:  make(map[int64]core.Account),
		relations: make(map[int64]core.Relations),
		nextID:    1,
	}
}

func (r *fakeAccountRepo) GetAll(_ context.Context, tenantID int64) ([]core.Account, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []core.Account
	for _, a := range r.accounts {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id int64) (*core.Account, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	a, ok := r.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &a, nil
}

func (r *fakeAccountRepo) GetByCode(_ context.Context, tenantID int64, code string) (*core.Account, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, a := range r.accounts {
		if a.TenantID == tenantID && a.Code == code {
			return &a, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *fakeAccountRepo) Create(_ context.Context, a *core.Account) (*core.Account, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, existing := range r.accounts {
		if existing.TenantID == a.TenantID && existing.Code == a.Code {
			return nil, &core.DuplicateAccountCodeError{TenantID: a.TenantID, Code: a.Code}
		}
	}
	created := *a
	created.ID = r.nextID
	r.nextID++
	r.accounts[created.ID] = created
	return &created, nil
}

func (r *fakeAccountRepo) Update(_ context.Context, a *core.Account) (*core.Account, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	if _, ok := r.accounts[a.ID]; !ok {
		return nil, core.ErrNotFound
	}
	updated := *a
	r.accounts[a.ID] = updated
	return &updated, nil
}

func (r *fakeAccountRepo) Delete(_ context.Context, id int64) error {
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.accounts[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *fakeAccountRepo) Relations(_ context.Context, accountID int64) (core.Relations, error) {
	if r.failWith != nil {
		return core.Relations{}, r.failWith
	}
	return r.relations[accountID], nil
}

// mustAccount seeds an account directly, bypassing the service layer.
func (r *fakeAccountRepo) mustAccount(a core.Account) core.Account {
	if a.ID == 0 {
		a.ID = r.nextID
		r.nextID++
	} else if a.ID >= r.nextID {
		r.nextID = a.ID + 1
	}
	r.accounts[a.ID] = a
	return a
}

// fakeJournalRepo is an in-memory JournalRepository. It reads account
// tenancy through the account repo so Activity can report AccountTenantID
// the way the SQL join does.
type fakeJournalRepo struct {
	accounts    *fakeAccountRepo
	entries     []core.JournalEntry
	nextEntryID int64
	nextLineID  int64
	insertErr   error
	readErr     error
	statusErr   error
}

func newFakeJournalRepo(accounts *fakeAccountRepo) *fakeJournalRepo {
	return &fakeJournalRepo{accounts: accounts, nextEntryID: 1, nextLineID: 1}
}

func (r *fakeJournalRepo) InsertEntry(_ context.Context, entry *core.JournalEntry) (*core.JournalEntry, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	if entry.IdempotencyKey != "" {
		for _, e := range r.entries {
			if e.IdempotencyKey == entry.IdempotencyKey {
				return nil, &core.DuplicateEntryError{IdempotencyKey: entry.IdempotencyKey}
			}
		}
	}
	stored := *entry
	stored.ID = r.nextEntryID
	r.nextEntryID++
	stored.CreatedAt = time.Now()
	stored.Lines = make([]core.JournalLine, len(entry.Lines))
	for i, line := range entry.Lines {
		line.ID = r.nextLineID
		r.nextLineID++
		line.EntryID = stored.ID
		stored.Lines[i] = line
	}
	r.entries = append(r.entries, stored)
	result := stored
	return &result, nil
}

func (r *fakeJournalRepo) GetEntry(_ context.Context, tenantID, entryID int64) (*core.JournalEntry, error) {
	if r.readErr != nil {
		return nil, r.readErr
	}
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.ID == entryID {
			found := e
			found.Lines = append([]core.JournalLine(nil), e.Lines...)
			return &found, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *fakeJournalRepo) GetEntries(_ context.Context, tenantID int64) ([]core.JournalEntry, error) {
	if r.readErr != nil {
		return nil, r.readErr
	}
	var out []core.JournalEntry
	for _, e := range r.entries {
		if e.TenantID == tenantID {
			header := e
			header.Lines = nil
			out = append(out, header)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.After(out[j].EntryDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *fakeJournalRepo) UpdateStatus(_ context.Context, tenantID, entryID int64, status core.EntryStatus) error {
	if r.statusErr != nil {
		return r.statusErr
	}
	for i, e := range r.entries {
		if e.TenantID == tenantID && e.ID == entryID {
			r.entries[i].Status = status
			return nil
		}
	}
	return core.ErrNotFound
}

func (r *fakeJournalRepo) HasReversal(_ context.Context, entryID int64) (bool, error) {
	if r.readErr != nil {
		return false, r.readErr
	}
	for _, e := range r.entries {
		if e.ReversedEntryID != nil && *e.ReversedEntryID == entryID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeJournalRepo) inRange(e core.JournalEntry, f core.ActivityFilter) bool {
	if !f.From.IsZero() && e.EntryDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.EntryDate.After(f.To) {
		return false
	}
	return true
}

func (r *fakeJournalRepo) Activity(_ context.Context, tenantID int64, filter core.ActivityFilter) ([]core.AccountActivity, error) {
	if r.readErr != nil {
		return nil, r.readErr
	}
	sums := make(map[int64]*core.AccountActivity)
	for _, e := range r.entries {
		if e.TenantID != tenantID || e.Status == core.EntryStatusDraft || !r.inRange(e, filter) {
			continue
		}
		for _, line := range e.Lines {
			if filter.AccountID != 0 && line.AccountID != filter.AccountID {
				continue
			}
			sum, ok := sums[line.AccountID]
			if !ok {
				sum = &core.AccountActivity{AccountID: line.AccountID}
				if account, exists := r.accounts.accounts[line.AccountID]; exists {
					sum.AccountTenantID = account.TenantID
				}
				sums[line.AccountID] = sum
			}
			sum.Debit = sum.Debit.Add(line.DebitAmount)
			sum.Credit = sum.Credit.Add(line.CreditAmount)
		}
	}
	out := make([]core.AccountActivity, 0, len(sums))
	for _, sum := range sums {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (r *fakeJournalRepo) LineDetails(_ context.Context, tenantID int64, filter core.ActivityFilter) ([]core.LineDetail, error) {
	if r.readErr != nil {
		return nil, r.readErr
	}
	var out []core.LineDetail
	for _, e := range r.entries {
		if e.TenantID != tenantID || e.Status == core.EntryStatusDraft || !r.inRange(e, filter) {
			continue
		}
		for _, line := range e.Lines {
			if filter.AccountID != 0 && line.AccountID != filter.AccountID {
				continue
			}
			out = append(out, core.LineDetail{
				EntryID:      e.ID,
				EntryNumber:  e.EntryNumber,
				EntryDate:    e.EntryDate,
				Description:  e.Description,
				FlowCategory: e.FlowCategory,
				AccountID:    line.AccountID,
				DebitAmount:  line.DebitAmount,
				CreditAmount: line.CreditAmount,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.Before(out[j].EntryDate)
		}
		return out[i].EntryID < out[j].EntryID
	})
	return out, nil
}

// fakeStatementRepo is an in-memory StatementRepository.
type fakeStatementRepo struct {
	statements []core.FinancialStatement
	nextID     int64
	failWith   error
}

func newFakeStatementRepo() *fakeStatementRepo {
	return &fakeStatementRepo{nextID: 1}
}

func (r *fakeStatementRepo) Append(_ context.Context, s *core.FinancialStatement) (*core.FinancialStatement, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	stored := *s
	stored.ID = r.nextID
	r.nextID++
	stored.CreatedAt = time.Now()
	r.statements = append(r.statements, stored)
	result := stored
	return &result, nil
}

func (r *fakeStatementRepo) ListByTenant(_ context.Context, tenantID int64) ([]core.FinancialStatement, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []core.FinancialStatement
	for i := len(r.statements) - 1; i >= 0; i-- {
		if r.statements[i].TenantID == tenantID {
			out = append(out, r.statements[i])
		}
	}
	return out, nil
}

// fakeRoleRepo is an in-memory RoleMappingRepository.
type fakeRoleRepo struct {
	owners   map[int64]int64
	failWith error
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{owners: make(map[int64]int64)}
}

func (r *fakeRoleRepo) LatestOwner(_ context.Context, userID int64) (int64, error) {
	if r.failWith != nil {
		return 0, r.failWith
	}
	owner, ok := r.owners[userID]
	if !ok {
		return 0, core.ErrNotFound
	}
	return owner, nil
}

// fakeOutboxRepo is an in-memory OutboxRepository.
type fakeOutboxRepo struct {
	items    []core.PendingPosting
	nextID   int64
	failWith error
	markErr  error
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{nextID: 1}
}

func (r *fakeOutboxRepo) Enqueue(_ context.Context, p *core.PendingPosting) (*core.PendingPosting, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	stored := *p
	stored.ID = r.nextID
	r.nextID++
	stored.CreatedAt = time.Now()
	r.items = append(r.items, stored)
	result := stored
	return &result, nil
}

func (r *fakeOutboxRepo) Pending(_ context.Context, tenantID int64) ([]core.PendingPosting, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []core.PendingPosting
	for _, item := range r.items {
		if item.TenantID == tenantID && item.Status == core.PostingPending {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) MarkPosted(_ context.Context, id, entryID int64) error {
	if r.markErr != nil {
		return r.markErr
	}
	for i, item := range r.items {
		if item.ID == id {
			now := time.Now()
			r.items[i].Status = core.PostingPosted
			r.items[i].EntryID = &entryID
			r.items[i].PostedAt = &now
			return nil
		}
	}
	return core.ErrNotFound
}

func (r *fakeOutboxRepo) MarkFailed(_ context.Context, id int64, reason string) error {
	if r.markErr != nil {
		return r.markErr
	}
	for i, item := range r.items {
		if item.ID == id {
			r.items[i].Status = core.PostingFailed
			r.items[i].LastError = reason
			return nil
		}
	}
	return core.ErrNotFound
}

func (r *fakeOutboxRepo) Reset(_ context.Context, tenantID, id int64) error {
	if r.failWith != nil {
		return r.failWith
	}
	for i, item := range r.items {
		if item.ID == id && item.TenantID == tenantID && item.Status == core.PostingFailed {
			r.items[i].Status = core.PostingPending
			r.items[i].LastError = ""
			return nil
		}
	}
	return core.ErrNotFound
}

// dec is shorthand for decimal literals in tests.
func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
