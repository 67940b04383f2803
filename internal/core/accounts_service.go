package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Relations reports which tables still reference an account.
type Relations struct {
	HasAccountingSettings bool `json:"has_accounting_settings"`
	HasJournalEntries     bool `json:"has_journal_entries"`
}

// AccountRepository persists chart-of-accounts rows.
type AccountRepository interface {
	GetAll(ctx context.Context, tenantID int64) ([]Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByCode(ctx context.Context, tenantID int64, code string) (*Account, error)
	Create(ctx context.Context, a *Account) (*Account, error)
	Update(ctx context.Context, a *Account) (*Account, error)
	Delete(ctx context.Context, id int64) error
	// Relations checks the settings and journal line tables independently.
	Relations(ctx context.Context, accountID int64) (Relations, error)
}

// AccountInput is the caller-supplied shape for creating or updating an
// account. Type accepts free-text spellings; NormalBalance may be empty.
type AccountInput struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	NormalBalance string `json:"normal_balance,omitempty"`
	Level         int    `json:"level,omitempty"`
	ParentID      *int64 `json:"parent_id,omitempty"`
	AllowPosting  *bool  `json:"allow_posting,omitempty"`
	IsActive      *bool  `json:"is_active,omitempty"`
	IsBankAccount bool   `json:"is_bank_account,omitempty"`
}

// accountTypeSpellings maps the free-text type spellings seen in imported
// and hand-entered charts (English and Spanish, singular and plural) onto
// the canonical six-value enum.
var accountTypeSpellings = map[string]AccountType{
	"asset": Asset, "assets": Asset, "activo": Asset, "activos": Asset,
	"liability": Liability, "liabilities": Liability, "pasivo": Liability, "pasivos": Liability,
	"equity": Equity, "capital": Equity, "patrimonio": Equity,
	"income": Income, "revenue": Income, "ingreso": Income, "ingresos": Income,
	"cost": Cost, "costs": Cost, "costo": Cost, "costos": Cost,
	"expense": Expense, "expenses": Expense, "gasto": Expense, "gastos": Expense,
}

// NormalizeAccountType canonicalizes a free-text account type spelling.
func NormalizeAccountType(raw string) (AccountType, error) {
	t, ok := accountTypeSpellings[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown account type %q", raw)}
	}
	return t, nil
}

// ChartOfAccounts manages the per-tenant chart: CRUD with type and
// normal-balance normalization, referential-integrity checks before
// deletion, and template seeding for new books.
type ChartOfAccounts struct {
	repo AccountRepository
	log  *zap.Logger
}

func NewChartOfAccounts(repo AccountRepository, log *zap.Logger) *ChartOfAccounts {
	return &ChartOfAccounts{repo: repo, log: log}
}

func (c *ChartOfAccounts) GetAll(ctx context.Context, tenantID int64) ([]Account, error) {
	accounts, err := c.repo.GetAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart of accounts: %w", err)
	}
	return accounts, nil
}

func (c *ChartOfAccounts) Create(ctx context.Context, tenantID int64, input AccountInput) (*Account, error) {
	account, err := c.buildAccount(tenantID, input)
	if err != nil {
		return nil, err
	}
	created, err := c.repo.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", input.Code, err)
	}
	return created, nil
}

func (c *ChartOfAccounts) Update(ctx context.Context, tenantID, accountID int64, input AccountInput) (*Account, error) {
	existing, err := c.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &AccountNotFoundError{TenantID: tenantID, AccountID: accountID}
		}
		return nil, fmt.Errorf("failed to load account %d: %w", accountID, err)
	}
	if existing.TenantID != tenantID {
		return nil, &AccountNotFoundError{TenantID: tenantID, AccountID: accountID}
	}

	account, err := c.buildAccount(tenantID, input)
	if err != nil {
		return nil, err
	}
	account.ID = existing.ID
	if input.IsActive == nil {
		account.IsActive = existing.IsActive
	}
	updated, err := c.repo.Update(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to update account %d: %w", accountID, err)
	}
	return updated, nil
}

// buildAccount normalizes caller input into a persistable Account.
func (c *ChartOfAccounts) buildAccount(tenantID int64, input AccountInput) (*Account, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	accType, err := NormalizeAccountType(input.Type)
	if err != nil {
		return nil, err
	}

	normal := NormalBalance(strings.ToLower(strings.TrimSpace(input.NormalBalance)))
	switch normal {
	case DebitNormal, CreditNormal:
	case "":
		normal = DefaultNormalBalance(accType)
	default:
		return nil, &ValidationError{Field: "normal_balance", Reason: fmt.Sprintf("must be debit or credit, got %q", input.NormalBalance)}
	}

	level := input.Level
	if level <= 0 {
		level = 1
	}
	allowPosting := true
	if input.AllowPosting != nil {
		allowPosting = *input.AllowPosting
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	return &Account{
		TenantID:      tenantID,
		Code:          strings.TrimSpace(input.Code),
		Name:          strings.TrimSpace(input.Name),
		Type:          accType,
		NormalBalance: normal,
		Level:         level,
		ParentID:      input.ParentID,
		IsActive:      isActive,
		AllowPosting:  allowPosting,
		IsBankAccount: input.IsBankAccount,
	}, nil
}

// CheckRelations queries the two reference tables independently and reports
// whether the account is still in use.
func (c *ChartOfAccounts) CheckRelations(ctx context.Context, accountID int64) (Relations, error) {
	relations, err := c.repo.Relations(ctx, accountID)
	if err != nil {
		return Relations{}, fmt.Errorf("failed to check relations for account %d: %w", accountID, err)
	}
	return relations, nil
}

// Delete removes an account, failing with a RelationError while any
// accounting setting or journal line still references it.
func (c *ChartOfAccounts) Delete(ctx context.Context, accountID int64) error {
	relations, err := c.CheckRelations(ctx, accountID)
	if err != nil {
		return err
	}
	if relations.HasAccountingSettings || relations.HasJournalEntries {
		return &RelationError{
			AccountID:             accountID,
			HasAccountingSettings: relations.HasAccountingSettings,
			HasJournalEntries:     relations.HasJournalEntries,
		}
	}
	if err := c.repo.Delete(ctx, accountID); err != nil {
		return fmt.Errorf("failed to delete account %d: %w", accountID, err)
	}
	return nil
}

// ResolveAccountID maps a tenant-scoped account code to its id. Returns
// ErrNotFound (wrapped) when the code does not exist for the tenant.
func (c *ChartOfAccounts) ResolveAccountID(ctx context.Context, tenantID int64, code string) (int64, error) {
	account, err := c.repo.GetByCode(ctx, tenantID, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, &AccountNotFoundError{TenantID: tenantID, Code: code}
		}
		return 0, fmt.Errorf("failed to resolve account code %s: %w", code, err)
	}
	return account.ID, nil
}

// SeedFromTemplate bulk-inserts the template chart for a tenant, skipping
// codes already present. Parent headers are inserted before their children
// so the hierarchy resolves in one pass. Returns the number of accounts
// created.
func (c *ChartOfAccounts) SeedFromTemplate(ctx context.Context, tenantID int64) (int, error) {
	existing, err := c.repo.GetAll(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to load existing chart: %w", err)
	}
	byCode := make(map[string]int64, len(existing))
	for _, a := range existing {
		byCode[a.Code] = a.ID
	}

	created := 0
	for _, tpl := range DefaultChartTemplate {
		if _, ok := byCode[tpl.Code]; ok {
			continue
		}
		account := &Account{
			TenantID:      tenantID,
			Code:          tpl.Code,
			Name:          tpl.Name,
			Type:          tpl.Type,
			NormalBalance: DefaultNormalBalance(tpl.Type),
			Level:         tpl.Level,
			IsActive:      true,
			AllowPosting:  tpl.AllowPosting,
			IsBankAccount: tpl.IsBankAccount,
		}
		if tpl.ParentCode != "" {
			if parentID, ok := byCode[tpl.ParentCode]; ok {
				account.ParentID = &parentID
			}
		}
		inserted, err := c.repo.Create(ctx, account)
		if err != nil {
			return created, fmt.Errorf("failed to seed account %s: %w", tpl.Code, err)
		}
		byCode[inserted.Code] = inserted.ID
		created++
	}

	c.log.Info("chart template seeded",
		zap.Int64("tenant_id", tenantID), zap.Int("accounts_created", created))
	return created, nil
}
