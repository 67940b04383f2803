package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-core/internal/core"
)

// ledgerFixture wires a JournalLedger over in-memory repos with a small
// postable chart.
type ledgerFixture struct {
	accounts *fakeAccountRepo
	journal  *fakeJournalRepo
	ledger   *core.JournalLedger
	caja     core.Account
	ventas   core.Account
	header   core.Account
}

func newLedgerFixture() *ledgerFixture {
	accounts := newFakeAccountRepo()
	f := &ledgerFixture{accounts: accounts}
	f.caja = accounts.mustAccount(core.Account{
		TenantID: 1, Code: "1010", Name: "Caja General", Type: core.Asset,
		NormalBalance: core.DebitNormal, IsActive: true, AllowPosting: true,
	})
	f.ventas = accounts.mustAccount(core.Account{
		TenantID: 1, Code: "4010", Name: "Ventas", Type: core.Income,
		NormalBalance: core.CreditNormal, IsActive: true, AllowPosting: true,
	})
	f.header = accounts.mustAccount(core.Account{
		TenantID: 1, Code: "1000", Name: "Activos", Type: core.Asset,
		NormalBalance: core.DebitNormal, IsActive: true, AllowPosting: false,
	})
	f.journal = newFakeJournalRepo(accounts)
	f.ledger = core.NewJournalLedger(f.journal, accounts, testLogger())
	return f
}

func (f *ledgerFixture) saleHeader() core.EntryInput {
	return core.EntryInput{
		EntryNumber: "JE-001",
		EntryDate:   date(2026, time.March, 10),
		Description: "Venta de mercancías",
	}
}

func (f *ledgerFixture) saleLines(amount string) []core.LineInput {
	return []core.LineInput{
		{AccountID: f.caja.ID, DebitAmount: dec(amount)},
		{AccountID: f.ventas.ID, CreditAmount: dec(amount)},
	}
}

func TestPostEntry_HappyPath(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	entry, err := f.ledger.PostEntry(ctx, 1, f.saleHeader(), f.saleLines("500.00"))
	require.NoError(t, err)

	assert.NotZero(t, entry.ID)
	assert.Equal(t, core.EntryStatusPosted, entry.Status)
	assert.True(t, entry.TotalDebit.Equal(dec("500.00")))
	assert.True(t, entry.TotalCredit.Equal(dec("500.00")))
	require.Len(t, entry.Lines, 2)

	// Line defaults: entry description and positional numbering.
	assert.Equal(t, "Venta de mercancías", entry.Lines[0].Description)
	assert.Equal(t, 1, entry.Lines[0].LineNumber)
	assert.Equal(t, 2, entry.Lines[1].LineNumber)
}

func TestPostEntry_Unbalanced(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.ledger.PostEntry(context.Background(), 1, f.saleHeader(), []core.LineInput{
		{AccountID: f.caja.ID, DebitAmount: dec("500.00")},
		{AccountID: f.ventas.ID, CreditAmount: dec("400.00")},
	})
	var ubErr *core.UnbalancedEntryError
	require.ErrorAs(t, err, &ubErr)
	assert.True(t, ubErr.TotalDebit.Equal(dec("500.00")))
	assert.True(t, ubErr.TotalCredit.Equal(dec("400.00")))

	// Nothing written.
	assert.Empty(t, f.journal.entries)
}

func TestPostEntry_BalanceComparedAfterRounding(t *testing.T) {
	f := newLedgerFixture()

	// 33.333 + 66.667 = 100.000 debits vs a flat 100.00 credit: equal at
	// two decimal places.
	_, err := f.ledger.PostEntry(context.Background(), 1, f.saleHeader(), []core.LineInput{
		{AccountID: f.caja.ID, DebitAmount: dec("33.333")},
		{AccountID: f.caja.ID, DebitAmount: dec("66.667")},
		{AccountID: f.ventas.ID, CreditAmount: dec("100.00")},
	})
	assert.NoError(t, err)

	// A third-decimal difference that survives rounding is rejected.
	_, err = f.ledger.PostEntry(context.Background(), 1, f.saleHeader(), []core.LineInput{
		{AccountID: f.caja.ID, DebitAmount: dec("100.006")},
		{AccountID: f.ventas.ID, CreditAmount: dec("100.00")},
	})
	var ubErr *core.UnbalancedEntryError
	assert.ErrorAs(t, err, &ubErr)
}

func TestPostEntry_Validation(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	var vErr *core.ValidationError

	_, err := f.ledger.PostEntry(ctx, 1, f.saleHeader(), nil)
	assert.ErrorAs(t, err, &vErr)

	header := f.saleHeader()
	header.EntryDate = time.Time{}
	_, err = f.ledger.PostEntry(ctx, 1, header, f.saleLines("10.00"))
	assert.ErrorAs(t, err, &vErr)

	_, err = f.ledger.PostEntry(ctx, 1, f.saleHeader(), []core.LineInput{
		{AccountID: f.caja.ID, DebitAmount: dec("-5.00")},
		{AccountID: f.ventas.ID, CreditAmount: dec("-5.00")},
	})
	assert.ErrorAs(t, err, &vErr)
}

func TestPostEntry_AccountChecks(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	// Unknown account.
	_, err := f.ledger.PostEntry(ctx, 1, f.saleHeader(), []core.LineInput{
		{AccountID: 999, DebitAmount: dec("10.00")},
		{AccountID: f.ventas.ID, CreditAmount: dec("10.00")},
	})
	var nfErr *core.AccountNotFoundError
	assert.ErrorAs(t, err, &nfErr)

	// Another tenant's account reads as not found, not as forbidden.
	foreign := f.accounts.mustAccount(core.Account{
		TenantID: 2, Code: "1010", Name: "Caja Ajena", Type: core.Asset,
		NormalBalance: core.DebitNormal, IsActive: true, AllowPosting: true,
	})
	_, err = f.ledger.PostEntry(ctx, 1, f.saleHeader(), []core.LineInput{
		{AccountID: foreign.ID, DebitAmount: dec("10.00")},
		{AccountID: f.ventas.ID, CreditAmount: dec("10.00")},
	})
	assert.ErrorAs(t, err, &nfErr)

	// Summary headers reject direct posting.
	_, err = f.ledger.PostEntry(ctx, 1, f.saleHeader(), []core.LineInput{
		{AccountID: f.header.ID, DebitAmount: dec("10.00")},
		{AccountID: f.ventas.ID, CreditAmount: dec("10.00")},
	})
	var paErr *core.PostingNotAllowedError
	require.ErrorAs(t, err, &paErr)
	assert.Equal(t, "1000", paErr.Code)
}

func TestPostEntry_IdempotencyKey(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	header := f.saleHeader()
	header.IdempotencyKey = "invoice-77"
	_, err := f.ledger.PostEntry(ctx, 1, header, f.saleLines("150.00"))
	require.NoError(t, err)

	_, err = f.ledger.PostEntry(ctx, 1, header, f.saleLines("150.00"))
	var dupErr *core.DuplicateEntryError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "invoice-77", dupErr.IdempotencyKey)
	assert.Len(t, f.journal.entries, 1)
}

func TestGetEntries_DegradesOnReadFailure(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.ledger.PostEntry(ctx, 1, f.saleHeader(), f.saleLines("25.00"))
	require.NoError(t, err)

	result := f.ledger.GetEntries(ctx, 1)
	assert.False(t, result.Degraded)
	assert.Len(t, result.Data, 1)

	f.journal.readErr = errors.New("connection reset")
	result = f.ledger.GetEntries(ctx, 1)
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Data)
}

func TestReverse_PostsCompensatingEntry(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	original, err := f.ledger.PostEntry(ctx, 1, f.saleHeader(), f.saleLines("500.00"))
	require.NoError(t, err)

	reversal, err := f.ledger.Reverse(ctx, 1, original.ID, "cliente devolvió la mercancía")
	require.NoError(t, err)

	assert.Equal(t, "JE-001-R", reversal.EntryNumber)
	require.NotNil(t, reversal.ReversedEntryID)
	assert.Equal(t, original.ID, *reversal.ReversedEntryID)
	require.Len(t, reversal.Lines, 2)
	assert.True(t, reversal.Lines[0].CreditAmount.Equal(dec("500.00")))
	assert.True(t, reversal.Lines[1].DebitAmount.Equal(dec("500.00")))

	// Original is marked reversed, not mutated otherwise.
	stored, err := f.journal.GetEntry(ctx, 1, original.ID)
	require.NoError(t, err)
	assert.Equal(t, core.EntryStatusReversed, stored.Status)

	// The pair nets to zero in aggregation.
	activity, err := f.journal.Activity(ctx, 1, core.ActivityFilter{AccountID: f.caja.ID})
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.True(t, activity[0].Debit.Equal(activity[0].Credit))
}

func TestReverse_Guards(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	original, err := f.ledger.PostEntry(ctx, 1, f.saleHeader(), f.saleLines("500.00"))
	require.NoError(t, err)

	_, err = f.ledger.Reverse(ctx, 1, original.ID, "dup check")
	require.NoError(t, err)

	// Second reversal is rejected.
	_, err = f.ledger.Reverse(ctx, 1, original.ID, "again")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	// Drafts cannot be reversed.
	draftHeader := f.saleHeader()
	draftHeader.EntryNumber = "JE-002"
	draftHeader.Status = core.EntryStatusDraft
	draft, err := f.ledger.PostEntry(ctx, 1, draftHeader, f.saleLines("10.00"))
	require.NoError(t, err)
	_, err = f.ledger.Reverse(ctx, 1, draft.ID, "nope")
	assert.ErrorAs(t, err, &vErr)

	// Unknown and cross-tenant ids read as not found.
	_, err = f.ledger.Reverse(ctx, 1, 999, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.ledger.Reverse(ctx, 2, original.ID, "foreign")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReverse_StatusUpdateFailureIsNotFatal(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	original, err := f.ledger.PostEntry(ctx, 1, f.saleHeader(), f.saleLines("75.00"))
	require.NoError(t, err)

	f.journal.statusErr = errors.New("lock timeout")
	reversal, err := f.ledger.Reverse(ctx, 1, original.ID, "status update races")
	require.NoError(t, err)
	assert.NotZero(t, reversal.ID)
}

func TestActivity_ExcludesDrafts(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.ledger.PostEntry(ctx, 1, f.saleHeader(), f.saleLines("100.00"))
	require.NoError(t, err)

	draftHeader := f.saleHeader()
	draftHeader.EntryNumber = "JE-002"
	draftHeader.Status = core.EntryStatusDraft
	_, err = f.ledger.PostEntry(ctx, 1, draftHeader, f.saleLines("40.00"))
	require.NoError(t, err)

	activity, err := f.journal.Activity(ctx, 1, core.ActivityFilter{AccountID: f.caja.ID})
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.True(t, activity[0].Debit.Equal(dec("100.00")))
}
