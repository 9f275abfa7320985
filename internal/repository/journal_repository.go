package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brightraise/couponbook-platform/internal/ledger"
	"github.com/brightraise/couponbook-platform/internal/service"
	"github.com/brightraise/couponbook-platform/pkg/database"
)

// JournalPoolInterface defines the database operations needed by JournalRepository.
type JournalPoolInterface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// JournalRepository provides data access for journal entries using pgx.
// The header and its lines are always written inside the caller's
// transaction so a failed line insert rolls the header back too.
type JournalRepository struct {
	pool JournalPoolInterface
}

// NewJournalRepository creates a new JournalRepository with the given pool.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

// NewJournalRepositoryWithPool creates a new JournalRepository with a custom pool interface.
// This is primarily used for testing.
func NewJournalRepositoryWithPool(pool JournalPoolInterface) *JournalRepository {
	return &JournalRepository{pool: pool}
}

// InsertEntry writes a journal entry header and its lines within a transaction.
func (r *JournalRepository) InsertEntry(ctx context.Context, tx database.TxQuerier, entryID string, event *ledger.Event) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO journal_entries (id, event_type, occurred_at, description, source_id, school_id, created_by)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`,
		entryID, event.Type, event.OccurredAt, event.Description, event.SourceID, event.SchoolID, event.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	for i, line := range event.Lines {
		_, err := tx.Exec(ctx,
			`INSERT INTO journal_lines (entry_id, line_no, account_code, amount_cents, side)
			 VALUES ($1, $2, $3, $4, $5)`,
			entryID, i+1, line.AccountCode, line.AmountCents, line.Side)
		if err != nil {
			return fmt.Errorf("insert journal line %d: %w", i+1, err)
		}
	}
	return nil
}

// GetEntry retrieves a journal entry and its lines by id.
// Returns service.ErrEntryNotFound if the entry doesn't exist.
func (r *JournalRepository) GetEntry(ctx context.Context, entryID string) (*ledger.EntryRecord, error) {
	var record ledger.EntryRecord
	err := r.pool.QueryRow(ctx,
		`SELECT id, event_type, occurred_at, description, source_id, COALESCE(school_id, ''), created_by
		 FROM journal_entries WHERE id = $1`,
		entryID).Scan(
		&record.ID, &record.Type, &record.OccurredAt, &record.Description,
		&record.SourceID, &record.SchoolID, &record.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrEntryNotFound
		}
		return nil, fmt.Errorf("get journal entry %s: %w", entryID, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT account_code, amount_cents, side FROM journal_lines
		 WHERE entry_id = $1 ORDER BY line_no`,
		entryID)
	if err != nil {
		return nil, fmt.Errorf("get journal lines for %s: %w", entryID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line ledger.JournalLine
		if err := rows.Scan(&line.AccountCode, &line.AmountCents, &line.Side); err != nil {
			return nil, fmt.Errorf("scan journal line: %w", err)
		}
		record.Lines = append(record.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal lines: %w", err)
	}
	return &record, nil
}

// TrialBalance sums the debit and credit columns per account across all
// journal lines.
func (r *JournalRepository) TrialBalance(ctx context.Context) ([]ledger.TrialBalanceRow, error) {
	query := `SELECT account_code,
	                 COALESCE(SUM(amount_cents) FILTER (WHERE side = 'debit'), 0),
	                 COALESCE(SUM(amount_cents) FILTER (WHERE side = 'credit'), 0)
	          FROM journal_lines GROUP BY account_code ORDER BY account_code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query trial balance: %w", err)
	}
	defer rows.Close()

	balance := []ledger.TrialBalanceRow{}
	for rows.Next() {
		var row ledger.TrialBalanceRow
		if err := rows.Scan(&row.AccountCode, &row.DebitCents, &row.CreditCents); err != nil {
			return nil, fmt.Errorf("scan trial balance row: %w", err)
		}
		balance = append(balance, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trial balance rows: %w", err)
	}
	return balance, nil
}
