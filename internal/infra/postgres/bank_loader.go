package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"history-quiz/internal/domain"
)

// BankLoader loads question banks from the banks and questions tables.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

// LoadBank returns the bank with questions in position order. The bank is
// validated before it is returned.
func (l *BankLoader) LoadBank(ctx context.Context, bankID string) (domain.Bank, error) {
	bank := domain.Bank{ID: bankID}
	err := l.pool.QueryRow(ctx, `SELECT title FROM banks WHERE id=$1`, bankID).Scan(&bank.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Bank{}, errors.Wrapf(domain.ErrBankNotFound, "bank %q", bankID)
	}
	if err != nil {
		return domain.Bank{}, errors.Wrap(err, "load bank")
	}

	rows, err := l.pool.Query(ctx, `SELECT text, options, correct_option FROM questions WHERE bank_id=$1 ORDER BY position`, bankID)
	if err != nil {
		return domain.Bank{}, errors.Wrap(err, "load questions")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.Text, &raw, &q.CorrectOption); err != nil {
			return domain.Bank{}, errors.Wrap(err, "scan question")
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return domain.Bank{}, errors.Wrap(err, "unmarshal options")
		}
		bank.Questions = append(bank.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Bank{}, errors.Wrap(err, "iterate questions")
	}

	if err := bank.Validate(); err != nil {
		return domain.Bank{}, err
	}
	return bank, nil
}
