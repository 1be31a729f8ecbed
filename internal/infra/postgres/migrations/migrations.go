package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"history-quiz/internal/domain"
)

var Migrations = migrate.NewMigrations()

type bankRow struct {
	bun.BaseModel `bun:"table:banks"`

	ID    string `bun:"id,pk"`
	Title string `bun:"title"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	BankID        string   `bun:"bank_id,pk"`
	Position      int      `bun:"position,pk"`
	Text          string   `bun:"text"`
	Options       []string `bun:"options,type:jsonb"`
	CorrectOption string   `bun:"correct_option"`
}

// SeedBank inserts a bank and its questions, leaving existing rows untouched.
func SeedBank(ctx context.Context, db bun.IDB, bank domain.Bank) error {
	if _, err := db.NewInsert().
		Model(&bankRow{ID: bank.ID, Title: bank.Title}).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx); err != nil {
		return err
	}
	if len(bank.Questions) == 0 {
		return nil
	}
	rows := make([]questionRow, 0, len(bank.Questions))
	for i, q := range bank.Questions {
		rows = append(rows, questionRow{
			BankID:        bank.ID,
			Position:      i,
			Text:          q.Text,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
		})
	}
	_, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (bank_id, position) DO NOTHING").
		Exec(ctx)
	return err
}
