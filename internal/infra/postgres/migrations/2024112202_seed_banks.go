package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"history-quiz/internal/infra/memory"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			banks, err := memory.EmbeddedBanks()
			if err != nil {
				return err
			}
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				for _, bank := range banks {
					if err := SeedBank(ctx, tx, bank); err != nil {
						return err
					}
				}
				return nil
			})
		},
		func(ctx context.Context, db *bun.DB) error {
			banks, err := memory.EmbeddedBanks()
			if err != nil {
				return err
			}
			for _, bank := range banks {
				if _, err := db.NewDelete().Model((*bankRow)(nil)).Where("id = ?", bank.ID).Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
