package memory

import (
	"context"
	_ "embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"history-quiz/internal/domain"
)

//go:embed bank.yaml
var embeddedBanks []byte

// DefaultBankID is the bank shipped inside the binary.
const DefaultBankID = "history"

// BankLoader fetches a question bank from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.Bank, error)
}

// StaticBankLoader is a loader backed by an in-memory map (embedded data, tests, demos).
type StaticBankLoader struct {
	banks map[string]domain.Bank
}

func NewStaticBankLoader(banks ...domain.Bank) *StaticBankLoader {
	byID := make(map[string]domain.Bank, len(banks))
	for _, b := range banks {
		byID[b.ID] = b
	}
	return &StaticBankLoader{banks: byID}
}

// NewEmbeddedBankLoader serves the banks compiled into the binary.
func NewEmbeddedBankLoader() (*StaticBankLoader, error) {
	banks, err := EmbeddedBanks()
	if err != nil {
		return nil, err
	}
	return NewStaticBankLoader(banks...), nil
}

// EmbeddedBanks decodes the banks compiled into the binary.
func EmbeddedBanks() ([]domain.Bank, error) {
	var banks []domain.Bank
	if err := yaml.Unmarshal(embeddedBanks, &banks); err != nil {
		return nil, errors.Wrap(err, "decode embedded banks")
	}
	return banks, nil
}

// LoadBank returns a validated copy of the bank.
func (l *StaticBankLoader) LoadBank(_ context.Context, bankID string) (domain.Bank, error) {
	bank, ok := l.banks[bankID]
	if !ok {
		return domain.Bank{}, errors.Wrapf(domain.ErrBankNotFound, "bank %q", bankID)
	}
	if err := bank.Validate(); err != nil {
		return domain.Bank{}, err
	}
	return bank, nil
}
