package scoring

import (
	"errors"

	"github.com/okian/tourney/internal/domain/model"
)

var (
	// ErrMalformedFact marks a fact that cannot be scored. It is never retried.
	ErrMalformedFact = model.ErrMalformedFact

	// ErrInvariant marks a broken ledger invariant. The transaction that
	// hit it must be rolled back.
	ErrInvariant = errors.New("ledger invariant violated")
)
