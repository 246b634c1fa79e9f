package collectors

import (
	"context"

	"ecoregistry/internal/registry/models"
)

// OnChain reports the on-chain footprint fields. No ledger integration exists
// yet, so every field is null.
func OnChain() Collector {
	fields := []string{
		models.FieldDailyTransactions,
		models.FieldActiveParties,
		models.FieldContractCount,
		models.FieldTotalValueLocked,
		models.FieldFirstOnchainActivity,
		models.FieldLastOnchainActivity,
	}
	return Collector{
		Name:   "onchain",
		Fields: fields,
		Collect: func(context.Context, API, Input) (Result, error) {
			res := newResult()
			for _, f := range fields {
				res.set(f, nil)
			}
			res.note("On-chain integration pending; on-chain fields left null")
			return res, nil
		},
	}
}
