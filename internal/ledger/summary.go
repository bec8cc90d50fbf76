package ledger

import (
	"math/big"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/AlexZinkM/wallet-store/internal/common"
	"github.com/AlexZinkM/wallet-store/internal/logging"
	"github.com/AlexZinkM/wallet-store/internal/model"
)

// GetTransactionSummary aggregates over the entire unfiltered record set:
// counts per status, exact big-integer sums of value and gas used over
// successful records, the distinct chains seen, and the earliest/latest
// timestamps (both defaulting to now when the ledger is empty).
func (l *Ledger) GetTransactionSummary() *model.TransactionSummary {
	summary := &model.TransactionSummary{}

	totalValue := new(big.Int)
	totalGas := new(big.Int)
	chains := make(map[string]struct{})
	var earliest, latest time.Time

	for _, name := range l.listShards() {
		for _, rec := range l.readShard(filepath.Join(l.dir, name)) {
			summary.TotalTransactions++
			chains[rec.ChainID] = struct{}{}

			ts := rec.Time()
			if !ts.IsZero() {
				if earliest.IsZero() || ts.Before(earliest) {
					earliest = ts
				}
				if latest.IsZero() || ts.After(latest) {
					latest = ts
				}
			}

			switch rec.Status {
			case model.StatusSuccess:
				summary.SuccessfulTransactions++
				addBaseUnits(totalValue, rec.Value, rec.Hash, "value")
				if rec.GasUsed != "" {
					addBaseUnits(totalGas, rec.GasUsed, rec.Hash, "gasUsed")
				}
			case model.StatusFailed:
				summary.FailedTransactions++
			}
		}
	}

	summary.TotalValue = totalValue.String()
	summary.TotalGasUsed = totalGas.String()

	summary.Chains = make([]string, 0, len(chains))
	for c := range chains {
		summary.Chains = append(summary.Chains, c)
	}
	sort.Strings(summary.Chains)

	now := time.Now().UTC()
	if earliest.IsZero() {
		earliest = now
	}
	if latest.IsZero() {
		latest = now
	}
	summary.EarliestTimestamp = earliest.Format(time.RFC3339)
	summary.LatestTimestamp = latest.Format(time.RFC3339)

	return summary
}

// addBaseUnits adds a decimal-string amount into sum, logging and skipping
// malformed amounts instead of failing the whole summary.
func addBaseUnits(sum *big.Int, amount, hash, field string) {
	n, err := common.ParseBaseUnits(amount)
	if err != nil {
		logging.L().Warn("skipping malformed amount in summary",
			zap.String("hash", hash), zap.String("field", field), zap.Error(err))
		return
	}
	sum.Add(sum, n)
}
