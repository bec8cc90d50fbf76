// Package ledger implements the sharded transaction history: one JSON file
// per (chain, UTC calendar day) holding an ordered list of records, with a
// rolling retention window enforced after every insert.
//
// There is no in-process or cross-process locking. Two concurrent writers on
// the same shard perform independent read-modify-write cycles and the last
// writer wins; readers tolerate a shard disappearing between listing and
// reading. This matches the single-user contract of the store.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AlexZinkM/wallet-store/internal/common"
	"github.com/AlexZinkM/wallet-store/internal/config"
	"github.com/AlexZinkM/wallet-store/internal/logging"
	"github.com/AlexZinkM/wallet-store/internal/model"
)

// DefaultRetentionDays is the rolling number of days a record remains before
// automatic deletion.
const DefaultRetentionDays = 7

const shardDateLayout = "20060102"

var shardNameRe = regexp.MustCompile(`^(.+)-(\d{8})\.json$`)

// Ledger manages transaction shards under one history directory
type Ledger struct {
	dir           string
	retentionDays int
}

// NewLedger creates a ledger over dir with the configured retention window
func NewLedger(dir string) *Ledger {
	return &Ledger{dir: dir, retentionDays: config.GetRetentionDays()}
}

// NewLedgerWithRetention creates a ledger with an explicit retention window
func NewLedgerWithRetention(dir string, retentionDays int) *Ledger {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Ledger{dir: dir, retentionDays: retentionDays}
}

// shardPath returns the shard file for a chain and timestamp: the shard key
// is the UTC calendar date of the record timestamp.
func (l *Ledger) shardPath(chainID string, ts time.Time) string {
	name := fmt.Sprintf("%s-%s.json", chainID, ts.UTC().Format(shardDateLayout))
	return filepath.Join(l.dir, name)
}

// parseShardName splits a shard filename into chain id and date
func parseShardName(name string) (chainID string, date time.Time, ok bool) {
	m := shardNameRe.FindStringSubmatch(name)
	if m == nil {
		return "", time.Time{}, false
	}
	d, err := time.ParseInLocation(shardDateLayout, m[2], time.UTC)
	if err != nil {
		return "", time.Time{}, false
	}
	return m[1], d, true
}

// readShard loads one shard file. A missing file — including one deleted by
// concurrent cleanup between listing and reading — yields no records.
func (l *Ledger) readShard(path string) []model.TransactionRecord {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.L().Warn("failed to read transaction shard",
				zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	var records []model.TransactionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		logging.L().Warn("failed to parse transaction shard",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	return records
}

func (l *Ledger) writeShard(path string, records []model.TransactionRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal shard: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write shard: %w", err)
	}
	return nil
}

// listShards returns shard filenames in lexical order
func (l *Ledger) listShards() []string {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.L().Warn("failed to list transaction shards",
				zap.String("dir", l.dir), zap.Error(err))
		}
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	return names
}

// RecordTransaction appends the record to its (chain, day) shard, creating
// the file if absent, then runs retention cleanup so stale data never
// accumulates. Recording is best-effort relative to the wallet operation it
// accompanies: failures are logged, never propagated.
func (l *Ledger) RecordTransaction(rec *model.TransactionRecord) {
	ts := rec.Time()
	if ts.IsZero() {
		logging.L().Warn("transaction has unparsable timestamp, not recorded",
			zap.String("hash", rec.Hash), zap.String("timestamp", rec.Timestamp))
		return
	}

	if err := os.MkdirAll(l.dir, 0o700); err != nil {
		logging.L().Warn("failed to create history directory",
			zap.String("dir", l.dir), zap.Error(err))
		return
	}

	path := l.shardPath(rec.ChainID, ts)
	records := l.readShard(path)
	records = append(records, *rec)
	if err := l.writeShard(path, records); err != nil {
		logging.L().Warn("failed to record transaction",
			zap.String("hash", rec.Hash), zap.Error(err))
		return
	}

	l.CleanupOldTransactions()
}

// UpdateTransactionStatus scans every shard for a record with the given hash
// and patches status, gas used and block number on the first match. Logs a
// warning if no shard contains the hash.
func (l *Ledger) UpdateTransactionStatus(hash string, status model.TransactionStatus, gasUsed *string, blockNumber *int64) error {
	for _, name := range l.listShards() {
		path := filepath.Join(l.dir, name)
		records := l.readShard(path)
		for i := range records {
			if records[i].Hash != hash {
				continue
			}
			records[i].Status = status
			if gasUsed != nil {
				records[i].GasUsed = *gasUsed
			}
			if blockNumber != nil {
				records[i].BlockNumber = *blockNumber
			}
			return l.writeShard(path, records)
		}
	}
	logging.L().Warn("transaction not found for status update", zap.String("hash", hash))
	return nil
}

// GetTransactionHistory returns records matching the filter, newest first.
// Shards whose filename is inconsistent with the chain/date filters are never
// read. The sort is stable: records with identical timestamps keep their
// file/array encounter order.
func (l *Ledger) GetTransactionHistory(filter *model.TransactionFilter) ([]model.TransactionRecord, error) {
	if filter == nil {
		filter = &model.TransactionFilter{}
	}
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transaction filter: %w", err)
	}

	var result []model.TransactionRecord
	for _, name := range l.listShards() {
		chainID, shardDate, ok := parseShardName(name)
		if !ok {
			continue
		}
		if filter.ChainID != nil && chainID != *filter.ChainID {
			continue
		}
		if filter.From != nil && shardDate.Before(dayOf(*filter.From)) {
			continue
		}
		if filter.To != nil && shardDate.After(dayOf(*filter.To)) {
			continue
		}

		for _, rec := range l.readShard(filepath.Join(l.dir, name)) {
			if filter.Status != nil && rec.Status != *filter.Status {
				continue
			}
			if filter.Type != nil && rec.Metadata.Type != *filter.Type {
				continue
			}
			ts := rec.Time()
			if filter.From != nil && ts.Before(dayOf(*filter.From)) {
				continue
			}
			if filter.To != nil && !ts.Before(dayOf(*filter.To).AddDate(0, 0, 1)) {
				continue
			}
			// value bounds use integer comparison to avoid float precision
			// issues; a record with a malformed value never matches a bound
			if filter.MinValue != nil {
				cmp, err := common.CompareBaseUnits(rec.Value, *filter.MinValue)
				if err != nil || cmp < 0 {
					continue
				}
			}
			if filter.MaxValue != nil {
				cmp, err := common.CompareBaseUnits(rec.Value, *filter.MaxValue)
				if err != nil || cmp > 0 {
					continue
				}
			}
			result = append(result, rec)
		}
	}

	// Sort by time DESC (newest first), stable across equal timestamps
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Time().After(result[j].Time())
	})

	if filter.Limit != nil && len(result) > *filter.Limit {
		result = result[:*filter.Limit]
	}
	return result, nil
}

// dayOf truncates a time to its UTC calendar day
func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// GetTransactionCount returns the number of records for a chain, 0 on any
// read failure.
func (l *Ledger) GetTransactionCount(chainID string) int {
	records, err := l.GetTransactionHistory(&model.TransactionFilter{ChainID: &chainID})
	if err != nil {
		return 0
	}
	return len(records)
}

// CleanupOldTransactions removes records older than the retention window
// (cutoff = now minus retention days). Shards that become empty are deleted;
// shards that shrink are rewritten; untouched shards are left as-is. Running
// it twice with no new data produces no further change. Failures are logged
// and absorbed.
func (l *Ledger) CleanupOldTransactions() {
	cutoff := time.Now().UTC().AddDate(0, 0, -l.retentionDays)

	for _, name := range l.listShards() {
		path := filepath.Join(l.dir, name)
		records := l.readShard(path)
		if len(records) == 0 {
			continue
		}

		kept := records[:0:0]
		for _, rec := range records {
			if !rec.Time().Before(cutoff) {
				kept = append(kept, rec)
			}
		}
		if len(kept) == len(records) {
			continue
		}

		if len(kept) == 0 {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logging.L().Warn("failed to delete empty shard",
					zap.String("path", path), zap.Error(err))
			}
			continue
		}
		if err := l.writeShard(path, kept); err != nil {
			logging.L().Warn("failed to rewrite shard during cleanup",
				zap.String("path", path), zap.Error(err))
		}
	}
}
