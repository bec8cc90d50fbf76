package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZinkM/wallet-store/internal/model"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedgerWithRetention(filepath.Join(t.TempDir(), "history"), DefaultRetentionDays)
}

func testRecord(hash, chainID string, ts time.Time, status model.TransactionStatus, value string) *model.TransactionRecord {
	return &model.TransactionRecord{
		Hash:      hash,
		From:      "0xsender",
		To:        "0xrecipient",
		Value:     value,
		ChainID:   chainID,
		Timestamp: ts.UTC().Format(time.RFC3339),
		Status:    status,
		Metadata:  model.TransactionMetadata{Type: "transfer"},
	}
}

func TestRecordAndReadBack(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()

	l.RecordTransaction(testRecord("0x1", "1", now, model.StatusPending, "100"))

	records, err := l.GetTransactionHistory(nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0x1", records[0].Hash)

	// shard file named {chainId}-{YYYYMMDD}.json
	shard := filepath.Join(l.dir, fmt.Sprintf("1-%s.json", now.Format("20060102")))
	_, err = os.Stat(shard)
	assert.NoError(t, err)
}

func TestRetentionWindow(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()
	old := now.AddDate(0, 0, -(DefaultRetentionDays + 1))

	l.RecordTransaction(testRecord("0xnew", "1", now, model.StatusSuccess, "100"))
	l.RecordTransaction(testRecord("0xold", "1", old, model.StatusSuccess, "100"))
	l.RecordTransaction(testRecord("0xnewer", "1", now, model.StatusPending, "50"))

	records, err := l.GetTransactionHistory(nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.NotEqual(t, "0xold", rec.Hash)
	}

	// the old record's shard became empty and was deleted
	oldShard := filepath.Join(l.dir, fmt.Sprintf("1-%s.json", old.Format("20060102")))
	_, err = os.Stat(oldShard)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupIsIdempotent(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()

	l.RecordTransaction(testRecord("0x1", "1", now, model.StatusSuccess, "100"))
	l.RecordTransaction(testRecord("0x2", "1", now.AddDate(0, 0, -1), model.StatusSuccess, "100"))

	l.CleanupOldTransactions()
	first, err := l.GetTransactionHistory(nil)
	require.NoError(t, err)

	shard := filepath.Join(l.dir, fmt.Sprintf("1-%s.json", now.Format("20060102")))
	st1, err := os.Stat(shard)
	require.NoError(t, err)

	l.CleanupOldTransactions()
	second, err := l.GetTransactionHistory(nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	st2, err := os.Stat(shard)
	require.NoError(t, err)
	assert.Equal(t, st1.ModTime(), st2.ModTime(), "untouched shard must not be rewritten")
}

func TestUpdateTransactionStatus(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()

	l.RecordTransaction(testRecord("0xaaa", "1", now, model.StatusPending, "100"))
	l.RecordTransaction(testRecord("0xbbb", "137", now, model.StatusPending, "200"))

	gas := "21000"
	block := int64(19000001)
	require.NoError(t, l.UpdateTransactionStatus("0xbbb", model.StatusSuccess, &gas, &block))

	records, err := l.GetTransactionHistory(nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		if rec.Hash == "0xbbb" {
			assert.Equal(t, model.StatusSuccess, rec.Status)
			assert.Equal(t, "21000", rec.GasUsed)
			assert.Equal(t, int64(19000001), rec.BlockNumber)
		} else {
			assert.Equal(t, model.StatusPending, rec.Status)
			assert.Empty(t, rec.GasUsed)
		}
	}
}

func TestUpdateTransactionStatusUnknownHash(t *testing.T) {
	l := newTestLedger(t)
	l.RecordTransaction(testRecord("0x1", "1", time.Now().UTC(), model.StatusPending, "1"))

	// unknown hash is a warning, not an error
	require.NoError(t, l.UpdateTransactionStatus("0xmissing", model.StatusSuccess, nil, nil))
}

func TestHistoryFilters(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)

	l.RecordTransaction(testRecord("0x1", "1", now, model.StatusSuccess, "100"))
	l.RecordTransaction(testRecord("0x2", "137", now, model.StatusFailed, "200"))
	l.RecordTransaction(testRecord("0x3", "1", yesterday, model.StatusPending, "300"))
	deploy := testRecord("0x4", "1", now, model.StatusSuccess, "0")
	deploy.Metadata.Type = "deploy"
	l.RecordTransaction(deploy)

	chain := "1"
	records, err := l.GetTransactionHistory(&model.TransactionFilter{ChainID: &chain})
	require.NoError(t, err)
	assert.Len(t, records, 3)

	status := model.StatusFailed
	records, err = l.GetTransactionHistory(&model.TransactionFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0x2", records[0].Hash)

	txType := "deploy"
	records, err = l.GetTransactionHistory(&model.TransactionFilter{Type: &txType})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0x4", records[0].Hash)

	records, err = l.GetTransactionHistory(&model.TransactionFilter{From: &now})
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = l.GetTransactionHistory(&model.TransactionFilter{To: &yesterday})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0x3", records[0].Hash)
}

func TestHistoryValueRangeFilter(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()

	l.RecordTransaction(testRecord("0xsmall", "1", now, model.StatusSuccess, "100"))
	l.RecordTransaction(testRecord("0xmid", "1", now, model.StatusSuccess, "1500000000000000000"))
	l.RecordTransaction(testRecord("0xbig", "1", now, model.StatusSuccess, "9000000000000000000"))

	minValue := "1000000000000000000"
	records, err := l.GetTransactionHistory(&model.TransactionFilter{MinValue: &minValue})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	maxValue := "1500000000000000000"
	records, err = l.GetTransactionHistory(&model.TransactionFilter{MinValue: &minValue, MaxValue: &maxValue})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0xmid", records[0].Hash)

	// bounds are inclusive
	exact := "100"
	records, err = l.GetTransactionHistory(&model.TransactionFilter{MinValue: &exact, MaxValue: &exact})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0xsmall", records[0].Hash)
}

func TestHistorySortedNewestFirstWithLimit(t *testing.T) {
	l := newTestLedger(t)
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		l.RecordTransaction(testRecord(
			fmt.Sprintf("0x%d", i), "1", base.Add(time.Duration(i)*time.Minute),
			model.StatusSuccess, "1"))
	}

	records, err := l.GetTransactionHistory(nil)
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i-1].Time().Before(records[i].Time()))
	}
	assert.Equal(t, "0x4", records[0].Hash)

	limit := 2
	records, err = l.GetTransactionHistory(&model.TransactionFilter{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "0x4", records[0].Hash)
	assert.Equal(t, "0x3", records[1].Hash)
}

func TestHistoryStableOrderOnEqualTimestamps(t *testing.T) {
	l := newTestLedger(t)
	ts := time.Now().UTC().Truncate(time.Second)

	l.RecordTransaction(testRecord("0xfirst", "1", ts, model.StatusSuccess, "1"))
	l.RecordTransaction(testRecord("0xsecond", "1", ts, model.StatusSuccess, "1"))

	records, err := l.GetTransactionHistory(nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "0xfirst", records[0].Hash)
	assert.Equal(t, "0xsecond", records[1].Hash)
}

func TestHistoryInvalidFilter(t *testing.T) {
	l := newTestLedger(t)

	from := time.Now().UTC()
	to := from.AddDate(0, 0, -2)
	_, err := l.GetTransactionHistory(&model.TransactionFilter{From: &from, To: &to})
	require.Error(t, err)

	bad := model.TransactionStatus("confirmed")
	_, err = l.GetTransactionHistory(&model.TransactionFilter{Status: &bad})
	require.Error(t, err)

	minValue := "200"
	maxValue := "100"
	_, err = l.GetTransactionHistory(&model.TransactionFilter{MinValue: &minValue, MaxValue: &maxValue})
	require.Error(t, err)

	garbage := "1.5"
	_, err = l.GetTransactionHistory(&model.TransactionFilter{MinValue: &garbage})
	require.Error(t, err)
}

func TestHistoryEmptyLedger(t *testing.T) {
	l := newTestLedger(t)

	records, err := l.GetTransactionHistory(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTransactionSummary(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()

	a := testRecord("0x1", "1", now.Add(-2*time.Hour), model.StatusSuccess, "1500000000000000000")
	a.GasUsed = "21000"
	l.RecordTransaction(a)

	b := testRecord("0x2", "137", now.Add(-time.Hour), model.StatusSuccess, "2500000000000000000")
	b.GasUsed = "65000"
	l.RecordTransaction(b)

	l.RecordTransaction(testRecord("0x3", "1", now, model.StatusFailed, "9000000000000000000"))

	s := l.GetTransactionSummary()
	assert.Equal(t, 3, s.TotalTransactions)
	assert.Equal(t, 2, s.SuccessfulTransactions)
	assert.Equal(t, 1, s.FailedTransactions)
	assert.Equal(t, "4000000000000000000", s.TotalValue) // failed value excluded
	assert.Equal(t, "86000", s.TotalGasUsed)
	assert.Equal(t, []string{"1", "137"}, s.Chains)
	assert.Equal(t, a.Timestamp, s.EarliestTimestamp)
	assert.Equal(t, testRecordTimestamp(now), s.LatestTimestamp)
}

func testRecordTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

func TestTransactionSummaryEmptyDefaultsToNow(t *testing.T) {
	l := newTestLedger(t)

	before := time.Now().UTC().Add(-time.Second)
	s := l.GetTransactionSummary()
	after := time.Now().UTC().Add(time.Second)

	assert.Zero(t, s.TotalTransactions)
	assert.Equal(t, "0", s.TotalValue)
	assert.Equal(t, "0", s.TotalGasUsed)

	earliest, err := time.Parse(time.RFC3339, s.EarliestTimestamp)
	require.NoError(t, err)
	assert.True(t, earliest.After(before) && earliest.Before(after))
	assert.Equal(t, s.EarliestTimestamp, s.LatestTimestamp)
}

func TestGetTransactionCount(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()

	l.RecordTransaction(testRecord("0x1", "1", now, model.StatusSuccess, "1"))
	l.RecordTransaction(testRecord("0x2", "1", now, model.StatusSuccess, "1"))
	l.RecordTransaction(testRecord("0x3", "137", now, model.StatusSuccess, "1"))

	assert.Equal(t, 2, l.GetTransactionCount("1"))
	assert.Equal(t, 1, l.GetTransactionCount("137"))
	assert.Equal(t, 0, l.GetTransactionCount("10"))
}

func TestReaderToleratesVanishedShard(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now().UTC()
	l.RecordTransaction(testRecord("0x1", "1", now, model.StatusSuccess, "1"))

	// simulate cleanup deleting the shard between listing and reading
	records := l.readShard(filepath.Join(l.dir, "1-19990101.json"))
	assert.Empty(t, records)
}

func TestRecordWithUnparsableTimestampIsDropped(t *testing.T) {
	l := newTestLedger(t)

	rec := testRecord("0xbad", "1", time.Now().UTC(), model.StatusPending, "1")
	rec.Timestamp = "not-a-time"
	l.RecordTransaction(rec)

	records, err := l.GetTransactionHistory(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
