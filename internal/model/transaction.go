package model

import (
	"fmt"
	"time"

	"github.com/AlexZinkM/wallet-store/internal/common"
)

// TransactionStatus transaction lifecycle status
type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusSuccess TransactionStatus = "success"
	StatusFailed  TransactionStatus = "failed"
)

// TransactionMetadata carries the operation type plus optional contract context
type TransactionMetadata struct {
	Type            string `json:"type"`
	ContractAddress string `json:"contractAddress,omitempty"`
	FunctionName    string `json:"functionName,omitempty"`
}

// TransactionRecord represents one recorded transaction. Hash is the identity
// key within a ledger; Status, GasUsed and BlockNumber may be patched exactly
// once when a pending transaction resolves, everything else is immutable.
type TransactionRecord struct {
	Hash        string              `json:"hash"`
	From        string              `json:"from"`
	To          string              `json:"to"`
	Value       string              `json:"value"` // base-unit integer as decimal string
	ChainID     string              `json:"chainId"`
	Timestamp   string              `json:"timestamp"` // RFC3339
	Status      TransactionStatus   `json:"status"`
	Metadata    TransactionMetadata `json:"metadata"`
	GasUsed     string              `json:"gasUsed,omitempty"`
	BlockNumber int64               `json:"blockNumber,omitempty"`
}

// Time parses the record timestamp. Zero time on parse failure.
func (r *TransactionRecord) Time() time.Time {
	t, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// TransactionFilter represents query parameters for transaction history
type TransactionFilter struct {
	ChainID  *string
	Status   *TransactionStatus
	Type     *string
	From     *time.Time
	To       *time.Time
	MinValue *string // base-unit decimal string
	MaxValue *string
	Limit    *int
}

// Validate validates TransactionFilter parameters.
func (f *TransactionFilter) Validate() error {
	if f.Status != nil && *f.Status != StatusPending && *f.Status != StatusSuccess && *f.Status != StatusFailed {
		return fmt.Errorf("status must be pending, success or failed")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("to date must be after or equal to from date")
	}
	if f.MinValue != nil {
		if _, err := common.ParseBaseUnits(*f.MinValue); err != nil {
			return fmt.Errorf("invalid minValue: %w", err)
		}
	}
	if f.MaxValue != nil {
		if _, err := common.ParseBaseUnits(*f.MaxValue); err != nil {
			return fmt.Errorf("invalid maxValue: %w", err)
		}
	}
	if f.MinValue != nil && f.MaxValue != nil {
		cmp, err := common.CompareBaseUnits(*f.MinValue, *f.MaxValue)
		if err != nil {
			return fmt.Errorf("invalid value bound: %w", err)
		}
		if cmp == 1 {
			return fmt.Errorf("minValue must be less than or equal to maxValue")
		}
	}
	if f.Limit != nil && *f.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	return nil
}

// TransactionSummary represents aggregates over the entire ledger
type TransactionSummary struct {
	TotalTransactions      int      `json:"totalTransactions"`
	SuccessfulTransactions int      `json:"successfulTransactions"`
	FailedTransactions     int      `json:"failedTransactions"`
	TotalValue             string   `json:"totalValue"`   // sum over successful records
	TotalGasUsed           string   `json:"totalGasUsed"` // sum over successful records with gas
	Chains                 []string `json:"chains"`
	EarliestTimestamp      string   `json:"earliestTimestamp"`
	LatestTimestamp        string   `json:"latestTimestamp"`
}
