// Package store contains GORM-backed SQLite models used by the relayer.
//
// Database Structure (database file: relayer.db):
//
//	relayer.db
//	├── accounts            host ledger accounts, keyed by base58 address
//	├── execution_requests  requests emitted to the executor
//	└── redemptions         completed inbound transfers
package store

import (
	"time"

	"gorm.io/gorm"
)

// Account is one entry of the host key-value account store. Closing an
// account deletes the row, so there is no soft delete.
type Account struct {
	Key       string `gorm:"primaryKey"` // base58 address
	Owner     string `gorm:"index"`      // owning program, base58
	Lamports  uint64
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExecutionRequest records a paid request for off-chain execution.
type ExecutionRequest struct {
	gorm.Model
	Payer             string `gorm:"index"`
	Payee             string
	Amount            uint64 // lamports paid to the payee
	DstChain          uint16 `gorm:"index"`
	DstAddr           string // hex, 32 bytes
	RefundAddr        string
	Kind              string `gorm:"index"` // "ERV1", "ERM1" or "ERN1"
	EmitterChain      uint16 `gorm:"index:idx_request_message"`
	EmitterAddress    string `gorm:"index:idx_request_message"` // hex
	Sequence          uint64 `gorm:"index:idx_request_message"`
	SignedQuote       []byte
	RequestBytes      []byte
	RelayInstructions []byte
}

// Redemption records a completed inbound transfer.
type Redemption struct {
	gorm.Model
	VAAHash        string `gorm:"uniqueIndex;not null"` // hex keccak256 of the body
	EmitterChain   uint16 `gorm:"index"`
	EmitterAddress string // hex
	Sequence       uint64
	Mint           string
	Recipient      string `gorm:"index"`
	Amount         uint64 // denormalized, in mint units
	Native         bool   // token chain was the local chain
	Unwrapped      bool   // native mint paid out as lamports
}
