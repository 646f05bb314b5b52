package relay

import (
	"github.com/gagliardetto/solana-go"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/bridge"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/executor"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/store"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/token"
)

// TokenBridge is the trusted token bridge and its core bridge.
type TokenBridge interface {
	TransferNativeWithPayload(tx *ledger.Tx, args bridge.TransferArgs) (*bridge.Published, error)
	TransferWrappedWithPayload(tx *ledger.Tx, args bridge.TransferArgs) (*bridge.Published, error)
	CompleteNativeWithPayload(tx *ledger.Tx, args bridge.CompleteArgs) (*bridge.Completed, error)
	CompleteWrappedWithPayload(tx *ledger.Tx, args bridge.CompleteArgs) (*bridge.Completed, error)

	PostedVAA(tx *ledger.Tx, key solana.PublicKey) (*bridge.Posted, error)
	WrappedMeta(tx *ledger.Tx, mint solana.PublicKey) (*bridge.WrappedMeta, error)
	IsClaimed(tx *ledger.Tx, emitterChain uint16, emitterAddress [32]byte, sequence uint64) (bool, error)
	NextSequence(tx *ledger.Tx, emitter solana.PublicKey) (uint64, error)
}

// Executor accepts paid execution requests.
type Executor interface {
	RequestForExecution(tx *ledger.Tx, args executor.RequestForExecutionArgs) (*store.ExecutionRequest, error)
}

// TokenProgram is the subset of the token program the relay drives.
type TokenProgram interface {
	ID() solana.PublicKey
	GetMint(tx *ledger.Tx, key solana.PublicKey) (*token.Mint, error)
	GetAccount(tx *ledger.Tx, key solana.PublicKey) (*token.TokenAccount, error)
	InitializeAccount(tx *ledger.Tx, payer, key, mint, owner solana.PublicKey) error
	CreateAssociatedAccount(tx *ledger.Tx, payer, owner, mint solana.PublicKey) (solana.PublicKey, error)
	TransferChecked(tx *ledger.Tx, from, mint, to, authority solana.PublicKey, amount uint64, decimals uint8) error
	Approve(tx *ledger.Tx, account, delegate, owner solana.PublicKey, amount uint64) error
	SyncNative(tx *ledger.Tx, account solana.PublicKey) error
	CloseAccount(tx *ledger.Tx, account, dest, authority solana.PublicKey) error
}

var (
	_ TokenBridge  = (*bridge.Bridge)(nil)
	_ Executor     = (*executor.Program)(nil)
	_ TokenProgram = (*token.Program)(nil)
)
