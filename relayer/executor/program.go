package executor

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/store"
)

// RequestForExecutionArgs mirrors the executor's request_for_execution.
type RequestForExecutionArgs struct {
	Payer             solana.PublicKey
	Amount            uint64
	DstChain          uint16
	DstAddr           [32]byte
	RefundAddr        solana.PublicKey
	SignedQuote       []byte
	RequestBytes      []byte
	RelayInstructions []byte
}

// Program simulates the executor program: it pays the quote's payee and
// records the request for off-chain relayers.
type Program struct {
	localChain uint16
	now        func() time.Time
	logger     zerolog.Logger
}

// NewProgram creates an executor accepting quotes whose source is localChain.
func NewProgram(localChain uint16, logger zerolog.Logger) *Program {
	return &Program{
		localChain: localChain,
		now:        time.Now,
		logger:     logger.With().Str("component", "executor").Logger(),
	}
}

// RequestForExecution validates the quote against the request, moves
// Amount lamports from the payer to the payee and stores the request in
// the same transaction.
func (p *Program) RequestForExecution(tx *ledger.Tx, args RequestForExecutionArgs) (*store.ExecutionRequest, error) {
	quote, err := ParseSignedQuote(args.SignedQuote)
	if err != nil {
		return nil, err
	}
	if quote.SrcChain != p.localChain {
		return nil, tbrerrors.NewValidationError(fmt.Sprint(quote.SrcChain), "quote source chain is not this chain")
	}
	if quote.DstChain != args.DstChain {
		return nil, tbrerrors.NewValidationError(fmt.Sprint(args.DstChain),
			fmt.Sprintf("quote is for chain %d", quote.DstChain))
	}
	if quote.Expired(p.now()) {
		return nil, tbrerrors.NewValidationError("", "quote expired at "+quote.ExpiryTime.Format(time.RFC3339))
	}
	req, err := ParseRequest(args.RequestBytes)
	if err != nil {
		return nil, err
	}
	if _, err := ParseRelayInstructions(args.RelayInstructions); err != nil {
		return nil, err
	}

	payee := solana.PublicKey(quote.Payee)
	if err := tx.TransferLamports(args.Payer, payee, args.Amount); err != nil {
		return nil, err
	}

	chain, address, sequence := req.Message()
	record := &store.ExecutionRequest{
		Payer:             args.Payer.String(),
		Payee:             payee.String(),
		Amount:            args.Amount,
		DstChain:          args.DstChain,
		DstAddr:           hex.EncodeToString(args.DstAddr[:]),
		RefundAddr:        args.RefundAddr.String(),
		Kind:              string(req.Kind()),
		EmitterChain:      chain,
		EmitterAddress:    hex.EncodeToString(address[:]),
		Sequence:          sequence,
		SignedQuote:       args.SignedQuote,
		RequestBytes:      args.RequestBytes,
		RelayInstructions: args.RelayInstructions,
	}
	if err := tx.DB().Create(record).Error; err != nil {
		return nil, tbrerrors.NewDatabaseError("", "failed to record execution request", err)
	}

	p.logger.Info().
		Str("kind", record.Kind).
		Uint16("dst_chain", args.DstChain).
		Uint16("emitter_chain", chain).
		Uint64("sequence", sequence).
		Uint64("amount", args.Amount).
		Str("payee", record.Payee).
		Msg("execution requested")
	return record, nil
}
