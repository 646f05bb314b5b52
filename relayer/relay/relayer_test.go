package relay

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/bridge"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/db"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/executor"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/registry"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/store"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/token"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/tokenbridge"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/vaa"
)

const (
	localChain  = 1
	payerFunds  = 1_000_000_000_000
	bridgeFee   = 100
	execAmount  = 5_000
	foreignSeq0 = 1_000
)

var (
	payer         = solana.PublicKey{0xaa, 31: 0x01}
	mintKey       = solana.PublicKey{0xcc, 31: 0x03}
	payerTokens   = solana.PublicKey{0xdd, 31: 0x04}
	wallet        = solana.PublicKey{0xee, 31: 0x05}
	foreignBridge = [32]byte{0x22, 31: 0x22}
	recipient     = [32]byte{0x44, 31: 0x44}
	payee         = [32]byte{0x55, 31: 0x55}
)

type env struct {
	store    *ledger.Store
	deriver  *pda.Deriver
	tokens   *token.Program
	bridge   *bridge.Bridge
	registry *registry.Registry
	executor *executor.Program
	resolver *resolver.Resolver
	relayer  *Relayer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logger := zerolog.New(zerolog.NewTestWriter(t))
	e := &env{
		store:   ledger.NewStore(database, logger),
		deriver: pda.NewDeriver(pda.DefaultPrograms()),
		tokens:  token.NewProgram(logger),
	}
	e.bridge = bridge.New(e.deriver, e.tokens, localChain, logger)
	e.registry = registry.New(e.deriver, localChain, logger)
	e.executor = executor.NewProgram(localChain, logger)
	e.resolver = resolver.New(e.deriver, localChain, logger)
	e.relayer = e.newRelayer(e.bridge, logger)

	e.atomic(t, func(tx *ledger.Tx) error {
		require.NoError(t, tx.Credit(payer, payerFunds))
		require.NoError(t, e.bridge.Initialize(tx, payer, bridgeFee))
		_, err := e.bridge.RegisterChain(tx, payer, 2, foreignBridge)
		require.NoError(t, err)
		require.NoError(t, e.registry.Initialize(tx, payer))
		_, err = e.registry.Register(tx, payer, 2, foreignBridge)
		return err
	})
	return e
}

func (e *env) newRelayer(b TokenBridge, logger zerolog.Logger) *Relayer {
	return New(Options{
		Store:      e.store,
		Deriver:    e.deriver,
		Registry:   e.registry,
		Bridge:     b,
		Executor:   e.executor,
		Tokens:     e.tokens,
		LocalChain: localChain,
		Logger:     logger,
	})
}

func (e *env) atomic(t *testing.T, fn func(tx *ledger.Tx) error) {
	t.Helper()
	require.NoError(t, e.store.Atomic(context.Background(), fn))
}

// fund creates a mint with the payer as authority and gives the payer
// balance tokens in payerTokens.
func (e *env) fund(t *testing.T, decimals uint8, balance uint64) {
	e.atomic(t, func(tx *ledger.Tx) error {
		authority := payer
		require.NoError(t, e.tokens.InitializeMint(tx, payer, mintKey, decimals, &authority))
		require.NoError(t, e.tokens.InitializeAccount(tx, payer, payerTokens, mintKey, payer))
		return e.tokens.MintTo(tx, mintKey, payerTokens, payer, balance)
	})
}

func (e *env) balance(t *testing.T, key solana.PublicKey) uint64 {
	t.Helper()
	var out uint64
	e.atomic(t, func(tx *ledger.Tx) error {
		ta, err := e.tokens.GetAccount(tx, key)
		require.NoError(t, err)
		out = ta.Amount
		return nil
	})
	return out
}

func (e *env) lamports(t *testing.T, key solana.PublicKey) uint64 {
	t.Helper()
	acct, err := e.store.Get(context.Background(), key)
	if tbrerrors.IsChainError(err, tbrerrors.ErrCodeAccountNotFound) {
		return 0
	}
	require.NoError(t, err)
	return acct.Lamports
}

func (e *env) exists(t *testing.T, key solana.PublicKey) bool {
	t.Helper()
	var ok bool
	e.atomic(t, func(tx *ledger.Tx) (err error) {
		ok, err = tx.Exists(key)
		return
	})
	return ok
}

func (e *env) post(t *testing.T, raw []byte) {
	e.atomic(t, func(tx *ledger.Tx) error {
		_, err := e.bridge.PostVAA(tx, payer, raw)
		return err
	})
}

func signedQuote(t *testing.T, dst uint16) []byte {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	raw, err := executor.QuoteFields{
		Quoter:      crypto.PubkeyToAddress(key.PublicKey),
		Payee:       payee,
		SrcChain:    localChain,
		DstChain:    dst,
		ExpiryTime:  time.Now().Add(time.Hour),
		BaseFee:     1,
		DstGasPrice: 1,
		SrcPrice:    1,
		DstPrice:    1,
	}.Sign(func(digest []byte) ([]byte, error) { return crypto.Sign(digest, key) })
	require.NoError(t, err)
	return raw
}

func transferArgs(t *testing.T, amount uint64) TransferArgs {
	instructions, err := executor.EncodeRelayInstructions(executor.GasInstruction{
		GasLimit: uint256.NewInt(250_000),
		MsgValue: uint256.NewInt(0),
	})
	require.NoError(t, err)
	return TransferArgs{
		Payer:             payer,
		Mint:              mintKey,
		FromToken:         payerTokens,
		Amount:            amount,
		RecipientChain:    2,
		RecipientAddress:  recipient,
		Nonce:             7,
		ExecAmount:        execAmount,
		SignedQuote:       signedQuote(t, 2),
		RelayInstructions: instructions,
	}
}

func inbound(sequence uint64, fields tokenbridge.TransferWithMessageFields) []byte {
	return vaa.Header{
		Timestamp:        1_700_000_000,
		EmitterChain:     2,
		EmitterAddress:   foreignBridge,
		Sequence:         sequence,
		ConsistencyLevel: 1,
	}.Encode(fields.Encode())
}

func relayFields(amount uint64, tokenAddress [32]byte, tokenChain uint16, to solana.PublicKey) tokenbridge.TransferWithMessageFields {
	return tokenbridge.TransferWithMessageFields{
		Amount:        uint256.NewInt(amount),
		TokenAddress:  tokenAddress,
		TokenChain:    tokenChain,
		Redeemer:      pda.DefaultRelayerProgramID,
		RedeemerChain: localChain,
		Sender:        foreignBridge,
		Payload:       tokenbridge.RelayerMessage{Recipient: to}.Encode(),
	}
}

func TestTransferNative_EndToEnd(t *testing.T) {
	e := newEnv(t)
	e.fund(t, 6, 3_000_000_000)

	receipt, err := e.relayer.TransferNativeTokensWithRelay(context.Background(), transferArgs(t, 1_000_000_000))
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000_000_000), receipt.Amount)
	assert.Equal(t, []State{StateIdle, StateFunded, StateDelegated, StateBridged, StateClosed}, receipt.States)
	assert.Equal(t, uint64(0), receipt.Sequence)

	assert.Equal(t, uint64(2_000_000_000), e.balance(t, payerTokens))
	assert.Equal(t, uint64(1_000_000_000), e.balance(t, e.deriver.Custody(mintKey)))
	assert.False(t, e.exists(t, e.deriver.Tmp(mintKey)), "escrow closed")

	e.atomic(t, func(tx *ledger.Tx) error {
		msg, err := e.bridge.Message(tx, receipt.Message)
		require.NoError(t, err)
		assert.Equal(t, uint32(7), msg.Nonce)
		twm, err := tokenbridge.ParseTransferWithMessagePayload(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000_000_000), twm.Amount().Uint64())
		assert.Equal(t, uint16(2), twm.RedeemerChain())
		assert.Equal(t, foreignBridge, twm.Redeemer(), "defaults to the registered contract")
		assert.Equal(t, [32]byte(pda.DefaultRelayerProgramID), twm.Sender())
		assert.Equal(t, recipient[:], twm.Payload())
		return nil
	})

	record := receipt.Execution
	require.NotNil(t, record)
	raw := record.RequestBytes
	require.Len(t, raw, executor.VAAv1RequestLen)
	assert.Equal(t, []byte("ERV1"), raw[:4])
	assert.Equal(t, uint16(localChain), binary.BigEndian.Uint16(raw[4:6]))
	assert.Equal(t, e.deriver.Emitter().Bytes(), raw[6:38])
	assert.Equal(t, receipt.Sequence, binary.BigEndian.Uint64(raw[38:46]))
	assert.Equal(t, uint16(2), record.DstChain)
	assert.Equal(t, solana.PublicKey(payee).String(), record.Payee)
	assert.Equal(t, uint64(execAmount), e.lamports(t, solana.PublicKey(payee)))

	second, err := e.relayer.TransferNativeTokensWithRelay(context.Background(), transferArgs(t, 1_000_000_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), second.Sequence)
	assert.Equal(t, uint64(1), second.Request.Sequence)
}

func TestTransferNative_Truncation(t *testing.T) {
	e := newEnv(t)
	e.fund(t, 9, 500_000_000)

	receipt, err := e.relayer.TransferNativeTokensWithRelay(context.Background(), transferArgs(t, 123_456_789))
	require.NoError(t, err)
	assert.Equal(t, uint64(123_456_780), receipt.Amount)
	assert.Equal(t, uint64(500_000_000-123_456_780), e.balance(t, payerTokens), "dust stays with the sender")

	e.atomic(t, func(tx *ledger.Tx) error {
		msg, err := e.bridge.Message(tx, receipt.Message)
		require.NoError(t, err)
		twm, err := tokenbridge.ParseTransferWithMessagePayload(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, uint64(12_345_678), twm.Amount().Uint64())
		return nil
	})
}

func TestTransferNative_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		decimals uint8
		mutate   func(a *TransferArgs)
		code     tbrerrors.ErrorCode
	}{
		{"truncates to zero", 12, func(a *TransferArgs) { a.Amount = 100 }, tbrerrors.ErrCodeZeroBridgeAmount},
		{"zero amount", 6, func(a *TransferArgs) { a.Amount = 0 }, tbrerrors.ErrCodeZeroBridgeAmount},
		{"chain zero", 6, func(a *TransferArgs) { a.RecipientChain = 0 }, tbrerrors.ErrCodeInvalidRecipient},
		{"local chain", 6, func(a *TransferArgs) { a.RecipientChain = localChain }, tbrerrors.ErrCodeInvalidRecipient},
		{"zero address", 6, func(a *TransferArgs) { a.RecipientAddress = [32]byte{} }, tbrerrors.ErrCodeInvalidRecipient},
		{"unregistered chain", 6, func(a *TransferArgs) { a.RecipientChain = 3 }, tbrerrors.ErrCodeInvalidRecipient},
		{"wrap non-native mint", 6, func(a *TransferArgs) { a.WrapNative = true }, tbrerrors.ErrCodeNativeMintRequired},
		{"foreign source account", 6, func(a *TransferArgs) { a.FromToken = wallet }, tbrerrors.ErrCodeAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.fund(t, tt.decimals, 1_000_000)
			before := e.lamports(t, payer)

			args := transferArgs(t, 1_000_000)
			tt.mutate(&args)
			_, err := e.relayer.TransferNativeTokensWithRelay(context.Background(), args)
			require.Error(t, err)
			assert.True(t, tbrerrors.IsChainError(err, tt.code), "got %v", err)

			assert.Equal(t, uint64(1_000_000), e.balance(t, payerTokens))
			assert.Equal(t, before, e.lamports(t, payer))
			assert.False(t, e.exists(t, e.deriver.Tmp(mintKey)))
		})
	}
}

func TestTransferNative_ExplicitDestination(t *testing.T) {
	e := newEnv(t)
	e.fund(t, 6, 10)

	args := transferArgs(t, 10)
	args.RecipientChain = 2
	args.DstTransferRecipient = [32]byte{0x01}
	args.DstExecutionAddress = [32]byte{0x02}
	receipt, err := e.relayer.TransferNativeTokensWithRelay(context.Background(), args)
	require.NoError(t, err)

	assert.Equal(t, "0200000000000000000000000000000000000000000000000000000000000000", receipt.Execution.DstAddr)
	e.atomic(t, func(tx *ledger.Tx) error {
		msg, err := e.bridge.Message(tx, receipt.Message)
		require.NoError(t, err)
		twm, err := tokenbridge.ParseTransferWithMessagePayload(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, [32]byte{0x01}, twm.Redeemer())
		return nil
	})
}

func TestTransferNative_WrapNative(t *testing.T) {
	e := newEnv(t)
	e.atomic(t, func(tx *ledger.Tx) error {
		return e.tokens.InitializeMint(tx, payer, pda.NativeMint, 9, nil)
	})
	before := e.lamports(t, payer)

	args := transferArgs(t, 2_000_000_005)
	args.Mint = pda.NativeMint
	args.FromToken = solana.PublicKey{}
	args.WrapNative = true
	receipt, err := e.relayer.TransferNativeTokensWithRelay(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000_000), receipt.Amount)

	custody := e.deriver.Custody(pda.NativeMint)
	assert.Equal(t, uint64(2_000_000_000), e.balance(t, custody))
	assert.Equal(t, uint64(2_000_000_000+token.AccountRent), e.lamports(t, custody))
	assert.False(t, e.exists(t, e.deriver.Tmp(pda.NativeMint)))

	spent := before - e.lamports(t, payer)
	assert.Greater(t, spent, uint64(2_000_000_000+execAmount+bridgeFee), "escrow rent is refunded, custody rent is not")
}

type failingBridge struct {
	*bridge.Bridge
	mock.Mock
}

func (f *failingBridge) TransferNativeWithPayload(tx *ledger.Tx, args bridge.TransferArgs) (*bridge.Published, error) {
	ret := f.Called(args.Amount, args.TargetChain)
	return nil, ret.Error(0)
}

func TestTransferNative_BridgeFailureRollsBack(t *testing.T) {
	e := newEnv(t)
	e.fund(t, 6, 1_000)
	fb := &failingBridge{Bridge: e.bridge}
	fb.On("TransferNativeWithPayload", uint64(1_000), uint16(2)).
		Return(tbrerrors.NewValidationError("", "custody frozen"))
	r := e.newRelayer(fb, zerolog.Nop())
	before := e.lamports(t, payer)

	_, err := r.TransferNativeTokensWithRelay(context.Background(), transferArgs(t, 1_000))
	require.Error(t, err)
	fb.AssertExpectations(t)

	assert.Equal(t, uint64(1_000), e.balance(t, payerTokens))
	assert.Equal(t, before, e.lamports(t, payer))
	assert.False(t, e.exists(t, e.deriver.Tmp(mintKey)))

	var n int64
	require.NoError(t, e.store.DB().Client().Model(&store.ExecutionRequest{}).Count(&n).Error)
	assert.Zero(t, n)
}

// lockNative sends amount of a 6-decimal mint to chain 2 so custody holds it.
func (e *env) lockNative(t *testing.T, amount uint64) {
	e.fund(t, 6, amount)
	_, err := e.relayer.TransferNativeTokensWithRelay(context.Background(), transferArgs(t, amount))
	require.NoError(t, err)
}

func TestCompleteNative_ResolverToExecute(t *testing.T) {
	e := newEnv(t)
	e.lockNative(t, 1_000_000_000)

	raw := inbound(foreignSeq0, relayFields(400_000_000, mintKey, localChain, wallet))
	e.post(t, raw)

	ix, err := e.resolver.Execute(raw)
	require.NoError(t, err)
	receipt, err := e.relayer.Execute(context.Background(), payer, ix)
	require.NoError(t, err)

	assert.Equal(t, resolver.CompletionNative, receipt.Kind)
	assert.Equal(t, []State{StateIdle, StateClaimed, StatePayout, StateClosed}, receipt.States)
	assert.Equal(t, uint64(400_000_000), receipt.Amount)
	assert.False(t, receipt.Unwrapped)
	assert.Equal(t, vaa.Hash(raw), receipt.VAAHash)

	ata := pda.AssociatedTokenAccount(wallet, solana.TokenProgramID, mintKey)
	assert.Equal(t, uint64(400_000_000), e.balance(t, ata))
	assert.Equal(t, uint64(600_000_000), e.balance(t, e.deriver.Custody(mintKey)))
	assert.False(t, e.exists(t, e.deriver.Tmp(mintKey)))
	assert.True(t, e.exists(t, e.deriver.Claim(foreignBridge, 2, foreignSeq0)))

	var rows []store.Redemption
	require.NoError(t, e.store.DB().Client().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, vaa.Hash(raw).Hex(), rows[0].VAAHash)
	assert.Equal(t, wallet.String(), rows[0].Recipient)
	assert.True(t, rows[0].Native)

	t.Run("replay", func(t *testing.T) {
		payerBefore := e.lamports(t, payer)
		_, err := e.relayer.Execute(context.Background(), payer, ix)
		require.Error(t, err)
		assert.True(t, tbrerrors.IsChainError(err, tbrerrors.ErrCodeAlreadyRedeemed))
		assert.Equal(t, uint64(400_000_000), e.balance(t, ata))
		assert.Equal(t, uint64(600_000_000), e.balance(t, e.deriver.Custody(mintKey)))
		assert.Equal(t, payerBefore, e.lamports(t, payer))
	})
}

func TestCompleteNative_ResolvePlaceholders(t *testing.T) {
	e := newEnv(t)
	e.lockNative(t, 50)

	raw := inbound(foreignSeq0, relayFields(50, mintKey, localChain, wallet))
	e.post(t, raw)

	result, err := e.resolver.Resolve(raw, e.store.Owners(context.Background()))
	require.NoError(t, err)
	resolved, ok := result.(*resolver.Resolved)
	require.True(t, ok)
	ix := resolved.Groups[0].Instructions[0]
	assert.Equal(t, resolver.PostedVAAPlaceholder, ix.Accounts[7].PublicKey)

	accounts, kind, hash, err := e.relayer.AccountsFromInstruction(ix, payer)
	require.NoError(t, err)
	assert.Equal(t, resolver.CompletionNative, kind)
	assert.Equal(t, payer, accounts.Payer)
	assert.Equal(t, e.deriver.PostedVAA(hash), accounts.PostedVAA)

	receipt, err := e.relayer.Execute(context.Background(), payer, ix)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), receipt.Amount)
}

func TestCompleteNative_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		fields func() tokenbridge.TransferWithMessageFields
		mutate func(a *CompleteAccounts)
		code   tbrerrors.ErrorCode
	}{
		{
			name:   "recipient mismatch",
			fields: func() tokenbridge.TransferWithMessageFields { return relayFields(10, mintKey, localChain, wallet) },
			mutate: func(a *CompleteAccounts) { a.Recipient = payer },
			code:   tbrerrors.ErrCodeInvalidRecipient,
		},
		{
			name: "other redeemer program",
			fields: func() tokenbridge.TransferWithMessageFields {
				f := relayFields(10, mintKey, localChain, wallet)
				f.Redeemer = [32]byte{0x09}
				return f
			},
			code: tbrerrors.ErrCodeInvalidTransferToAddress,
		},
		{
			name: "other redeemer chain",
			fields: func() tokenbridge.TransferWithMessageFields {
				f := relayFields(10, mintKey, localChain, wallet)
				f.RedeemerChain = 4
				return f
			},
			code: tbrerrors.ErrCodeInvalidTransferToChain,
		},
		{
			name:   "wrong escrow",
			fields: func() tokenbridge.TransferWithMessageFields { return relayFields(10, mintKey, localChain, wallet) },
			mutate: func(a *CompleteAccounts) { a.Tmp = payerTokens },
			code:   tbrerrors.ErrCodeValidation,
		},
		{
			name: "relay message too long",
			fields: func() tokenbridge.TransferWithMessageFields {
				f := relayFields(10, mintKey, localChain, wallet)
				f.Payload = make([]byte, 33)
				return f
			},
			code: tbrerrors.ErrCodeMalformedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.lockNative(t, 100)

			raw := inbound(foreignSeq0, tt.fields())
			e.post(t, raw)
			hash := vaa.Hash(raw)

			ix, err := e.resolver.Execute(inbound(foreignSeq0, relayFields(10, mintKey, localChain, wallet)))
			require.NoError(t, err)
			accounts, _, _, err := e.relayer.AccountsFromInstruction(ix, payer)
			require.NoError(t, err)
			accounts.PostedVAA = e.deriver.PostedVAA(hash)
			if tt.mutate != nil {
				tt.mutate(&accounts)
			}

			_, err = e.relayer.CompleteNativeTransferWithRelay(context.Background(), accounts, hash)
			require.Error(t, err)
			assert.True(t, tbrerrors.IsChainError(err, tt.code), "got %v", err)

			assert.False(t, e.exists(t, e.deriver.Claim(foreignBridge, 2, foreignSeq0)))
			assert.False(t, e.exists(t, e.deriver.Tmp(mintKey)))
			assert.Equal(t, uint64(100), e.balance(t, e.deriver.Custody(mintKey)))
		})
	}
}

func TestComplete_IntentMismatch(t *testing.T) {
	e := newEnv(t)
	e.lockNative(t, 100)

	raw := inbound(foreignSeq0, relayFields(10, mintKey, localChain, wallet))
	e.post(t, raw)
	ix, err := e.resolver.Execute(raw)
	require.NoError(t, err)
	accounts, _, hash, err := e.relayer.AccountsFromInstruction(ix, payer)
	require.NoError(t, err)

	_, err = e.relayer.CompleteWrappedTransferWithRelay(context.Background(), accounts, hash)
	assert.True(t, tbrerrors.IsChainError(err, tbrerrors.ErrCodeInvalidTransferTokenChain), "got %v", err)
	assert.False(t, e.exists(t, e.deriver.Claim(foreignBridge, 2, foreignSeq0)))
}

func TestCompleteNative_Unwrap(t *testing.T) {
	e := newEnv(t)
	e.atomic(t, func(tx *ledger.Tx) error {
		return e.tokens.InitializeMint(tx, payer, pda.NativeMint, 9, nil)
	})
	args := transferArgs(t, 3_000_000_000)
	args.Mint = pda.NativeMint
	args.WrapNative = true
	_, err := e.relayer.TransferNativeTokensWithRelay(context.Background(), args)
	require.NoError(t, err)

	// 1.5 SOL normalized to 8 decimals
	raw := inbound(foreignSeq0, relayFields(150_000_000, pda.NativeMint, localChain, wallet))
	e.post(t, raw)
	ix, err := e.resolver.Execute(raw)
	require.NoError(t, err)

	receipt, err := e.relayer.Execute(context.Background(), payer, ix)
	require.NoError(t, err)
	assert.True(t, receipt.Unwrapped)
	assert.Equal(t, uint64(1_500_000_000), receipt.Amount)

	assert.Equal(t, uint64(1_500_000_000+token.AccountRent), e.lamports(t, wallet))
	assert.False(t, e.exists(t, e.deriver.Tmp(pda.NativeMint)))
	ata := pda.AssociatedTokenAccount(wallet, solana.TokenProgramID, pda.NativeMint)
	assert.Zero(t, e.balance(t, ata))
}

func TestWrapped_RoundTrip(t *testing.T) {
	e := newEnv(t)
	origin := [32]byte{0x77, 31: 0x77}

	attestation := vaa.Header{EmitterChain: 2, EmitterAddress: foreignBridge, Sequence: 1}.Encode(
		tokenbridge.AttestationFields{TokenAddress: origin, TokenChain: 2, Decimals: 18, Symbol: "WETH", Name: "Wrapped Ether"}.Encode())
	var mint solana.PublicKey
	e.atomic(t, func(tx *ledger.Tx) error {
		posted, err := e.bridge.PostVAA(tx, payer, attestation)
		require.NoError(t, err)
		mint, err = e.bridge.CreateWrapped(tx, payer, posted)
		return err
	})

	raw := inbound(foreignSeq0, relayFields(25_000_000, origin, 2, payer))
	e.post(t, raw)
	ix, err := e.resolver.Execute(raw)
	require.NoError(t, err)
	assert.Equal(t, resolver.CompleteWrappedDiscriminator[:], ix.Data[:8])

	receipt, err := e.relayer.Execute(context.Background(), payer, ix)
	require.NoError(t, err)
	assert.Equal(t, resolver.CompletionWrapped, receipt.Kind)
	assert.Equal(t, uint64(25_000_000), receipt.Amount)

	ata := pda.AssociatedTokenAccount(payer, solana.TokenProgramID, mint)
	assert.Equal(t, uint64(25_000_000), e.balance(t, ata))

	args := transferArgs(t, 10_000_000)
	args.Mint = mint
	args.FromToken = ata
	out, err := e.relayer.TransferWrappedTokensWithRelay(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), out.Amount)
	assert.Equal(t, uint64(15_000_000), e.balance(t, ata))

	e.atomic(t, func(tx *ledger.Tx) error {
		m, err := e.tokens.GetMint(tx, mint)
		require.NoError(t, err)
		assert.Equal(t, uint64(15_000_000), m.Supply, "burned")

		msg, err := e.bridge.Message(tx, out.Message)
		require.NoError(t, err)
		twm, err := tokenbridge.ParseTransferWithMessagePayload(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, origin, twm.TokenAddress())
		assert.Equal(t, uint16(2), twm.TokenChain())
		return nil
	})

	args.Amount = 0
	_, err = e.relayer.TransferWrappedTokensWithRelay(context.Background(), args)
	assert.True(t, tbrerrors.IsChainError(err, tbrerrors.ErrCodeZeroBridgeAmount))
}

func TestAccountsFromInstruction_Errors(t *testing.T) {
	e := newEnv(t)
	raw := inbound(foreignSeq0, relayFields(10, mintKey, localChain, wallet))
	good, err := e.resolver.Execute(raw)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(ix *resolver.Instruction)
		code   tbrerrors.ErrorCode
	}{
		{"other program", func(ix *resolver.Instruction) { ix.ProgramID = payer }, tbrerrors.ErrCodeValidation},
		{"short data", func(ix *resolver.Instruction) { ix.Data = ix.Data[:39] }, tbrerrors.ErrCodeMalformedMessage},
		{"unknown discriminator", func(ix *resolver.Instruction) { ix.Data[0] ^= 0xff }, tbrerrors.ErrCodeMalformedMessage},
		{"short account list", func(ix *resolver.Instruction) { ix.Accounts = ix.Accounts[:17] }, tbrerrors.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := &resolver.Instruction{
				ProgramID: good.ProgramID,
				Accounts:  append(solana.AccountMetaSlice(nil), good.Accounts...),
				Data:      append([]byte(nil), good.Data...),
			}
			tt.mutate(ix)
			_, _, _, err := e.relayer.AccountsFromInstruction(ix, payer)
			assert.True(t, tbrerrors.IsChainError(err, tt.code), "got %v", err)
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "funded", StateFunded.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(99).String())
}
