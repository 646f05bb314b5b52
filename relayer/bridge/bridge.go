// Package bridge simulates the Wormhole core bridge and token bridge
// programs over the ledger: posted VAAs and messages, sequence trackers,
// claims, custody and wrapped mints.
package bridge

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/amount"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/token"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/tokenbridge"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/vaa"
)

// ConsistencyFinalized is the consistency level of every published message.
const ConsistencyFinalized = 32

// Bridge owns the core bridge and token bridge accounts.
type Bridge struct {
	deriver    *pda.Deriver
	tokens     *token.Program
	localChain uint16
	now        func() time.Time
	logger     zerolog.Logger
}

// New creates a bridge publishing from localChain.
func New(deriver *pda.Deriver, tokens *token.Program, localChain uint16, logger zerolog.Logger) *Bridge {
	return &Bridge{
		deriver:    deriver,
		tokens:     tokens,
		localChain: localChain,
		now:        time.Now,
		logger:     logger.With().Str("component", "bridge").Logger(),
	}
}

func (b *Bridge) programs() pda.Programs { return b.deriver.Programs() }

// Initialize creates the core bridge state, fee collector and token bridge
// config. It fails when the bridge already exists.
func (b *Bridge) Initialize(tx *ledger.Tx, payer solana.PublicKey, fee uint64) error {
	data := (&BridgeData{Fee: fee}).Encode()
	if err := b.create(tx, payer, b.deriver.WormholeBridge(), b.programs().CoreBridge, data); err != nil {
		return err
	}
	if err := tx.Credit(b.deriver.FeeCollector(), 0); err != nil {
		return err
	}
	wormhole := b.programs().CoreBridge
	return b.create(tx, payer, b.deriver.TokenBridgeConfig(), b.programs().TokenBridge, wormhole.Bytes())
}

// create writes a program-owned account funded at a flat rent by payer.
func (b *Bridge) create(tx *ledger.Tx, payer, key, owner solana.PublicKey, data []byte) error {
	rent := rentFor(len(data))
	if err := tx.Debit(payer, rent); err != nil {
		return err
	}
	return tx.Create(&ledger.Account{Key: key, Owner: owner, Lamports: rent, Data: data})
}

// rentFor approximates the rent-exempt minimum for a data length.
func rentFor(n int) uint64 {
	return uint64(128+n) * 6960
}

// Fee returns the message fee.
func (b *Bridge) Fee(tx *ledger.Tx) (uint64, error) {
	data, err := b.bridgeData(tx)
	if err != nil {
		return 0, err
	}
	return data.Fee, nil
}

func (b *Bridge) bridgeData(tx *ledger.Tx) (*BridgeData, error) {
	acct, err := tx.Get(b.deriver.WormholeBridge())
	if err != nil {
		return nil, err
	}
	return DecodeBridgeData(acct.Data)
}

// RegisterChain records the token bridge emitter of a foreign chain.
func (b *Bridge) RegisterChain(tx *ledger.Tx, payer solana.PublicKey, chain uint16, contract [32]byte) (solana.PublicKey, error) {
	if chain == 0 || chain == b.localChain {
		return solana.PublicKey{}, tbrerrors.NewValidationError(fmt.Sprint(chain), "cannot register the local chain")
	}
	key := b.deriver.ForeignEndpoint(chain, contract)
	reg := &EndpointRegistration{Chain: chain, Contract: contract}
	return key, b.create(tx, payer, key, b.programs().TokenBridge, reg.Encode())
}

// PostVAA stores a verified VAA body and returns the posted account. A body
// that was already posted is left as is.
func (b *Bridge) PostVAA(tx *ledger.Tx, payer solana.PublicKey, raw []byte) (solana.PublicKey, error) {
	body, err := vaa.ParseBody(raw)
	if err != nil {
		return solana.PublicKey{}, err
	}
	key := b.deriver.PostedVAA(body.Hash())
	exists, err := tx.Exists(key)
	if err != nil || exists {
		return key, err
	}
	posted := &Posted{
		VAAVersion:       1,
		ConsistencyLevel: body.ConsistencyLevel(),
		VAATime:          body.Timestamp(),
		SubmissionTime:   uint32(b.now().Unix()),
		Nonce:            body.Nonce(),
		Sequence:         body.Sequence(),
		EmitterChain:     body.EmitterChain(),
		EmitterAddress:   body.EmitterAddress(),
		Payload:          append([]byte(nil), body.Payload()...),
	}
	if err := b.create(tx, payer, key, b.programs().CoreBridge, posted.EncodeVAA()); err != nil {
		return key, err
	}
	b.logger.Debug().
		Str("posted_vaa", key.String()).
		Uint16("emitter_chain", posted.EmitterChain).
		Uint64("sequence", posted.Sequence).
		Msg("vaa posted")
	return key, nil
}

// PostedVAA loads a posted VAA owned by the core bridge.
func (b *Bridge) PostedVAA(tx *ledger.Tx, key solana.PublicKey) (*Posted, error) {
	acct, err := tx.Get(key)
	if err != nil {
		return nil, err
	}
	if acct.Owner != b.programs().CoreBridge {
		return nil, tbrerrors.NewValidationError("", "posted vaa not owned by the core bridge: "+key.String())
	}
	return DecodePostedVAA(acct.Data)
}

// Message loads a message published by the core bridge.
func (b *Bridge) Message(tx *ledger.Tx, key solana.PublicKey) (*Posted, error) {
	acct, err := tx.Get(key)
	if err != nil {
		return nil, err
	}
	return DecodePostedMessage(acct.Data)
}

// MessageAddress is where the message with sequence from emitter is stored.
func (b *Bridge) MessageAddress(emitter solana.PublicKey, sequence uint64) solana.PublicKey {
	seq := make([]byte, 8)
	binary.BigEndian.PutUint64(seq, sequence)
	key, _, err := solana.FindProgramAddress([][]byte{[]byte("message"), emitter.Bytes(), seq}, b.programs().CoreBridge)
	if err != nil {
		panic(err)
	}
	return key
}

// NextSequence reads emitter's sequence tracker. Zero when no message was
// published yet.
func (b *Bridge) NextSequence(tx *ledger.Tx, emitter solana.PublicKey) (uint64, error) {
	acct, ok, err := tx.Lookup(b.deriver.Sequence(emitter))
	if err != nil || !ok {
		return 0, err
	}
	return DecodeSequence(acct.Data)
}

// publish pays the fee, bumps the sequence tracker and writes the message.
func (b *Bridge) publish(tx *ledger.Tx, payer, emitter solana.PublicKey, nonce uint32, payload []byte) (uint64, solana.PublicKey, error) {
	fee, err := b.Fee(tx)
	if err != nil {
		return 0, solana.PublicKey{}, err
	}
	if err := tx.TransferLamports(payer, b.deriver.FeeCollector(), fee); err != nil {
		return 0, solana.PublicKey{}, err
	}

	trackerKey := b.deriver.Sequence(emitter)
	tracker, ok, err := tx.Lookup(trackerKey)
	if err != nil {
		return 0, solana.PublicKey{}, err
	}
	var seq uint64
	if ok {
		if seq, err = DecodeSequence(tracker.Data); err != nil {
			return 0, solana.PublicKey{}, err
		}
		tracker.Data = EncodeSequence(seq + 1)
		err = tx.Put(tracker)
	} else {
		err = b.create(tx, payer, trackerKey, b.programs().CoreBridge, EncodeSequence(1))
	}
	if err != nil {
		return 0, solana.PublicKey{}, err
	}

	msg := &Posted{
		ConsistencyLevel: ConsistencyFinalized,
		SubmissionTime:   uint32(b.now().Unix()),
		Nonce:            nonce,
		Sequence:         seq,
		EmitterChain:     b.localChain,
		EmitterAddress:   emitter,
		Payload:          payload,
	}
	key := b.MessageAddress(emitter, seq)
	if err := b.create(tx, payer, key, b.programs().CoreBridge, msg.EncodeMessage()); err != nil {
		return 0, solana.PublicKey{}, err
	}
	b.logger.Info().
		Str("emitter", emitter.String()).
		Uint64("sequence", seq).
		Str("message", key.String()).
		Msg("message published")
	return seq, key, nil
}

// TransferArgs are the inputs of the outbound token bridge transfers.
type TransferArgs struct {
	Payer solana.PublicKey
	Mint  solana.PublicKey
	// From is spent by the authority signer, which must hold an allowance.
	From          solana.PublicKey
	Amount        uint64
	Nonce         uint32
	TargetAddress [32]byte
	TargetChain   uint16
	Payload       []byte
	// Sender is the program credited as the payload-3 sender.
	Sender solana.PublicKey
}

// Published identifies the message a transfer emitted.
type Published struct {
	Sequence uint64
	Message  solana.PublicKey
}

func (b *Bridge) checkTarget(chain uint16) error {
	if chain == b.localChain {
		return tbrerrors.NewValidationError(fmt.Sprint(chain), "transfer target is the local chain")
	}
	return nil
}

// TransferNativeWithPayload locks native tokens in custody and publishes a
// transfer-with-message. Dust below 8 decimals stays in From.
func (b *Bridge) TransferNativeWithPayload(tx *ledger.Tx, args TransferArgs) (*Published, error) {
	if err := b.checkTarget(args.TargetChain); err != nil {
		return nil, err
	}
	mint, err := b.tokens.GetMint(tx, args.Mint)
	if err != nil {
		return nil, err
	}
	if mint.MintAuthority != nil && *mint.MintAuthority == b.deriver.MintAuthority() {
		return nil, tbrerrors.NewValidationError("", "wrapped mint sent through the native path: "+args.Mint.String())
	}
	sent := amount.Truncate(args.Amount, mint.Decimals)
	if sent == 0 {
		return nil, tbrerrors.NewZeroBridgeAmountError(args.Amount, mint.Decimals)
	}

	custody := b.deriver.Custody(args.Mint)
	exists, err := tx.Exists(custody)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := b.tokens.InitializeAccount(tx, args.Payer, custody, args.Mint, b.deriver.CustodySigner()); err != nil {
			return nil, err
		}
	}
	if err := b.tokens.TransferChecked(tx, args.From, args.Mint, custody, b.deriver.AuthoritySigner(), sent, mint.Decimals); err != nil {
		return nil, err
	}

	payload := tokenbridge.TransferWithMessageFields{
		Amount:        amount.ToWire(amount.Normalize(sent, mint.Decimals)),
		TokenAddress:  args.Mint,
		TokenChain:    b.localChain,
		Redeemer:      args.TargetAddress,
		RedeemerChain: args.TargetChain,
		Sender:        args.Sender,
		Payload:       args.Payload,
	}.Encode()
	seq, msg, err := b.publish(tx, args.Payer, b.deriver.Emitter(), args.Nonce, payload)
	if err != nil {
		return nil, err
	}
	return &Published{Sequence: seq, Message: msg}, nil
}

// TransferWrappedWithPayload burns wrapped tokens and publishes a
// transfer-with-message naming the origin token.
func (b *Bridge) TransferWrappedWithPayload(tx *ledger.Tx, args TransferArgs) (*Published, error) {
	if err := b.checkTarget(args.TargetChain); err != nil {
		return nil, err
	}
	meta, err := b.WrappedMeta(tx, args.Mint)
	if err != nil {
		return nil, err
	}
	if args.Amount == 0 {
		return nil, tbrerrors.NewZeroBridgeAmountError(0, 0)
	}
	if err := b.tokens.Burn(tx, args.From, args.Mint, b.deriver.AuthoritySigner(), args.Amount); err != nil {
		return nil, err
	}

	payload := tokenbridge.TransferWithMessageFields{
		Amount:        amount.ToWire(args.Amount),
		TokenAddress:  meta.TokenAddress,
		TokenChain:    meta.Chain,
		Redeemer:      args.TargetAddress,
		RedeemerChain: args.TargetChain,
		Sender:        args.Sender,
		Payload:       args.Payload,
	}.Encode()
	seq, msg, err := b.publish(tx, args.Payer, b.deriver.Emitter(), args.Nonce, payload)
	if err != nil {
		return nil, err
	}
	return &Published{Sequence: seq, Message: msg}, nil
}

// WrappedMeta loads the origin of a wrapped mint.
func (b *Bridge) WrappedMeta(tx *ledger.Tx, mint solana.PublicKey) (*WrappedMeta, error) {
	acct, err := tx.Get(b.deriver.WrappedMeta(mint))
	if err != nil {
		return nil, err
	}
	return DecodeWrappedMeta(acct.Data)
}

// CreateWrapped creates the wrapped mint described by a posted attestation.
func (b *Bridge) CreateWrapped(tx *ledger.Tx, payer, postedVAA solana.PublicKey) (solana.PublicKey, error) {
	posted, err := b.PostedVAA(tx, postedVAA)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := b.checkEndpoint(tx, posted); err != nil {
		return solana.PublicKey{}, err
	}
	msg, err := tokenbridge.Parse(posted.Payload)
	if err != nil {
		return solana.PublicKey{}, err
	}
	att, ok := msg.Attestation()
	if !ok {
		return solana.PublicKey{}, tbrerrors.NewMalformedMessageError("expected attestation, got "+msg.Kind().String(), nil)
	}
	if att.TokenChain() == b.localChain {
		return solana.PublicKey{}, tbrerrors.NewInvalidTransferTokenChainError(att.TokenChain(), "cannot wrap a local token")
	}

	key := b.deriver.WrappedMint(att.TokenChain(), att.TokenAddress())
	decimals := att.Decimals()
	if decimals > amount.MaxDecimals {
		decimals = amount.MaxDecimals
	}
	authority := b.deriver.MintAuthority()
	if err := b.tokens.InitializeMint(tx, payer, key, decimals, &authority); err != nil {
		return key, err
	}
	meta := &WrappedMeta{Chain: att.TokenChain(), TokenAddress: att.TokenAddress(), OriginalDecimals: att.Decimals()}
	if err := b.create(tx, payer, b.deriver.WrappedMeta(key), b.programs().TokenBridge, meta.Encode()); err != nil {
		return key, err
	}
	b.logger.Info().
		Str("mint", key.String()).
		Str("symbol", att.Symbol()).
		Uint16("token_chain", att.TokenChain()).
		Msg("wrapped mint created")
	return key, nil
}

// checkEndpoint requires the VAA to come from a registered token bridge.
func (b *Bridge) checkEndpoint(tx *ledger.Tx, posted *Posted) error {
	key := b.deriver.ForeignEndpoint(posted.EmitterChain, posted.EmitterAddress)
	acct, err := tx.Get(key)
	if err != nil {
		return err
	}
	reg, err := DecodeEndpointRegistration(acct.Data)
	if err != nil {
		return err
	}
	if reg.Chain != posted.EmitterChain || reg.Contract != posted.EmitterAddress {
		return tbrerrors.NewValidationError(fmt.Sprint(posted.EmitterChain), "emitter is not the registered token bridge")
	}
	return nil
}

// IsClaimed reports whether the VAA identified by its emitter and sequence
// was redeemed.
func (b *Bridge) IsClaimed(tx *ledger.Tx, emitterChain uint16, emitterAddress [32]byte, sequence uint64) (bool, error) {
	return tx.Exists(b.deriver.Claim(emitterAddress, emitterChain, sequence))
}

// CompleteArgs are the inputs of the inbound completions.
type CompleteArgs struct {
	Payer     solana.PublicKey
	PostedVAA solana.PublicKey
	Mint      solana.PublicKey
	// To receives the tokens; it is owned by Redeemer.
	To       solana.PublicKey
	Redeemer solana.PublicKey
}

// Completed describes a redeemed transfer.
type Completed struct {
	Transfer tokenbridge.TransferWithMessage
	// Amount is in the mint's decimals.
	Amount uint64
	Claim  solana.PublicKey
}

// redeem performs the checks shared by both completions and sets the claim.
func (b *Bridge) redeem(tx *ledger.Tx, args CompleteArgs) (*Posted, tokenbridge.TransferWithMessage, solana.PublicKey, error) {
	var twm tokenbridge.TransferWithMessage
	posted, err := b.PostedVAA(tx, args.PostedVAA)
	if err != nil {
		return nil, twm, solana.PublicKey{}, err
	}
	if err := b.checkEndpoint(tx, posted); err != nil {
		return nil, twm, solana.PublicKey{}, err
	}
	if twm, err = tokenbridge.ParseTransferWithMessagePayload(posted.Payload); err != nil {
		return nil, twm, solana.PublicKey{}, err
	}
	if twm.RedeemerChain() != b.localChain {
		return nil, twm, solana.PublicKey{}, tbrerrors.NewInvalidTransferToChainError(twm.RedeemerChain())
	}
	redeemer, _, err := solana.FindProgramAddress([][]byte{[]byte("redeemer")}, solana.PublicKey(twm.Redeemer()))
	if err != nil || redeemer != args.Redeemer {
		return nil, twm, solana.PublicKey{}, tbrerrors.NewInvalidTransferToAddressError("redeemer does not belong to the target program")
	}
	to, err := b.tokens.GetAccount(tx, args.To)
	if err != nil {
		return nil, twm, solana.PublicKey{}, err
	}
	if to.Owner != args.Redeemer {
		return nil, twm, solana.PublicKey{}, tbrerrors.NewValidationError("", "destination is not owned by the redeemer")
	}

	claim := b.deriver.Claim(posted.EmitterAddress, posted.EmitterChain, posted.Sequence)
	exists, err := tx.Exists(claim)
	if err != nil {
		return nil, twm, claim, err
	}
	if exists {
		return nil, twm, claim, tbrerrors.NewAlreadyRedeemedError(claim.String())
	}
	if err := b.create(tx, args.Payer, claim, b.programs().TokenBridge, []byte{1}); err != nil {
		return nil, twm, claim, err
	}
	return posted, twm, claim, nil
}

// CompleteNativeWithPayload releases custody tokens to args.To.
func (b *Bridge) CompleteNativeWithPayload(tx *ledger.Tx, args CompleteArgs) (*Completed, error) {
	_, twm, claim, err := b.redeem(tx, args)
	if err != nil {
		return nil, err
	}
	if twm.TokenChain() != b.localChain {
		return nil, tbrerrors.NewInvalidTransferTokenChainError(twm.TokenChain(), "token is not native to this chain")
	}
	if solana.PublicKey(twm.TokenAddress()) != args.Mint {
		return nil, tbrerrors.NewValidationError("", "mint does not match the transfer")
	}
	mint, err := b.tokens.GetMint(tx, args.Mint)
	if err != nil {
		return nil, err
	}
	normalized, err := amount.FromWire(twm.Amount())
	if err != nil {
		return nil, err
	}
	amt, err := amount.Denormalize(normalized, mint.Decimals)
	if err != nil {
		return nil, err
	}
	custody := b.deriver.Custody(args.Mint)
	if err := b.tokens.TransferChecked(tx, custody, args.Mint, args.To, b.deriver.CustodySigner(), amt, mint.Decimals); err != nil {
		return nil, err
	}
	return &Completed{Transfer: twm, Amount: amt, Claim: claim}, nil
}

// CompleteWrappedWithPayload mints wrapped tokens to args.To.
func (b *Bridge) CompleteWrappedWithPayload(tx *ledger.Tx, args CompleteArgs) (*Completed, error) {
	_, twm, claim, err := b.redeem(tx, args)
	if err != nil {
		return nil, err
	}
	if twm.TokenChain() == b.localChain {
		return nil, tbrerrors.NewInvalidTransferTokenChainError(twm.TokenChain(), "token is native to this chain")
	}
	if b.deriver.WrappedMint(twm.TokenChain(), twm.TokenAddress()) != args.Mint {
		return nil, tbrerrors.NewValidationError("", "wrapped mint does not match the transfer")
	}
	if _, err := b.WrappedMeta(tx, args.Mint); err != nil {
		return nil, err
	}
	amt, err := amount.FromWire(twm.Amount())
	if err != nil {
		return nil, err
	}
	if err := b.tokens.MintTo(tx, args.Mint, args.To, b.deriver.MintAuthority(), amt); err != nil {
		return nil, err
	}
	return &Completed{Transfer: twm, Amount: amt, Claim: claim}, nil
}
