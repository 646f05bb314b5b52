package token

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
)

// Program simulates the SPL token program. Signatures are not verified:
// an authority argument is trusted to have signed.
type Program struct {
	id     solana.PublicKey
	logger zerolog.Logger
}

// NewProgram returns a simulated classic token program.
func NewProgram(logger zerolog.Logger) *Program {
	return NewProgramWithID(solana.TokenProgramID, logger)
}

// NewProgramWithID simulates a token program deployed at id, such as
// Token-2022 for mints that use it.
func NewProgramWithID(id solana.PublicKey, logger zerolog.Logger) *Program {
	return &Program{
		id:     id,
		logger: logger.With().Str("component", "token_program").Str("program", id.String()).Logger(),
	}
}

func (p *Program) ID() solana.PublicKey { return p.id }

func (p *Program) load(tx *ledger.Tx, key solana.PublicKey) (*ledger.Account, error) {
	acct, err := tx.Get(key)
	if err != nil {
		return nil, err
	}
	if acct.Owner != p.id {
		return nil, tbrerrors.NewValidationError("", fmt.Sprintf(
			"account %s is owned by %s, not the token program", key, acct.Owner))
	}
	return acct, nil
}

// GetMint reads a mint owned by this program.
func (p *Program) GetMint(tx *ledger.Tx, key solana.PublicKey) (*Mint, error) {
	acct, err := p.load(tx, key)
	if err != nil {
		return nil, err
	}
	m, err := DecodeMint(acct.Data)
	if err != nil {
		return nil, err
	}
	if !m.IsInitialized {
		return nil, tbrerrors.NewValidationError("", "mint not initialized: "+key.String())
	}
	return m, nil
}

// GetAccount reads a token account owned by this program.
func (p *Program) GetAccount(tx *ledger.Tx, key solana.PublicKey) (*TokenAccount, error) {
	acct, err := p.load(tx, key)
	if err != nil {
		return nil, err
	}
	ta, err := DecodeTokenAccount(acct.Data)
	if err != nil {
		return nil, err
	}
	if ta.State == StateUninitialized {
		return nil, tbrerrors.NewValidationError("", "token account not initialized: "+key.String())
	}
	return ta, nil
}

func (p *Program) putMint(tx *ledger.Tx, key solana.PublicKey, m *Mint) error {
	acct, err := p.load(tx, key)
	if err != nil {
		return err
	}
	acct.Data = m.Encode()
	return tx.Put(acct)
}

func (p *Program) putAccount(tx *ledger.Tx, key solana.PublicKey, ta *TokenAccount) error {
	acct, err := p.load(tx, key)
	if err != nil {
		return err
	}
	acct.Data = ta.Encode()
	return tx.Put(acct)
}

// InitializeMint creates a mint funded by payer.
func (p *Program) InitializeMint(tx *ledger.Tx, payer, mint solana.PublicKey, decimals uint8, authority *solana.PublicKey) error {
	if err := tx.Debit(payer, MintRent); err != nil {
		return err
	}
	m := &Mint{MintAuthority: authority, Decimals: decimals, IsInitialized: true}
	return tx.Create(&ledger.Account{Key: mint, Owner: p.id, Lamports: MintRent, Data: m.Encode()})
}

// InitializeAccount creates a token account at key funded by payer. For
// the native mint the rent reserve is recorded so SyncNative and
// CloseAccount can tell wrapped lamports from rent.
func (p *Program) InitializeAccount(tx *ledger.Tx, payer, key, mint, owner solana.PublicKey) error {
	if _, err := p.GetMint(tx, mint); err != nil {
		return err
	}
	if err := tx.Debit(payer, AccountRent); err != nil {
		return err
	}
	ta := &TokenAccount{Mint: mint, Owner: owner, State: StateInitialized}
	if mint == pda.NativeMint {
		reserve := uint64(AccountRent)
		ta.IsNative = &reserve
	}
	return tx.Create(&ledger.Account{Key: key, Owner: p.id, Lamports: AccountRent, Data: ta.Encode()})
}

// CreateAssociatedAccount creates owner's associated token account for mint
// if it does not exist yet and returns its address.
func (p *Program) CreateAssociatedAccount(tx *ledger.Tx, payer, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	key := pda.AssociatedTokenAccount(owner, p.id, mint)
	exists, err := tx.Exists(key)
	if err != nil {
		return key, err
	}
	if exists {
		ta, err := p.GetAccount(tx, key)
		if err != nil {
			return key, err
		}
		if ta.Mint != mint || ta.Owner != owner {
			return key, tbrerrors.NewValidationError("", "associated token account mismatch: "+key.String())
		}
		return key, nil
	}
	return key, p.InitializeAccount(tx, payer, key, mint, owner)
}

// authorize checks that authority may move amount out of ta and consumes
// delegated allowance when the delegate is acting.
func authorize(ta *TokenAccount, authority solana.PublicKey, amount uint64) error {
	if authority == ta.Owner {
		return nil
	}
	if ta.Delegate != nil && *ta.Delegate == authority {
		if ta.DelegatedAmount < amount {
			return tbrerrors.NewValidationError("", fmt.Sprintf(
				"delegated amount %d below %d", ta.DelegatedAmount, amount))
		}
		ta.DelegatedAmount -= amount
		if ta.DelegatedAmount == 0 {
			ta.Delegate = nil
		}
		return nil
	}
	return tbrerrors.NewValidationError("", fmt.Sprintf("%s is neither owner nor delegate", authority))
}

// TransferChecked moves amount from one token account to another.
func (p *Program) TransferChecked(tx *ledger.Tx, from, mint, to, authority solana.PublicKey, amount uint64, decimals uint8) error {
	m, err := p.GetMint(tx, mint)
	if err != nil {
		return err
	}
	if m.Decimals != decimals {
		return tbrerrors.NewValidationError("", fmt.Sprintf("decimals mismatch: mint has %d, got %d", m.Decimals, decimals))
	}
	src, err := p.GetAccount(tx, from)
	if err != nil {
		return err
	}
	dst, err := p.GetAccount(tx, to)
	if err != nil {
		return err
	}
	if src.Mint != mint || dst.Mint != mint {
		return tbrerrors.NewValidationError("", "token account mint mismatch")
	}
	if src.State == StateFrozen || dst.State == StateFrozen {
		return tbrerrors.NewValidationError("", "account frozen")
	}
	if src.Amount < amount {
		return tbrerrors.NewValidationError("", fmt.Sprintf("insufficient funds: have %d, need %d", src.Amount, amount))
	}
	if err := authorize(src, authority, amount); err != nil {
		return err
	}
	if from == to {
		return p.putAccount(tx, from, src)
	}

	src.Amount -= amount
	dst.Amount += amount
	if err := p.putAccount(tx, from, src); err != nil {
		return err
	}
	if err := p.putAccount(tx, to, dst); err != nil {
		return err
	}
	if src.IsNative != nil {
		if err := tx.TransferLamports(from, to, amount); err != nil {
			return err
		}
	}
	p.logger.Debug().Str("from", from.String()).Str("to", to.String()).Uint64("amount", amount).Msg("transfer")
	return nil
}

// Approve sets delegate's allowance on account.
func (p *Program) Approve(tx *ledger.Tx, account, delegate, owner solana.PublicKey, amount uint64) error {
	ta, err := p.GetAccount(tx, account)
	if err != nil {
		return err
	}
	if ta.Owner != owner {
		return tbrerrors.NewValidationError("", fmt.Sprintf("%s does not own %s", owner, account))
	}
	ta.Delegate = &delegate
	ta.DelegatedAmount = amount
	return p.putAccount(tx, account, ta)
}

// SyncNative sets a native account's token amount from its lamports.
func (p *Program) SyncNative(tx *ledger.Tx, account solana.PublicKey) error {
	acct, err := p.load(tx, account)
	if err != nil {
		return err
	}
	ta, err := DecodeTokenAccount(acct.Data)
	if err != nil {
		return err
	}
	if ta.IsNative == nil {
		return tbrerrors.NewNativeMintRequiredError(ta.Mint.String())
	}
	if acct.Lamports < *ta.IsNative {
		return tbrerrors.NewValidationError("", "native account below rent reserve")
	}
	ta.Amount = acct.Lamports - *ta.IsNative
	acct.Data = ta.Encode()
	return tx.Put(acct)
}

// MintTo creates amount new tokens in dest.
func (p *Program) MintTo(tx *ledger.Tx, mint, dest, authority solana.PublicKey, amount uint64) error {
	m, err := p.GetMint(tx, mint)
	if err != nil {
		return err
	}
	if m.MintAuthority == nil || *m.MintAuthority != authority {
		return tbrerrors.NewValidationError("", fmt.Sprintf("%s is not the mint authority of %s", authority, mint))
	}
	ta, err := p.GetAccount(tx, dest)
	if err != nil {
		return err
	}
	if ta.Mint != mint {
		return tbrerrors.NewValidationError("", "token account mint mismatch")
	}
	if m.Supply+amount < m.Supply {
		return tbrerrors.NewValidationError("", "supply overflow")
	}
	m.Supply += amount
	ta.Amount += amount
	if err := p.putMint(tx, mint, m); err != nil {
		return err
	}
	return p.putAccount(tx, dest, ta)
}

// Burn destroys amount tokens held in account.
func (p *Program) Burn(tx *ledger.Tx, account, mint, authority solana.PublicKey, amount uint64) error {
	m, err := p.GetMint(tx, mint)
	if err != nil {
		return err
	}
	ta, err := p.GetAccount(tx, account)
	if err != nil {
		return err
	}
	if ta.Mint != mint {
		return tbrerrors.NewValidationError("", "token account mint mismatch")
	}
	if ta.Amount < amount {
		return tbrerrors.NewValidationError("", fmt.Sprintf("insufficient funds: have %d, need %d", ta.Amount, amount))
	}
	if err := authorize(ta, authority, amount); err != nil {
		return err
	}
	ta.Amount -= amount
	m.Supply -= amount
	if err := p.putAccount(tx, account, ta); err != nil {
		return err
	}
	return p.putMint(tx, mint, m)
}

// CloseAccount deletes account and sends all its lamports to dest. Non-native
// accounts must be empty.
func (p *Program) CloseAccount(tx *ledger.Tx, account, dest, authority solana.PublicKey) error {
	ta, err := p.GetAccount(tx, account)
	if err != nil {
		return err
	}
	if ta.IsNative == nil && ta.Amount != 0 {
		return tbrerrors.NewValidationError("", fmt.Sprintf("cannot close %s with %d tokens", account, ta.Amount))
	}
	closer := ta.Owner
	if ta.CloseAuthority != nil {
		closer = *ta.CloseAuthority
	}
	if authority != closer {
		return tbrerrors.NewValidationError("", fmt.Sprintf("%s may not close %s", authority, account))
	}
	return tx.CloseAccount(account, dest)
}
