// Package token implements the SPL token account layouts and a simulated
// token program over the ledger.
package token

import (
	"github.com/gagliardetto/solana-go"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
)

const (
	MintLen    = 82
	AccountLen = 165

	// Rent-exempt minimums for the two layouts.
	MintRent    = 1_461_600
	AccountRent = 2_039_280
)

// AccountState is the token account state byte.
type AccountState uint8

const (
	StateUninitialized AccountState = iota
	StateInitialized
	StateFrozen
)

// Mint is the 82-byte SPL mint layout.
type Mint struct {
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *solana.PublicKey
}

// TokenAccount is the 165-byte SPL token account layout.
type TokenAccount struct {
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	Delegate        *solana.PublicKey
	State           AccountState
	IsNative        *uint64 // rent-exempt reserve for native accounts
	DelegatedAmount uint64
	CloseAuthority  *solana.PublicKey
}

func writeKeyOption(w *codec.Writer, key *solana.PublicKey) {
	if key == nil {
		w.Uint32(0).Bytes32([32]byte{})
		return
	}
	w.Uint32(1).Bytes32(*key)
}

func readKeyOption(r *codec.Reader) (*solana.PublicKey, error) {
	tag, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	key, err := r.Bytes32()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	pk := solana.PublicKey(key)
	return &pk, nil
}

// Encode returns the packed mint.
func (m *Mint) Encode() []byte {
	w := codec.NewLEWriter(MintLen)
	writeKeyOption(w, m.MintAuthority)
	w.Uint64(m.Supply).Uint8(m.Decimals).Bool(m.IsInitialized)
	writeKeyOption(w, m.FreezeAuthority)
	return w.Result()
}

// DecodeMint unpacks a mint. Data must be exactly MintLen bytes.
func DecodeMint(data []byte) (*Mint, error) {
	r := codec.NewLEReader("mint", data)
	if err := codec.CheckLen("mint", data, MintLen); err != nil {
		return nil, err
	}
	var m Mint
	var err error
	if m.MintAuthority, err = readKeyOption(r); err != nil {
		return nil, err
	}
	m.Supply, _ = r.Uint64()
	m.Decimals, _ = r.Uint8()
	m.IsInitialized, _ = r.Bool()
	if m.FreezeAuthority, err = readKeyOption(r); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode returns the packed token account.
func (a *TokenAccount) Encode() []byte {
	w := codec.NewLEWriter(AccountLen)
	w.Bytes32(a.Mint).Bytes32(a.Owner).Uint64(a.Amount)
	writeKeyOption(w, a.Delegate)
	w.Uint8(uint8(a.State))
	if a.IsNative == nil {
		w.Uint32(0).Uint64(0)
	} else {
		w.Uint32(1).Uint64(*a.IsNative)
	}
	w.Uint64(a.DelegatedAmount)
	writeKeyOption(w, a.CloseAuthority)
	return w.Result()
}

// DecodeTokenAccount unpacks a token account.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	if err := codec.CheckLen("token account", data, AccountLen); err != nil {
		return nil, err
	}
	r := codec.NewLEReader("token account", data)
	var a TokenAccount
	var err error
	a.Mint, _ = r.Bytes32()
	a.Owner, _ = r.Bytes32()
	a.Amount, _ = r.Uint64()
	if a.Delegate, err = readKeyOption(r); err != nil {
		return nil, err
	}
	state, _ := r.Uint8()
	a.State = AccountState(state)
	tag, _ := r.Uint32()
	reserve, _ := r.Uint64()
	if tag != 0 {
		a.IsNative = &reserve
	}
	a.DelegatedAmount, _ = r.Uint64()
	if a.CloseAuthority, err = readKeyOption(r); err != nil {
		return nil, err
	}
	return &a, nil
}
