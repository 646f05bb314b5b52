package resolver

import (
	"crypto/sha256"

	"github.com/gagliardetto/solana-go"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
)

// Discriminator returns the Anchor instruction discriminator for name:
// the first 8 bytes of sha256("global:" + name).
func Discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

// AccountDiscriminator returns the Anchor account discriminator for a
// struct name.
func AccountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

var (
	CompleteNativeDiscriminator  = Discriminator("complete_native_transfer_with_relay")
	CompleteWrappedDiscriminator = Discriminator("complete_wrapped_transfer_with_relay")
)

// Instruction is a fully specified call: program, ordered accounts with
// their flags, and opaque data.
type Instruction struct {
	ProgramID solana.PublicKey        `json:"program_id"`
	Accounts  solana.AccountMetaSlice `json:"accounts"`
	Data      []byte                  `json:"data"`
}

// ToSolana converts the call into a solana-go instruction for transaction
// building.
func (ix *Instruction) ToSolana() solana.Instruction {
	return solana.NewInstruction(ix.ProgramID, ix.Accounts, ix.Data)
}

// MarshalBorsh encodes the call as the execute_vaa_v1 return value:
// program_id, Vec<{pubkey, is_signer, is_writable}>, Vec<u8>.
func (ix *Instruction) MarshalBorsh() []byte {
	w := codec.NewLEWriter(32 + 4 + len(ix.Accounts)*34 + 4 + len(ix.Data))
	w.Bytes32(ix.ProgramID)
	w.Uint32(uint32(len(ix.Accounts)))
	for _, meta := range ix.Accounts {
		w.Bytes32(meta.PublicKey).Bool(meta.IsSigner).Bool(meta.IsWritable)
	}
	return w.Vec(ix.Data).Result()
}

// UnmarshalInstruction decodes MarshalBorsh output.
func UnmarshalInstruction(raw []byte) (*Instruction, error) {
	r := codec.NewLEReader("instruction", raw)
	program, err := r.Bytes32()
	if err != nil {
		return nil, err
	}
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if err := r.Require(int(n) * 34); err != nil {
		return nil, err
	}
	ix := &Instruction{ProgramID: program, Accounts: make(solana.AccountMetaSlice, 0, n)}
	for i := uint32(0); i < n; i++ {
		key, _ := r.Bytes32()
		signer, _ := r.Bool()
		writable, _ := r.Bool()
		ix.Accounts = append(ix.Accounts, solana.NewAccountMeta(key, writable, signer))
	}
	if ix.Data, err = r.Vec(); err != nil {
		return nil, err
	}
	return ix, nil
}
