package pda

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	seedSender        = []byte("sender")
	seedRedeemer      = []byte("redeemer")
	seedTmp           = []byte("tmp")
	seedForeign       = []byte("foreign_contract")
	seedLUTAuthority  = []byte("lut_authority")
	seedConfig        = []byte("config")
	seedCustodySigner = []byte("custody_signer")
	seedAuthority     = []byte("authority_signer")
	seedMintSigner    = []byte("mint_signer")
	seedEmitter       = []byte("emitter")
	seedWrapped       = []byte("wrapped")
	seedMeta          = []byte("meta")
	seedPostedVAA     = []byte("PostedVAA")
	seedSequence      = []byte("Sequence")
	seedBridge        = []byte("Bridge")
	seedFeeCollector  = []byte("fee_collector")
)

// Deriver derives addresses for one deployment. It holds no other state and
// is safe for concurrent use.
type Deriver struct {
	programs Programs
}

// NewDeriver returns a Deriver for the given program ids.
func NewDeriver(programs Programs) *Deriver {
	return &Deriver{programs: programs}
}

// Programs returns the program ids the deriver was built with.
func (d *Deriver) Programs() Programs { return d.programs }

// find wraps solana.FindProgramAddress. A seed set with no off-curve bump
// has probability 2^-256; it is treated as a programming error.
func find(program solana.PublicKey, seeds ...[]byte) (solana.PublicKey, uint8) {
	key, bump, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		panic(fmt.Sprintf("pda: no bump for seeds under %s: %v", program, err))
	}
	return key, bump
}

func u16BE(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func u16LE(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func u64BE(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Relayer program.

func (d *Deriver) SenderConfig() (solana.PublicKey, uint8) {
	return find(d.programs.Relayer, seedSender)
}

func (d *Deriver) RedeemerConfig() (solana.PublicKey, uint8) {
	return find(d.programs.Relayer, seedRedeemer)
}

// Tmp is the per-mint escrow token account, owned by a config PDA.
func (d *Deriver) Tmp(mint solana.PublicKey) solana.PublicKey {
	key, _ := find(d.programs.Relayer, seedTmp, mint.Bytes())
	return key
}

// ForeignContract seeds the chain id little-endian, unlike the token
// bridge seeds.
func (d *Deriver) ForeignContract(chain uint16) (solana.PublicKey, uint8) {
	return find(d.programs.Relayer, seedForeign, u16LE(chain))
}

func (d *Deriver) LUTAuthority() (solana.PublicKey, uint8) {
	return find(d.programs.Relayer, seedLUTAuthority)
}

// Token bridge program.

func (d *Deriver) TokenBridgeConfig() solana.PublicKey {
	key, _ := find(d.programs.TokenBridge, seedConfig)
	return key
}

func (d *Deriver) Custody(mint solana.PublicKey) solana.PublicKey {
	key, _ := find(d.programs.TokenBridge, mint.Bytes())
	return key
}

func (d *Deriver) CustodySigner() solana.PublicKey {
	key, _ := find(d.programs.TokenBridge, seedCustodySigner)
	return key
}

func (d *Deriver) AuthoritySigner() solana.PublicKey {
	key, _ := find(d.programs.TokenBridge, seedAuthority)
	return key
}

func (d *Deriver) MintAuthority() solana.PublicKey {
	key, _ := find(d.programs.TokenBridge, seedMintSigner)
	return key
}

// Emitter is the token bridge's message emitter.
func (d *Deriver) Emitter() solana.PublicKey {
	key, _ := find(d.programs.TokenBridge, seedEmitter)
	return key
}

// Claim marks a (emitter, chain, sequence) message as redeemed.
func (d *Deriver) Claim(emitterAddress [32]byte, emitterChain uint16, sequence uint64) solana.PublicKey {
	key, _ := find(d.programs.TokenBridge, emitterAddress[:], u16BE(emitterChain), u64BE(sequence))
	return key
}

// ForeignEndpoint is the token bridge's registration of a remote bridge.
func (d *Deriver) ForeignEndpoint(chain uint16, address [32]byte) solana.PublicKey {
	key, _ := find(d.programs.TokenBridge, u16BE(chain), address[:])
	return key
}

func (d *Deriver) WrappedMint(tokenChain uint16, tokenAddress [32]byte) solana.PublicKey {
	key, _ := find(d.programs.TokenBridge, seedWrapped, u16BE(tokenChain), tokenAddress[:])
	return key
}

func (d *Deriver) WrappedMeta(mint solana.PublicKey) solana.PublicKey {
	key, _ := find(d.programs.TokenBridge, seedMeta, mint.Bytes())
	return key
}

// Core bridge program.

func (d *Deriver) PostedVAA(hash [32]byte) solana.PublicKey {
	key, _ := find(d.programs.CoreBridge, seedPostedVAA, hash[:])
	return key
}

func (d *Deriver) Sequence(emitter solana.PublicKey) solana.PublicKey {
	key, _ := find(d.programs.CoreBridge, seedSequence, emitter.Bytes())
	return key
}

func (d *Deriver) WormholeBridge() solana.PublicKey {
	key, _ := find(d.programs.CoreBridge, seedBridge)
	return key
}

func (d *Deriver) FeeCollector() solana.PublicKey {
	key, _ := find(d.programs.CoreBridge, seedFeeCollector)
	return key
}

// AssociatedTokenAccount derives the ATA of owner for mint under the given
// token program.
func AssociatedTokenAccount(owner, tokenProgram, mint solana.PublicKey) solana.PublicKey {
	key, _ := find(AssociatedTokenProgramID, owner.Bytes(), tokenProgram.Bytes(), mint.Bytes())
	return key
}
