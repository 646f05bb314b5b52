package api

import (
	"encoding/hex"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
)

// QueryResponse represents the standard query response format
type QueryResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// VAARequest carries a hex VAA. Signed marks a full guardian-signed VAA;
// otherwise the bytes are the body alone.
type VAARequest struct {
	VAA    string `json:"vaa"`
	Signed bool   `json:"signed,omitempty"`
	// Kind is "native", "wrapped" or empty for automatic selection.
	Kind string `json:"kind,omitempty"`
	// Accounts maps supplied account keys to their owners, both base58.
	Accounts map[string]string `json:"accounts,omitempty"`
}

// AccountMetaResponse is one account of an instruction.
type AccountMetaResponse struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

// InstructionResponse is a completion call ready for submission.
type InstructionResponse struct {
	ProgramID string                `json:"program_id"`
	Accounts  []AccountMetaResponse `json:"accounts"`
	Data      string                `json:"data"`  // hex
	Borsh     string                `json:"borsh"` // hex of the execute_vaa_v1 return value
}

func NewInstructionResponse(ix *resolver.Instruction) InstructionResponse {
	out := InstructionResponse{
		ProgramID: ix.ProgramID.String(),
		Accounts:  make([]AccountMetaResponse, 0, len(ix.Accounts)),
		Data:      hex.EncodeToString(ix.Data),
		Borsh:     hex.EncodeToString(ix.MarshalBorsh()),
	}
	for _, meta := range ix.Accounts {
		out.Accounts = append(out.Accounts, AccountMetaResponse{
			Pubkey:     meta.PublicKey.String(),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	return out
}

// ResolveResponse is either resolved groups or the missing accounts.
type ResolveResponse struct {
	Status  string                  `json:"status"` // "resolved" or "missing"
	Groups  [][]InstructionResponse `json:"groups,omitempty"`
	Missing []string                `json:"missing,omitempty"`
	Lookups []string                `json:"address_lookup_tables,omitempty"`
}

func NewResolveResponse(result resolver.Result) ResolveResponse {
	switch res := result.(type) {
	case *resolver.Resolved:
		out := ResolveResponse{Status: "resolved"}
		for _, group := range res.Groups {
			calls := make([]InstructionResponse, 0, len(group.Instructions))
			for _, ix := range group.Instructions {
				calls = append(calls, NewInstructionResponse(ix))
			}
			out.Groups = append(out.Groups, calls)
			for _, lut := range group.AddressLookupTables {
				out.Lookups = append(out.Lookups, lut.String())
			}
		}
		return out
	case *resolver.Missing:
		out := ResolveResponse{Status: "missing"}
		for _, key := range res.Accounts {
			out.Missing = append(out.Missing, key.String())
		}
		for _, lut := range res.AddressLookupTables {
			out.Lookups = append(out.Lookups, lut.String())
		}
		return out
	default:
		return ResolveResponse{Status: "unknown"}
	}
}

// ForeignContractResponse is one registry entry.
type ForeignContractResponse struct {
	Chain   uint16 `json:"chain"`
	Address string `json:"address"` // hex
}
