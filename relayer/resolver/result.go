package resolver

import "github.com/gagliardetto/solana-go"

// Result is either *Resolved or *Missing. Missing is an expected outcome,
// not an error: the caller supplies the named accounts and retries.
type Result interface {
	isResult()
}

// InstructionGroup is a set of calls submitted in one transaction.
type InstructionGroup struct {
	Instructions        []*Instruction     `json:"instructions"`
	AddressLookupTables []solana.PublicKey `json:"address_lookup_tables"`
}

// Resolved carries the calls to submit, in order.
type Resolved struct {
	Groups []InstructionGroup `json:"groups"`
}

// Missing names the accounts the resolver needs before it can finish.
type Missing struct {
	Accounts            []solana.PublicKey `json:"accounts"`
	AddressLookupTables []solana.PublicKey `json:"address_lookup_tables"`
}

func (*Resolved) isResult() {}
func (*Missing) isResult()  {}
