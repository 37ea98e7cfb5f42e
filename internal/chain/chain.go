// Package chain provides shared TON chain constants and common utilities:
// amount conversion, bounded retry, and outbound rate limiting.
package chain

// Base workchain constants.
const (
	// Workchain is the base workchain id for wallet contracts.
	Workchain = 0

	// NanoDecimals is the decimal precision of the native coin (1 TON = 1e9 nano).
	NanoDecimals = 9
)

// ContractState describes the on-chain state of an account.
type ContractState string

// Contract states as reported by the RPC gateway.
const (
	StateUninitialized ContractState = "uninitialized"
	StateActive        ContractState = "active"
	StateFrozen        ContractState = "frozen"
)
