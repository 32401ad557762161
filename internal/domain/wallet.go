package domain

import "strings"

// WalletAddress is a case-normalized wallet address. It is the unit of work
// for the scoring pipeline and the key for checkpoint records.
type WalletAddress string

// NewWalletAddress trims surrounding whitespace and lower-cases the address.
// Hex addresses are case-insensitive; normalizing here keeps checkpoint keys
// stable across differently-cased inputs.
func NewWalletAddress(s string) WalletAddress {
	return WalletAddress(strings.ToLower(strings.TrimSpace(s)))
}

// String returns the string representation of the address.
func (w WalletAddress) String() string {
	return string(w)
}

// IsZero reports whether the address is empty after normalization.
func (w WalletAddress) IsZero() bool {
	return w == ""
}

// ChainID identifies a blockchain network in the balances API
// (1 = Ethereum mainnet, 137 = Polygon, 56 = BSC, ...).
type ChainID int64
