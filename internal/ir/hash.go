package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for derived identities and content-addressed IDs.
// Version suffix enables future algorithm migration.
const (
	DomainTransaction = "gifboard/transaction/v1"
	DomainWallet      = "gifboard/wallet/v1"
	DomainAccount     = "gifboard/account/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// WalletIdentity derives a stable identity from a wallet name.
func WalletIdentity(name string) Identity {
	return Identity(hashWithDomain(DomainWallet, []byte(name)))
}

// AccountAddress derives the address of a program account from a seed.
// The same (program, seed) pair always yields the same address.
func AccountAddress(programID Identity, seed string) Identity {
	data := make([]byte, 0, IdentitySize+len(seed))
	data = append(data, programID[:]...)
	data = append(data, seed...)
	return Identity(hashWithDomain(DomainAccount, data))
}

// TransactionID computes the content-addressed ID of a logged call.
// args must be canonical-JSON encodable (see MarshalCanonical).
func TransactionID(account, caller Identity, instruction string, args map[string]any, seq int64) (string, error) {
	obj := map[string]any{
		"account":     account,
		"caller":      caller,
		"instruction": instruction,
		"args":        args,
		"seq":         seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("TransactionID: failed to marshal: %w", err)
	}

	sum := hashWithDomain(DomainTransaction, canonical)
	return hex.EncodeToString(sum[:]), nil
}

// MustTransactionID is like TransactionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTransactionID(account, caller Identity, instruction string, args map[string]any, seq int64) string {
	id, err := TransactionID(account, caller, instruction, args, seq)
	if err != nil {
		panic(err)
	}
	return id
}
