package program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
)

// Account is the ledger state held at a single address.
type Account struct {
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	cloned := &Account{
		Owner:      make(ed25519.PublicKey, len(a.Owner)),
		Lamports:   a.Lamports,
		Executable: a.Executable,
	}
	copy(cloned.Owner, a.Owner)

	if a.Data != nil {
		cloned.Data = make([]byte, len(a.Data))
		copy(cloned.Data, a.Data)
	}

	return cloned
}

// IsOwnedBy reports whether owner is the account's owning program.
func (a *Account) IsOwnedBy(owner ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, owner)
}

// AccountInfo is an account as seen by a single instruction. Duplicate
// references to the same address within an instruction share the underlying
// Account, so writes through one are visible through the other.
type AccountInfo struct {
	Key        ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	*Account
}

func (i *AccountInfo) String() string {
	return base58.Encode(i.Key)
}
