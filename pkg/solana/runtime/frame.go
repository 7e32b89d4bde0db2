package runtime

import (
	"bytes"
	"crypto/ed25519"
	"math/bits"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/program"
)

// frameAccount is a unique account referenced by an instruction frame, with
// the privileges the frame was granted for it and its state when the frame
// last observed it.
type frameAccount struct {
	key        ed25519.PublicKey
	isSigner   bool
	isWritable bool

	live *program.Account
	pre  *program.Account
}

// frame is a single executing instruction, either top level or a cross
// program invocation.
type frame struct {
	programID ed25519.PublicKey
	accounts  []*frameAccount
}

func newFrame(programID ed25519.PublicKey, infos []*program.AccountInfo) *frame {
	f := &frame{
		programID: programID,
	}

	for _, info := range infos {
		if existing := f.find(info.Key); existing != nil {
			existing.isSigner = existing.isSigner || info.IsSigner
			existing.isWritable = existing.isWritable || info.IsWritable
			continue
		}

		f.accounts = append(f.accounts, &frameAccount{
			key:        info.Key,
			isSigner:   info.IsSigner,
			isWritable: info.IsWritable,
			live:       info.Account,
		})
	}

	f.snapshot()
	return f
}

func (f *frame) find(key ed25519.PublicKey) *frameAccount {
	for _, account := range f.accounts {
		if bytes.Equal(account.key, key) {
			return account
		}
	}
	return nil
}

// snapshot records the current state of every account as the frame's
// baseline for verification.
func (f *frame) snapshot() {
	for _, account := range f.accounts {
		account.pre = account.live.Clone()
	}
}

// verify checks every change made since the last snapshot was one the
// frame's program was allowed to make, and that no lamports were created or
// destroyed.
func (f *frame) verify() error {
	var preHi, preLo, postHi, postLo uint64
	for _, account := range f.accounts {
		if err := verifyAccount(f.programID, account.isWritable, account.pre, account.live); err != nil {
			return err
		}

		preHi, preLo = add128(preHi, preLo, account.pre.Lamports)
		postHi, postLo = add128(postHi, postLo, account.live.Lamports)
	}

	if preHi != postHi || preLo != postLo {
		return solana.InstructionErrorUnbalancedInstruction
	}
	return nil
}

// verifyAndUpdate verifies the frame and takes a new snapshot, attributing
// the changes made so far to the frame's program.
func (f *frame) verifyAndUpdate() error {
	if err := f.verify(); err != nil {
		return err
	}

	f.snapshot()
	return nil
}

// verifyAccount applies the runtime's account modification rules.
//
// Reference: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/program-runtime/src/pre_account.rs
func verifyAccount(programID ed25519.PublicKey, isWritable bool, pre, post *program.Account) error {
	isOwner := bytes.Equal(programID, pre.Owner)

	// Only the owner may assign a new owner, and only once the account holds
	// no meaningful data.
	if !bytes.Equal(pre.Owner, post.Owner) {
		if !isWritable || pre.Executable || !isOwner || !isZeroed(post.Data) {
			return solana.InstructionErrorModifiedProgramID
		}
	}

	if post.Lamports < pre.Lamports && !isOwner {
		return solana.InstructionErrorExternalAccountLamportSpend
	}
	if post.Lamports != pre.Lamports {
		if !isWritable {
			return solana.InstructionErrorReadonlyLamportChange
		}
		if pre.Executable {
			return solana.InstructionErrorExecutableLamportChange
		}
	}

	if !bytes.Equal(pre.Data, post.Data) {
		if !isWritable {
			return solana.InstructionErrorReadonlyDataModified
		}
		if pre.Executable {
			return solana.InstructionErrorExecutableDataModified
		}
		if !isOwner {
			return solana.InstructionErrorExternalAccountDataModified
		}
	}

	if pre.Executable != post.Executable {
		return solana.InstructionErrorExecutableModified
	}

	return nil
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

func add128(hi, lo, v uint64) (uint64, uint64) {
	lo, carry := bits.Add64(lo, v, 0)
	return hi + carry, lo
}
