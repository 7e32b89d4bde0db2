package secp256r1vault

import (
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-custody/pkg/solana"
	"github.com/code-payments/code-custody/pkg/solana/program"
	"github.com/code-payments/code-custody/pkg/solana/secp256r1"
	"github.com/code-payments/code-custody/pkg/solana/system"
	"github.com/code-payments/code-custody/pkg/testutil"
)

type testEnv struct {
	ctx   *testutil.ProgramContext
	owner *ecdsa.PrivateKey
	now   time.Time

	payer        *program.AccountInfo
	vault        *program.AccountInfo
	instructions *program.AccountInfo
	system       *program.AccountInfo
	bump         uint8
}

func setup(t *testing.T) *testEnv {
	owner, err := secp256r1.GenerateKey()
	require.NoError(t, err)

	vault, bump, err := GetVaultAddress(&GetVaultAddressArgs{Owner: secp256r1.PublicKeyFromECDSA(&owner.PublicKey)})
	require.NoError(t, err)

	env := &testEnv{
		ctx:          testutil.NewProgramContext(PROGRAM_ID),
		owner:        owner,
		now:          time.Unix(1_700_000_000, 0),
		payer:        testutil.NewSystemAccountInfo(testutil.GenerateSolanaKeys(t, 1)[0], 5_000, true, true),
		vault:        testutil.NewSystemAccountInfo(vault, 0, false, true),
		instructions: &program.AccountInfo{Key: SYSVAR_INSTRUCTIONS_PUBKEY, Account: &program.Account{Owner: system.SysvarOwner}},
		system:       &program.AccountInfo{Key: SYSTEM_PROGRAM_ID, Account: &program.Account{Executable: true}},
		bump:         bump,
	}
	env.ctx.CurrentTime = program.Clock{Slot: 10, UnixTimestamp: env.now.Unix()}
	return env
}

func (e *testEnv) ownerKey() secp256r1.PublicKey {
	return secp256r1.PublicKeyFromECDSA(&e.owner.PublicKey)
}

func (e *testEnv) deposit(owner secp256r1.PublicKey, amount uint64) error {
	ix := NewDepositInstruction(
		&DepositInstructionAccounts{Payer: e.payer.Key, Vault: e.vault.Key},
		&DepositInstructionArgs{Owner: owner, Amount: amount},
	)
	return NewProcessor().Process(e.ctx, []*program.AccountInfo{e.payer, e.vault, e.system}, ix.Data)
}

func (e *testEnv) withdrawInstruction() solana.Instruction {
	return NewWithdrawInstruction(
		&WithdrawInstructionAccounts{Payer: e.payer.Key, Vault: e.vault.Key},
		&WithdrawInstructionArgs{Bump: e.bump},
	)
}

// withdraw executes a withdraw as the first instruction of a batch followed by
// the provided instructions.
func (e *testEnv) withdraw(t *testing.T, ix solana.Instruction, following ...solana.Instruction) error {
	e.instructions.Data = system.MarshalInstructionsSysvar(append([]solana.Instruction{ix}, following...))

	accounts := []*program.AccountInfo{e.payer, e.vault, e.instructions, e.system}
	return NewProcessor().Process(e.ctx, accounts, ix.Data)
}

func (e *testEnv) authorization(t *testing.T, expiry time.Time) solana.Instruction {
	ix, err := NewAuthorizationInstruction(e.owner, e.payer.Key, expiry)
	require.NoError(t, err)
	return ix
}

func TestGetVaultAddress(t *testing.T) {
	env := setup(t)

	compressed := env.ownerKey().Compressed()
	assert.True(t, solana.VerifyProgramAddress(env.vault.Key, PROGRAM_ID, env.bump, VaultPrefix, compressed[:1], compressed[1:]))
}

func TestDeposit(t *testing.T) {
	env := setup(t)

	require.NoError(t, env.deposit(env.ownerKey(), 1_000))
	require.Len(t, env.ctx.Invoked, 1)
	assert.Equal(t, system.Transfer(env.payer.Key, env.vault.Key, 1_000), env.ctx.Invoked[0])
}

func TestDeposit_Validation(t *testing.T) {
	env := setup(t)
	assert.Equal(t, program.ErrInvalidAmount, env.deposit(env.ownerKey(), 0))

	var offCurve secp256r1.PublicKey
	offCurve[0] = 1
	assert.Equal(t, program.ErrInvalidInstructionData, env.deposit(offCurve, 1_000))

	accounts := []*program.AccountInfo{env.payer, env.vault, env.system}
	assert.Equal(t, program.ErrInvalidInstructionData, NewProcessor().Process(env.ctx, accounts, nil))
	assert.Equal(t, program.ErrInvalidInstructionData, NewProcessor().Process(env.ctx, accounts, []byte{depositDiscriminator, 1, 2}))
	assert.Equal(t, program.ErrInvalidInstructionData, NewProcessor().Process(env.ctx, accounts, []byte{0xff}))

	other, err := secp256r1.GenerateKey()
	require.NoError(t, err)
	assert.Equal(t, program.ErrInvalidAuthority, env.deposit(secp256r1.PublicKeyFromECDSA(&other.PublicKey), 1_000))

	env.vault.Lamports = 1
	assert.Equal(t, solana.InstructionErrorAccountAlreadyInitialized, env.deposit(env.ownerKey(), 1_000))

	env.vault.Lamports = 0
	env.vault.Owner = PROGRAM_ID
	assert.Equal(t, solana.InstructionErrorInvalidAccountOwner, env.deposit(env.ownerKey(), 1_000))

	env.vault.Owner = SYSTEM_PROGRAM_ID
	env.payer.IsSigner = false
	assert.Equal(t, program.ErrUnauthorized, env.deposit(env.ownerKey(), 1_000))

	assert.Empty(t, env.ctx.Invoked)
}

func TestWithdraw(t *testing.T) {
	env := setup(t)
	env.vault.Lamports = 2_500

	err := env.withdraw(t, env.withdrawInstruction(), env.authorization(t, env.now.Add(time.Hour)))
	require.NoError(t, err)

	require.Len(t, env.ctx.Invoked, 1)
	assert.Equal(t, system.Transfer(env.vault.Key, env.payer.Key, 2_500), env.ctx.Invoked[0])

	require.Len(t, env.ctx.InvokedWith[0], 1)
	signer, err := solana.CreateProgramAddress(PROGRAM_ID, env.ctx.InvokedWith[0][0]...)
	require.NoError(t, err)
	assert.EqualValues(t, env.vault.Key, signer)
}

func TestWithdraw_ExpiryBoundary(t *testing.T) {
	env := setup(t)
	env.vault.Lamports = 2_500

	// An authorization is valid through its expiry second.
	require.NoError(t, env.withdraw(t, env.withdrawInstruction(), env.authorization(t, env.now)))

	err := env.withdraw(t, env.withdrawInstruction(), env.authorization(t, env.now.Add(-time.Second)))
	assert.Equal(t, program.ErrExpired, err)
}

func TestWithdraw_Validation(t *testing.T) {
	env := setup(t)
	env.vault.Lamports = 2_500
	valid := env.authorization(t, env.now.Add(time.Hour))

	// Missing authorization.
	assert.Equal(t, program.ErrInvalidInstructionData, env.withdraw(t, env.withdrawInstruction()))

	// Authorization is not a precompile instruction.
	forged := valid
	forged.Program = PROGRAM_ID
	assert.Equal(t, program.ErrInvalidInstructionData, env.withdraw(t, env.withdrawInstruction(), forged))

	// Authorization must precede nothing else; it has to be the next instruction.
	assert.Equal(t, program.ErrInvalidInstructionData, env.withdraw(t, env.withdrawInstruction(), system.Transfer(env.payer.Key, env.vault.Key, 1), valid))

	// Exactly one signature.
	first, err := secp256r1.ParseInstruction(valid.Data)
	require.NoError(t, err)
	double, err := secp256r1.NewInstruction(first[0], first[0])
	require.NoError(t, err)
	assert.Equal(t, program.ErrInvalidInstructionData, env.withdraw(t, env.withdrawInstruction(), double))

	// Message must be a payer and an expiry.
	short, err := secp256r1.Instruction(env.owner, []byte("withdraw"))
	require.NoError(t, err)
	assert.Equal(t, program.ErrInvalidInstructionData, env.withdraw(t, env.withdrawInstruction(), short))

	// Authorization issued to another payer.
	other, err := NewAuthorizationInstruction(env.owner, testutil.GenerateSolanaKeys(t, 1)[0], env.now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, program.ErrInvalidAuthority, env.withdraw(t, env.withdrawInstruction(), other))

	// Authorization signed by a key that does not own the vault.
	intruder, err := secp256r1.GenerateKey()
	require.NoError(t, err)
	foreign, err := NewAuthorizationInstruction(intruder, env.payer.Key, env.now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, program.ErrInvalidAuthority, env.withdraw(t, env.withdrawInstruction(), foreign))

	// Non canonical bump.
	ix := NewWithdrawInstruction(
		&WithdrawInstructionAccounts{Payer: env.payer.Key, Vault: env.vault.Key},
		&WithdrawInstructionArgs{Bump: env.bump - 1},
	)
	assert.Equal(t, program.ErrInvalidAuthority, env.withdraw(t, ix, valid))

	// Wrong sysvar.
	env.instructions.Key = SYSTEM_PROGRAM_ID
	assert.Equal(t, solana.InstructionErrorInvalidAccountData, env.withdraw(t, env.withdrawInstruction(), valid))
	env.instructions.Key = SYSVAR_INSTRUCTIONS_PUBKEY

	env.payer.IsSigner = false
	assert.Equal(t, program.ErrUnauthorized, env.withdraw(t, env.withdrawInstruction(), valid))
	env.payer.IsSigner = true

	assert.Empty(t, env.ctx.Invoked)

	// A swept vault cannot be withdrawn again.
	env.vault.Lamports = 0
	assert.Equal(t, program.ErrNotInitialized, env.withdraw(t, env.withdrawInstruction(), valid))
}

func TestAuthorizationMessage(t *testing.T) {
	payer := testutil.GenerateSolanaKeys(t, 1)[0]
	message := &AuthorizationMessage{Payer: payer, Expiry: -5}

	data := message.Marshal()
	require.Len(t, data, AuthorizationMessageSize)

	var decoded AuthorizationMessage
	require.NoError(t, decoded.Unmarshal(data))
	assert.Equal(t, message, &decoded)
	assert.Equal(t, program.ErrInvalidInstructionData, decoded.Unmarshal(data[:39]))
}

func TestAuthorize(t *testing.T) {
	payer := testutil.GenerateSolanaKeys(t, 1)[0]
	authorization := &SignatureAuthorization{Message: AuthorizationMessage{Payer: payer, Expiry: 100}}

	assert.NoError(t, authorization.Authorize(payer, 99))
	assert.NoError(t, authorization.Authorize(payer, 100))
	assert.Equal(t, program.ErrExpired, authorization.Authorize(payer, 101))
	assert.Equal(t, program.ErrInvalidAuthority, authorization.Authorize(testutil.GenerateSolanaKeys(t, 1)[0], 99))
}
