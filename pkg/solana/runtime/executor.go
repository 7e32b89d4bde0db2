package runtime

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-custody/pkg/code/data/account"
	"github.com/code-payments/code-custody/pkg/metrics"
	"github.com/code-payments/code-custody/pkg/solana"
	ed25519program "github.com/code-payments/code-custody/pkg/solana/ed25519"
	"github.com/code-payments/code-custody/pkg/solana/program"
	"github.com/code-payments/code-custody/pkg/solana/secp256r1"
	"github.com/code-payments/code-custody/pkg/solana/system"
	"github.com/code-payments/code-custody/pkg/solana/token"
	sync_util "github.com/code-payments/code-custody/pkg/sync"
)

// NativeLoaderKey owns every builtin and registered program account.
var NativeLoaderKey ed25519.PublicKey

func init() {
	var err error
	NativeLoaderKey, err = base58.Decode("NativeLoader1111111111111111111111111111111")
	if err != nil {
		panic(err)
	}
}

// Result describes a committed transaction.
type Result struct {
	Signature   solana.Signature
	ExecutionID uuid.UUID
	Slot        uint64
	Logs        []string
}

// Option configures an Executor.
type Option func(e *Executor)

// WithProgram registers processor under id, making it invokable by
// transactions and other programs.
func WithProgram(id ed25519.PublicKey, processor program.Processor) Option {
	return func(e *Executor) {
		e.programs[string(id)] = processor
	}
}

// WithClock overrides the source of the clock's unix timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// Executor runs transactions atomically against an account.Store. Each
// transaction either commits every account change made by its instructions or
// none of them.
type Executor struct {
	log  *logrus.Entry
	conf *conf

	store       account.Store
	programs    map[string]program.Processor
	locks       *sync_util.StripedLock
	statusCache *statusCache
	secp256r1   *secp256r1.Verifier
	now         func() time.Time

	slot uint64
}

// New returns an Executor with the builtin system, token and associated token
// account programs along with the signature verification precompiles.
func New(store account.Store, configProvider ConfigProvider, opts ...Option) (*Executor, error) {
	conf := configProvider()
	ctx := context.Background()

	verifier, err := secp256r1.NewVerifier(int(conf.signatureCacheSize.Get(ctx)))
	if err != nil {
		return nil, err
	}

	statusCache, err := newStatusCache(uint(conf.signatureCacheSize.Get(ctx)))
	if err != nil {
		return nil, err
	}

	e := &Executor{
		log:         logrus.StandardLogger().WithField("type", "solana/runtime"),
		conf:        conf,
		store:       store,
		programs:    make(map[string]program.Processor),
		locks:       sync_util.NewStripedLock(uint(conf.lockStripes.Get(ctx))),
		statusCache: statusCache,
		secp256r1:   verifier,
		now:         time.Now,
	}

	e.programs[string(system.ProgramKey[:])] = system.NewProcessor()
	e.programs[string(token.ProgramKey)] = token.NewProcessor()
	e.programs[string(token.AssociatedTokenAccountProgramKey)] = token.NewAssociatedProcessor()
	e.programs[string(ed25519program.ProgramKey)] = precompileProcessor
	e.programs[string(secp256r1.ProgramKey)] = precompileProcessor

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// precompileProcessor is a no-op, since precompile instructions are verified
// before any instruction executes.
var precompileProcessor = program.ProcessorFunc(func(program.Context, []*program.AccountInfo, []byte) error {
	return nil
})

// Execute runs every instruction of txn in order and commits the resulting
// account state. Failures are reported as *solana.TransactionError, with
// instruction failures carrying the index of the failed instruction. Any other
// error indicates the store could not be read or written.
func (e *Executor) Execute(ctx context.Context, txn solana.Transaction) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, executorMetricsName, "Execute")
	defer tracer.End()

	tracer.AddAttribute("instructions", len(txn.Message.Instructions))

	start := time.Now()
	result, err := e.execute(ctx, &txn)
	tracer.OnError(err)
	if result != nil {
		tracer.AddAttribute("execution_id", result.ExecutionID.String())
	}

	recordExecutionEvent(ctx, &txn, result, err, time.Since(start))
	return result, err
}

func (e *Executor) execute(ctx context.Context, txn *solana.Transaction) (*Result, error) {
	log := e.log.WithField("method", "Execute")

	if size := uint64(len(txn.Marshal())); size > e.conf.maxTransactionSize.Get(ctx) {
		log.WithField("size", size).Debug("transaction too large")
		return nil, solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}

	msg := &txn.Message
	if err := msg.Sanitize(); err != nil {
		log.WithError(err).Debug("transaction failed to sanitize")
		return nil, solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}
	if len(txn.Signatures) != int(msg.Header.NumSignatures) {
		log.Debug("signature count does not match header")
		return nil, solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}

	signature := txn.Signatures[0]
	log = log.WithField("signature", base58.Encode(signature[:]))

	if e.conf.verifySignatures.Get(ctx) {
		if err := txn.VerifySignatures(); err != nil {
			log.WithError(err).Debug("signature verification failed")
			return nil, solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
		}
	}

	instructions := make([]solana.Instruction, len(msg.Instructions))
	instructionData := make([][]byte, len(msg.Instructions))
	for i := range msg.Instructions {
		ix, err := msg.DecompileInstruction(i)
		if err != nil {
			return nil, solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		if !e.isProgram(ix.Program) {
			log.WithField("program", base58.Encode(ix.Program)).Debug("instruction targets an unknown program")
			return nil, solana.NewTransactionError(solana.TransactionErrorInvalidProgramForExecution)
		}

		instructions[i] = ix
		instructionData[i] = ix.Data
	}

	if err := e.verifyPrecompiles(instructions, instructionData); err != nil {
		log.WithError(err).Debug("precompile verification failed")
		return nil, err
	}

	writable := make([]bool, len(msg.Accounts))
	var writableKeys, readonlyKeys [][]byte
	for i, key := range msg.Accounts {
		if e.isReserved(key) {
			continue
		}

		writable[i] = msg.IsWritable(i)
		if writable[i] {
			writableKeys = append(writableKeys, key)
		} else {
			readonlyKeys = append(readonlyKeys, key)
		}
	}

	unlock := e.locks.Acquire(writableKeys, readonlyKeys)
	defer unlock()

	messageHash := sha256.Sum256(msg.Marshal())
	if err := e.statusCache.check(ctx, signature, messageHash[:]); err != nil {
		log.WithError(err).Debug("signature already committed")
		return nil, err
	}

	loaded, originals, err := e.load(ctx, msg.Accounts, instructions)
	if err != nil {
		return nil, err
	}

	clock := e.nextClock()
	t := &transactionContext{
		executor:     e,
		accounts:     loaded,
		clock:        clock,
		maxCallDepth: int(e.conf.maxCallDepth.Get(ctx)),
		log:          log,
	}

	sysvar := loaded[string(system.InstructionsSysVar)]
	for i, compiled := range msg.Instructions {
		if sysvar != nil {
			system.SetCurrentInstructionIndex(sysvar.Data, uint16(i))
		}

		infos := make([]*program.AccountInfo, len(compiled.Accounts))
		for j, index := range compiled.Accounts {
			key := msg.Accounts[index]
			infos[j] = &program.AccountInfo{
				Key:        key,
				IsSigner:   msg.IsSigner(int(index)),
				IsWritable: writable[index],
				Account:    loaded[string(key)],
			}
		}

		err := t.execute(i, 1, instructions[i].Program, infos, instructions[i].Data)
		if err == nil {
			err = t.failure
		}
		if err != nil {
			log.WithError(err).WithField("instruction", i).Debug("instruction failed")
			return nil, instructionError(i, err)
		}
	}

	upserts, deletes := e.changes(msg.Accounts, loaded, originals, clock)
	if err := e.store.Commit(ctx, upserts, deletes); err != nil {
		log.WithError(err).Warn("failed to commit transaction")
		return nil, errors.Wrap(err, "failed to commit transaction")
	}

	e.statusCache.add(ctx, signature, messageHash[:])

	return &Result{
		Signature:   signature,
		ExecutionID: uuid.New(),
		Slot:        clock.Slot,
		Logs:        t.logs,
	}, nil
}

// verifyPrecompiles checks every signature verification instruction before
// anything executes, so a single bad signature rejects the whole transaction.
func (e *Executor) verifyPrecompiles(instructions []solana.Instruction, instructionData [][]byte) error {
	for i, ix := range instructions {
		var err error
		switch {
		case bytes.Equal(ix.Program, ed25519program.ProgramKey):
			err = ed25519program.Verify(ix.Data, instructionData)
		case bytes.Equal(ix.Program, secp256r1.ProgramKey):
			err = e.secp256r1.Verify(ix.Data, instructionData)
		}
		if err != nil {
			return instructionError(i, err)
		}
	}
	return nil
}

// load reads every account referenced by the message. Accounts without a
// record are presented as empty system accounts, while program and sysvar
// accounts are synthesized.
func (e *Executor) load(ctx context.Context, keys []ed25519.PublicKey, instructions []solana.Instruction) (map[string]*program.Account, map[string]*account.Record, error) {
	var addresses []string
	for _, key := range keys {
		if !e.isReserved(key) {
			addresses = append(addresses, base58.Encode(key))
		}
	}

	originals, err := e.store.GetBatch(ctx, addresses...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load accounts")
	}

	loaded := make(map[string]*program.Account, len(keys))
	for _, key := range keys {
		switch {
		case e.isProgram(key):
			loaded[string(key)] = &program.Account{
				Owner:      NativeLoaderKey,
				Lamports:   1,
				Executable: true,
			}
		case bytes.Equal(key, system.InstructionsSysVar):
			loaded[string(key)] = &program.Account{
				Owner:    system.SysvarOwner,
				Lamports: 1,
				Data:     system.MarshalInstructionsSysvar(instructions),
			}
		default:
			record, ok := originals[base58.Encode(key)]
			if !ok {
				loaded[string(key)] = &program.Account{Owner: make(ed25519.PublicKey, ed25519.PublicKeySize)}
				continue
			}

			acct, err := fromRecord(record)
			if err != nil {
				return nil, nil, err
			}
			loaded[string(key)] = acct
		}
	}

	return loaded, originals, nil
}

// changes computes the records to write once every instruction succeeds.
// Accounts left without lamports are purged.
func (e *Executor) changes(keys []ed25519.PublicKey, loaded map[string]*program.Account, originals map[string]*account.Record, clock program.Clock) ([]*account.Record, []string) {
	var upserts []*account.Record
	var deletes []string

	now := e.now()
	for _, key := range keys {
		if e.isReserved(key) {
			continue
		}

		address := base58.Encode(key)
		live := loaded[string(key)]
		original, existed := originals[address]

		if live.Lamports == 0 {
			if existed {
				deletes = append(deletes, address)
			}
			continue
		}

		if existed && isUnchanged(original, live) {
			continue
		}

		record := toRecord(address, live)
		record.Slot = clock.Slot
		record.LastUpdatedAt = now
		upserts = append(upserts, record)
	}

	sort.Slice(upserts, func(i, j int) bool {
		return upserts[i].Address < upserts[j].Address
	})
	sort.Strings(deletes)

	return upserts, deletes
}

// Airdrop credits lamports to address, creating a system account if none
// exists.
func (e *Executor) Airdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) error {
	tracer := metrics.TraceMethodCall(ctx, executorMetricsName, "Airdrop")
	defer tracer.End()

	if lamports == 0 {
		return errors.New("airdrop amount must be positive")
	}

	unlock := e.locks.Acquire([][]byte{address}, nil)
	defer unlock()

	encoded := base58.Encode(address)
	record, err := e.store.Get(ctx, encoded)
	if err == account.ErrAccountNotFound {
		record = &account.Record{
			Address: encoded,
			Owner:   base58.Encode(program.SystemProgramKey),
		}
	} else if err != nil {
		tracer.OnError(err)
		return err
	}

	if record.Lamports+lamports < record.Lamports {
		return program.ErrArithmeticOverflow
	}

	record.Lamports += lamports
	record.Slot = e.nextClock().Slot
	record.LastUpdatedAt = e.now()

	err = e.store.Commit(ctx, []*account.Record{record}, nil)
	tracer.OnError(err)
	return err
}

// SetAccount overwrites the state at address. An account without lamports is
// removed.
func (e *Executor) SetAccount(ctx context.Context, address ed25519.PublicKey, acct *program.Account) error {
	tracer := metrics.TraceMethodCall(ctx, executorMetricsName, "SetAccount")
	defer tracer.End()

	if e.isReserved(address) {
		return errors.Errorf("%s is reserved by the runtime", base58.Encode(address))
	}

	unlock := e.locks.Acquire([][]byte{address}, nil)
	defer unlock()

	encoded := base58.Encode(address)

	var err error
	if acct.Lamports == 0 {
		err = e.store.Commit(ctx, nil, []string{encoded})
	} else {
		record := toRecord(encoded, acct)
		record.Slot = e.nextClock().Slot
		record.LastUpdatedAt = e.now()
		err = e.store.Commit(ctx, []*account.Record{record}, nil)
	}

	tracer.OnError(err)
	return err
}

// GetAccount returns the committed state at address, or
// account.ErrAccountNotFound.
func (e *Executor) GetAccount(ctx context.Context, address ed25519.PublicKey) (*program.Account, error) {
	tracer := metrics.TraceMethodCall(ctx, executorMetricsName, "GetAccount")
	defer tracer.End()

	unlock := e.locks.Acquire(nil, [][]byte{address})
	defer unlock()

	record, err := e.store.Get(ctx, base58.Encode(address))
	if err != nil {
		if err != account.ErrAccountNotFound {
			tracer.OnError(err)
		}
		return nil, err
	}
	return fromRecord(record)
}

func (e *Executor) isProgram(key ed25519.PublicKey) bool {
	_, ok := e.programs[string(key)]
	return ok
}

// isReserved reports whether key is owned by the runtime rather than the store.
// Reserved accounts are never locked, written or committed.
func (e *Executor) isReserved(key ed25519.PublicKey) bool {
	return e.isProgram(key) || bytes.Equal(key, system.InstructionsSysVar)
}

func (e *Executor) nextClock() program.Clock {
	return program.Clock{
		Slot:          atomic.AddUint64(&e.slot, 1),
		UnixTimestamp: e.now().Unix(),
	}
}

// instructionError converts an error raised at instruction index into a
// transaction error. Errors outside the instruction error taxonomy are
// reported as GenericError.
func instructionError(index int, err error) error {
	var key solana.InstructionErrorKey
	var programErr solana.ProgramError
	if !errors.As(err, &key) && !errors.As(err, &programErr) {
		err = solana.InstructionErrorGenericError
	}

	return solana.NewInstructionTransactionError(solana.InstructionError{
		Index: index,
		Err:   err,
	})
}

func fromRecord(record *account.Record) (*program.Account, error) {
	owner, err := base58.Decode(record.Owner)
	if err != nil || len(owner) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid owner for account %s", record.Address)
	}

	// Programs write into Data in place, and the record is kept to diff against.
	cloned := record.Clone()

	return &program.Account{
		Owner:      owner,
		Lamports:   record.Lamports,
		Data:       cloned.Data,
		Executable: record.Executable,
	}, nil
}

func toRecord(address string, acct *program.Account) *account.Record {
	var data []byte
	if len(acct.Data) > 0 {
		data = make([]byte, len(acct.Data))
		copy(data, acct.Data)
	}

	return &account.Record{
		Address:    address,
		Owner:      base58.Encode(acct.Owner),
		Lamports:   acct.Lamports,
		Data:       data,
		Executable: acct.Executable,
	}
}

func isUnchanged(record *account.Record, acct *program.Account) bool {
	return record.Owner == base58.Encode(acct.Owner) &&
		record.Lamports == acct.Lamports &&
		record.Executable == acct.Executable &&
		bytes.Equal(record.Data, acct.Data)
}
