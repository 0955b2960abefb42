// Package devnet is an in-process stand-in for the ledger and the FHE
// relayer. Ciphertexts are opaque handles into a shared table, proofs are
// keccak digests, and transactions confirm after a configurable delay. It
// backs the CLI's devnet mode and the controller tests.
package devnet

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/dmitrijs2005/subguard/internal/client/gateway"
	"github.com/dmitrijs2005/subguard/internal/client/ledger"
	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/common"
)

const (
	DefaultAccount  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	DefaultContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
)

// Approver is consulted before every write. A non-nil error aborts the
// transaction as if the signer had declined.
type Approver func(ctx context.Context, method string) error

type record struct {
	seq    int
	view   models.PublicView
	handle string
}

// Network holds the shared state of the fake ledger and relayer.
type Network struct {
	mu       sync.Mutex
	records  map[string]*record
	seq      int
	ciphers  map[string]uint64
	nonce    uint64
	txs      int
	offline  bool
	failing  map[string]error
	approver Approver

	account  string
	contract string
	delay    time.Duration
	now      func() time.Time
}

type Option func(*Network)

func WithAccount(addr string) Option { return func(n *Network) { n.account = addr } }

func WithConfirmationDelay(d time.Duration) Option { return func(n *Network) { n.delay = d } }

func WithClock(now func() time.Time) Option { return func(n *Network) { n.now = now } }

func WithApprover(a Approver) Option { return func(n *Network) { n.approver = a } }

func New(opts ...Option) *Network {
	n := &Network{
		records:  map[string]*record{},
		ciphers:  map[string]uint64{},
		failing:  map[string]error{},
		account:  DefaultAccount,
		contract: DefaultContract,
		now:      time.Now,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// SetOffline makes every ledger read fail with ErrLedgerUnavailable.
func (n *Network) SetOffline(offline bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offline = offline
}

// FailRecord makes GetRecord(id) return err until cleared with a nil err.
func (n *Network) FailRecord(id string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err == nil {
		delete(n.failing, id)
		return
	}
	n.failing[id] = err
}

// Seed stores a record directly, bypassing encryption and signing.
func (n *Network) Seed(id, name, note string, amount uint64, verified bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	handle := n.encryptLocked(n.contract, n.account, amount)
	r := &record{handle: handle, view: models.PublicView{
		Name:         name,
		Note:         note,
		Creator:      n.account,
		CreatedEpoch: n.now().Unix(),
	}}
	if verified {
		r.view.IsVerified = true
		r.view.DecryptedValue = amount
	}
	n.insertLocked(id, r)
}

// MarkVerified settles a record's amount as if another party had
// completed the disclosure.
func (n *Network) MarkVerified(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if r, ok := n.records[id]; ok {
		r.view.IsVerified = true
		r.view.DecryptedValue = n.ciphers[r.handle]
	}
}

// Transactions reports how many transactions were accepted.
func (n *Network) Transactions() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.txs
}

func (n *Network) insertLocked(id string, r *record) {
	n.seq++
	r.seq = n.seq
	n.records[id] = r
}

// Ledger returns the ledger view of the network.
func (n *Network) Ledger() *Ledger { return &Ledger{n: n} }

// Relayer returns the relayer view of the network.
func (n *Network) Relayer() *Relayer { return &Relayer{n: n} }

// Gateway returns an in-process Encryptor/Decryptor over the relayer.
func (n *Network) Gateway() gateway.Loopback { return gateway.Loopback{Relayer: n.Relayer()} }

func (n *Network) encryptLocked(contract, user string, value uint64) string {
	n.nonce++
	h := crypto.Keccak256([]byte(fmt.Sprintf("%s|%s|%d|%d", strings.ToLower(contract), strings.ToLower(user), value, n.nonce)))
	handle := hexutil.Encode(h)
	n.ciphers[handle] = value
	return handle
}

func inputProof(handle string) []byte {
	return crypto.Keccak256([]byte("input|" + handle))
}

func decryptionProof(handles []string, values []uint64) []byte {
	var b strings.Builder
	for i, h := range handles {
		fmt.Fprintf(&b, "%s=%d;", strings.ToLower(h), values[i])
	}
	return crypto.Keccak256([]byte("decrypt|" + b.String()))
}

// Relayer implements gateway.Relayer over the network's ciphertext table.
type Relayer struct {
	n *Network
}

func (r *Relayer) Encrypt(_ context.Context, contract, user string, value uint64) (gateway.Ciphertext, error) {
	if value > 0xFFFFFFFF {
		return gateway.Ciphertext{}, fmt.Errorf("value %d does not fit in 32 bits", value)
	}
	r.n.mu.Lock()
	defer r.n.mu.Unlock()
	handle := r.n.encryptLocked(contract, user, value)
	return gateway.Ciphertext{Handle: hexutil.MustDecode(handle), Proof: inputProof(handle)}, nil
}

func (r *Relayer) PublicDecrypt(_ context.Context, handles []string) (map[string]uint64, []byte, error) {
	r.n.mu.Lock()
	defer r.n.mu.Unlock()
	values := make(map[string]uint64, len(handles))
	ordered := make([]uint64, len(handles))
	for i, h := range handles {
		v, ok := r.n.ciphers[strings.ToLower(h)]
		if !ok {
			return nil, nil, fmt.Errorf("unknown handle %s", h)
		}
		values[h] = v
		ordered[i] = v
	}
	return values, decryptionProof(handles, ordered), nil
}

// Ledger implements ledger.Reader and ledger.Writer.
type Ledger struct {
	n *Network
}

func (l *Ledger) ListIDs(context.Context) ([]string, error) {
	l.n.mu.Lock()
	defer l.n.mu.Unlock()
	if l.n.offline {
		return nil, common.ErrLedgerUnavailable
	}
	ids := make([]string, 0, len(l.n.records))
	for id := range l.n.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return l.n.records[ids[i]].seq < l.n.records[ids[j]].seq })
	return ids, nil
}

func (l *Ledger) lookup(id string) (*record, error) {
	if l.n.offline {
		return nil, common.ErrLedgerUnavailable
	}
	if err := l.n.failing[id]; err != nil {
		return nil, err
	}
	r, ok := l.n.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrRecordNotFound, id)
	}
	return r, nil
}

func (l *Ledger) GetRecord(_ context.Context, id string) (models.PublicView, error) {
	l.n.mu.Lock()
	defer l.n.mu.Unlock()
	r, err := l.lookup(id)
	if err != nil {
		return models.PublicView{}, err
	}
	return r.view, nil
}

func (l *Ledger) GetEncryptedHandle(_ context.Context, id string) (string, error) {
	l.n.mu.Lock()
	defer l.n.mu.Unlock()
	r, err := l.lookup(id)
	if err != nil {
		return "", err
	}
	return r.handle, nil
}

func (l *Ledger) Probe(context.Context) (bool, error) {
	l.n.mu.Lock()
	defer l.n.mu.Unlock()
	if l.n.offline {
		return false, common.ErrLedgerUnavailable
	}
	return true, nil
}

func (l *Ledger) Address() string { return l.n.account }

func (l *Ledger) ContractAddress() string { return l.n.contract }

func (l *Ledger) approve(ctx context.Context, method string) error {
	if l.n.approver == nil {
		return nil
	}
	if err := l.n.approver(ctx, method); err != nil {
		return fmt.Errorf("%w: %w", common.ErrTransactionRejected, err)
	}
	return nil
}

func reverted(reason string) error {
	return fmt.Errorf("%w: %s", common.ErrTransactionReverted, reason)
}

func (l *Ledger) CreateRecord(ctx context.Context, p ledger.CreateParams) (ledger.Tx, error) {
	if err := l.approve(ctx, "createBusinessData"); err != nil {
		return nil, err
	}

	l.n.mu.Lock()
	defer l.n.mu.Unlock()
	if l.n.offline {
		return nil, common.ErrLedgerUnavailable
	}
	if _, exists := l.n.records[p.ID]; exists {
		return nil, reverted("Business data already exists")
	}
	handle := hexutil.Encode(p.Ciphertext)
	if _, ok := l.n.ciphers[handle]; !ok || !bytes.Equal(p.Proof, inputProof(handle)) {
		return nil, reverted("Invalid input proof")
	}

	l.n.insertLocked(p.ID, &record{handle: handle, view: models.PublicView{
		Name:         p.Name,
		Note:         p.Note,
		Creator:      l.n.account,
		CreatedEpoch: l.n.now().Unix(),
		PublicAux1:   p.Aux1,
		PublicAux2:   p.Aux2,
	}})
	return l.newTx("create", p.ID), nil
}

func (l *Ledger) SubmitVerification(ctx context.Context, id string, clearValues, proof []byte) (ledger.Tx, error) {
	if err := l.approve(ctx, "verifyDecryption"); err != nil {
		return nil, err
	}

	l.n.mu.Lock()
	defer l.n.mu.Unlock()
	r, err := l.lookup(id)
	if err != nil {
		return nil, err
	}
	if r.view.IsVerified {
		return nil, fmt.Errorf("%w: %w", common.ErrTransactionReverted, common.ErrAlreadyVerified)
	}
	values, err := ledger.DecodeClearValues(clearValues, 1)
	if err != nil {
		return nil, reverted("Malformed clear values")
	}
	if !bytes.Equal(proof, decryptionProof([]string{r.handle}, values)) {
		return nil, reverted("Invalid decryption proof")
	}

	r.view.IsVerified = true
	r.view.DecryptedValue = values[0]
	return l.newTx("verify", id), nil
}

func (l *Ledger) newTx(kind, id string) *tx {
	l.n.txs++
	hash := crypto.Keccak256Hash([]byte(fmt.Sprintf("%s|%s|%d", kind, id, l.n.txs))).Hex()
	return &tx{hash: hash, delay: l.n.delay}
}

type tx struct {
	hash  string
	delay time.Duration
}

func (t *tx) Hash() string { return t.hash }

func (t *tx) Wait(ctx context.Context) error {
	if t.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(t.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
