package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/common"
)

// RecordStoreABI describes the subset of the record-store contract the client uses.
const RecordStoreABI = `[
 {"type":"function","name":"getAllBusinessIds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string[]"}]},
 {"type":"function","name":"getBusinessData","stateMutability":"view","inputs":[{"name":"id","type":"string"}],"outputs":[
   {"name":"name","type":"string"},
   {"name":"publicValue1","type":"uint256"},
   {"name":"publicValue2","type":"uint256"},
   {"name":"description","type":"string"},
   {"name":"creator","type":"address"},
   {"name":"timestamp","type":"uint256"},
   {"name":"isVerified","type":"bool"},
   {"name":"decryptedValue","type":"uint32"}]},
 {"type":"function","name":"getEncryptedValue","stateMutability":"view","inputs":[{"name":"id","type":"string"}],"outputs":[{"name":"","type":"bytes32"}]},
 {"type":"function","name":"isAvailable","stateMutability":"pure","inputs":[],"outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"createBusinessData","stateMutability":"nonpayable","inputs":[
   {"name":"id","type":"string"},
   {"name":"name","type":"string"},
   {"name":"encryptedValue","type":"bytes32"},
   {"name":"inputProof","type":"bytes"},
   {"name":"publicValue1","type":"uint256"},
   {"name":"publicValue2","type":"uint256"},
   {"name":"description","type":"string"}],"outputs":[]},
 {"type":"function","name":"verifyDecryption","stateMutability":"nonpayable","inputs":[
   {"name":"id","type":"string"},
   {"name":"abiEncodedClearValues","type":"bytes"},
   {"name":"decryptionProof","type":"bytes"}],"outputs":[]}
]`

// Backend is the node surface EVM needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// EVM reads and writes records through a JSON-RPC node.
type EVM struct {
	backend  Backend
	contract *bind.BoundContract
	address  ethcommon.Address
	abi      abi.ABI

	from   ethcommon.Address
	signer bind.SignerFn

	// closeConn is set only on the EVM that owns the node connection.
	closeConn func()
}

type EVMOption func(*EVM)

// WithSigner enables the write path. Without a signer the EVM is read-only.
func WithSigner(from ethcommon.Address, fn bind.SignerFn) EVMOption {
	return func(e *EVM) {
		e.from = from
		e.signer = fn
	}
}

// KeySigner builds an EIP-155 signer for a hex-encoded secp256k1 key.
func KeySigner(keyHex string, chainID *big.Int) (ethcommon.Address, bind.SignerFn, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return ethcommon.Address{}, nil, fmt.Errorf("parse signer key: %w", err)
	}
	return keySigner(key, chainID)
}

func keySigner(key *ecdsa.PrivateKey, chainID *big.Int) (ethcommon.Address, bind.SignerFn, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return ethcommon.Address{}, nil, err
	}
	return opts.From, opts.Signer, nil
}

func NewEVM(backend Backend, contract string, opts ...EVMOption) (*EVM, error) {
	if !ethcommon.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid contract address %q", contract)
	}
	parsed, err := abi.JSON(strings.NewReader(RecordStoreABI))
	if err != nil {
		return nil, err
	}
	addr := ethcommon.HexToAddress(contract)
	e := &EVM{
		backend:  backend,
		address:  addr,
		abi:      parsed,
		contract: bind.NewBoundContract(addr, parsed, backend, backend, backend),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// DialEVM connects to rpcURL. If keyHex is set the returned EVM can write.
// The caller closes it.
func DialEVM(ctx context.Context, rpcURL, contract, keyHex string, chainID int64) (*EVM, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrLedgerUnavailable, err)
	}

	base, err := NewEVM(client, contract)
	if err != nil {
		client.Close()
		return nil, err
	}
	base.closeConn = client.Close
	if keyHex == "" {
		return base, nil
	}

	signed, err := base.Signing(ctx, keyHex, chainID)
	if err != nil {
		_ = base.Close()
		return nil, err
	}
	signed.closeConn, base.closeConn = base.closeConn, nil
	return signed, nil
}

type chainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Signing returns a writable EVM for keyHex that shares e's connection.
// A zero chainID is asked from the node. Closing the result leaves the
// connection open; it stays owned by e.
func (e *EVM) Signing(ctx context.Context, keyHex string, chainID int64) (*EVM, error) {
	id := big.NewInt(chainID)
	if chainID == 0 {
		r, ok := e.backend.(chainIDReader)
		if !ok {
			return nil, errors.New("chain id not configured and the backend cannot report it")
		}
		var err error
		if id, err = r.ChainID(ctx); err != nil {
			return nil, fmt.Errorf("%w: chain id: %w", common.ErrLedgerUnavailable, err)
		}
	}
	from, fn, err := KeySigner(keyHex, id)
	if err != nil {
		return nil, err
	}
	signed := *e
	signed.closeConn = nil
	WithSigner(from, fn)(&signed)
	return &signed, nil
}

// Close releases the node connection if e owns it. It is safe to call twice.
func (e *EVM) Close() error {
	if e.closeConn != nil {
		e.closeConn()
		e.closeConn = nil
	}
	return nil
}

// CanWrite reports whether a signer is attached.
func (e *EVM) CanWrite() bool { return e.signer != nil }

func (e *EVM) Address() string { return e.from.Hex() }

func (e *EVM) ContractAddress() string { return e.address.Hex() }

func (e *EVM) call(ctx context.Context, method string, args ...any) ([]any, error) {
	var out []any
	err := e.contract.Call(&bind.CallOpts{Context: ctx, From: e.from}, &out, method, args...)
	if err != nil {
		return nil, classifyRead(err)
	}
	return out, nil
}

func (e *EVM) ListIDs(ctx context.Context) ([]string, error) {
	out, err := e.call(ctx, "getAllBusinessIds")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]string)).(*[]string), nil
}

func (e *EVM) GetRecord(ctx context.Context, id string) (models.PublicView, error) {
	out, err := e.call(ctx, "getBusinessData", id)
	if err != nil {
		return models.PublicView{}, fmt.Errorf("record %s: %w", id, err)
	}
	ts := *abi.ConvertType(out[5], new(*big.Int)).(**big.Int)
	return models.PublicView{
		Name:           *abi.ConvertType(out[0], new(string)).(*string),
		PublicAux1:     bigToUint64(*abi.ConvertType(out[1], new(*big.Int)).(**big.Int)),
		PublicAux2:     bigToUint64(*abi.ConvertType(out[2], new(*big.Int)).(**big.Int)),
		Note:           *abi.ConvertType(out[3], new(string)).(*string),
		Creator:        abi.ConvertType(out[4], new(ethcommon.Address)).(*ethcommon.Address).Hex(),
		CreatedEpoch:   int64(bigToUint64(ts)),
		IsVerified:     *abi.ConvertType(out[6], new(bool)).(*bool),
		DecryptedValue: uint64(*abi.ConvertType(out[7], new(uint32)).(*uint32)),
	}, nil
}

func (e *EVM) GetEncryptedHandle(ctx context.Context, id string) (string, error) {
	out, err := e.call(ctx, "getEncryptedValue", id)
	if err != nil {
		return "", fmt.Errorf("record %s: %w", id, err)
	}
	h := *abi.ConvertType(out[0], new([32]byte)).(*[32]byte)
	return hexutil.Encode(h[:]), nil
}

func (e *EVM) Probe(ctx context.Context) (bool, error) {
	out, err := e.call(ctx, "isAvailable")
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (e *EVM) transact(ctx context.Context, method string, args ...any) (Tx, error) {
	if e.signer == nil {
		return nil, common.ErrNotConnected
	}
	tx, err := e.contract.Transact(&bind.TransactOpts{From: e.from, Signer: e.signer, Context: ctx}, method, args...)
	if err != nil {
		return nil, classifyWrite(err)
	}
	return &evmTx{tx: tx, evm: e}, nil
}

func (e *EVM) CreateRecord(ctx context.Context, p CreateParams) (Tx, error) {
	if len(p.Ciphertext) != 32 {
		return nil, fmt.Errorf("ciphertext handle must be 32 bytes, got %d", len(p.Ciphertext))
	}
	var handle [32]byte
	copy(handle[:], p.Ciphertext)
	return e.transact(ctx, "createBusinessData",
		p.ID, p.Name, handle, p.Proof,
		new(big.Int).SetUint64(p.Aux1), new(big.Int).SetUint64(p.Aux2), p.Note)
}

func (e *EVM) SubmitVerification(ctx context.Context, id string, clearValues, proof []byte) (Tx, error) {
	return e.transact(ctx, "verifyDecryption", id, clearValues, proof)
}

type evmTx struct {
	tx  *types.Transaction
	evm *EVM
}

func (t *evmTx) Hash() string { return t.tx.Hash().Hex() }

func (t *evmTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, t.evm.backend, t.tx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", common.ErrLedgerUnavailable, err)
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return nil
	}

	// Replay the call at the inclusion block to recover the revert reason.
	msg := ethereum.CallMsg{From: t.evm.from, To: t.tx.To(), Gas: t.tx.Gas(), Value: t.tx.Value(), Data: t.tx.Data()}
	if _, callErr := t.evm.backend.CallContract(ctx, msg, receipt.BlockNumber); callErr != nil {
		if reason, ok := revertReason(callErr); ok {
			return revertError(reason)
		}
	}
	return fmt.Errorf("%w: tx %s", common.ErrTransactionReverted, t.Hash())
}

func bigToUint64(b *big.Int) uint64 {
	if b == nil || !b.IsUint64() {
		return 0
	}
	return b.Uint64()
}
