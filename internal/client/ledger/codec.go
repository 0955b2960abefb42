package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var uint256Type, _ = abi.NewType("uint256", "", nil)

func uintArgs(n int) abi.Arguments {
	args := make(abi.Arguments, n)
	for i := range args {
		args[i] = abi.Argument{Type: uint256Type}
	}
	return args
}

// EncodeClearValues ABI-encodes decrypted values the way the contract's
// verifyDecryption expects them: abi.encode(uint256, ...).
func EncodeClearValues(values []uint64) ([]byte, error) {
	params := make([]any, len(values))
	for i, v := range values {
		params[i] = new(big.Int).SetUint64(v)
	}
	return uintArgs(len(values)).Pack(params...)
}

// DecodeClearValues reverses EncodeClearValues for n values.
func DecodeClearValues(data []byte, n int) ([]uint64, error) {
	out, err := uintArgs(n).Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("decode clear values: %w", err)
	}
	values := make([]uint64, len(out))
	for i, v := range out {
		b, ok := v.(*big.Int)
		if !ok || !b.IsUint64() {
			return nil, fmt.Errorf("decode clear values: value %d out of range", i)
		}
		values[i] = b.Uint64()
	}
	return values, nil
}
