// Package chain performs read-only contract calls used as truth signals.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Reader reads a view method of a deployed contract
type Reader interface {
	ReadContract(ctx context.Context, address, abiJSON, method string, args ...any) ([]any, error)
}

// ErrInvalidAddress is returned for a malformed contract address
var ErrInvalidAddress = errors.New("invalid contract address")

// Contract method ABIs used by the signal aggregator
const (
	ProofScoreABI = `[
		{"type":"function","name":"getProofScore","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
		{"type":"function","name":"proofScore","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
	]`
	AssertionsABI = `[
		{"type":"function","name":"getAssertionIds","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"bytes32[]"}]},
		{"type":"function","name":"getAssertionIdByIndex","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}]}
	]`
)

// EthReader reads contracts over an Ethereum JSON-RPC endpoint
type EthReader struct {
	client *ethclient.Client
}

// Dial connects to the JSON-RPC endpoint at rpcURL
func Dial(ctx context.Context, rpcURL string) (*EthReader, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return &EthReader{client: client}, nil
}

// ReadContract packs args for method, performs an eth_call at the latest
// block and unpacks the outputs
func (r *EthReader) ReadContract(ctx context.Context, address, abiJSON, method string, args ...any) ([]any, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	to := common.HexToAddress(address)
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := parsed.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// Close releases the RPC connection
func (r *EthReader) Close() {
	r.client.Close()
}

var tokenIDPattern = regexp.MustCompile(`/([0-9]+)$`)

// TokenID extracts the trailing numeric token id from an asset identifier.
// It reports false for identifiers without one or with a zero id.
func TokenID(ual string) (*big.Int, bool) {
	m := tokenIDPattern.FindStringSubmatch(ual)
	if m == nil {
		return nil, false
	}
	id, ok := new(big.Int).SetString(m[1], 10)
	if !ok || id.Sign() == 0 {
		return nil, false
	}
	return id, true
}
