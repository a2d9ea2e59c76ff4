package dex

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/chain"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
)

// TokenRegistry resolves token symbols to addresses from configuration and
// token decimals from ERC-20 calls, with a mutex-guarded cache in front of
// the chain reads.
type TokenRegistry struct {
	caller  chain.Caller
	logger  *zap.Logger
	symbols map[string]common.Address

	mu   sync.RWMutex
	meta map[common.Address]model.TokenMeta
}

// NewTokenRegistry builds a registry from a symbol -> address map. Invalid
// entries are rejected.
func NewTokenRegistry(caller chain.Caller, symbols map[string]string, logger *zap.Logger) (*TokenRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolved := make(map[string]common.Address, len(symbols))
	for symbol, addr := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			return nil, fmt.Errorf("%w: empty token symbol", model.ErrInvalidInput)
		}
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("%w: token %s address %q", model.ErrInvalidInput, symbol, addr)
		}
		resolved[symbol] = common.HexToAddress(addr)
	}

	return &TokenRegistry{
		caller:  caller,
		logger:  logger,
		symbols: resolved,
		meta:    make(map[common.Address]model.TokenMeta),
	}, nil
}

// AddressOf resolves a configured symbol to its address.
func (r *TokenRegistry) AddressOf(symbol string) (common.Address, error) {
	addr, ok := r.symbols[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: unknown token symbol %q", model.ErrInvalidInput, symbol)
	}
	return addr, nil
}

// DecimalsOf returns the token's decimals, fetching and caching ERC-20
// metadata on first use.
func (r *TokenRegistry) DecimalsOf(ctx context.Context, token common.Address) (uint8, error) {
	meta, err := r.Meta(ctx, token)
	if err != nil {
		return 0, err
	}
	return meta.Decimals, nil
}

// Meta returns cached ERC-20 metadata for the token, loading it on a miss.
func (r *TokenRegistry) Meta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	r.mu.RLock()
	meta, ok := r.meta[token]
	r.mu.RUnlock()
	if ok {
		return meta, nil
	}

	meta, err := r.fetchMeta(ctx, token)
	if err != nil {
		return model.TokenMeta{}, err
	}

	r.mu.Lock()
	r.meta[token] = meta
	r.mu.Unlock()
	return meta, nil
}

// Seed preloads metadata, used by tests and by callers that already know the
// token set.
func (r *TokenRegistry) Seed(meta model.TokenMeta) {
	if !common.IsHexAddress(meta.Address) {
		return
	}
	r.mu.Lock()
	r.meta[common.HexToAddress(meta.Address)] = meta
	r.mu.Unlock()
}

func (r *TokenRegistry) fetchMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	if r.caller == nil {
		return model.TokenMeta{}, fmt.Errorf("chain caller is nil")
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := r.caller.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		return values, nil
	}

	meta := model.TokenMeta{Address: token.Hex()}

	values, err := call("decimals", stringABI)
	if err != nil {
		return model.TokenMeta{}, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return model.TokenMeta{}, err
	}
	meta.Decimals = decimals

	// Symbol and name are cosmetic; tokens that only expose the bytes32
	// variants still resolve, and tokens with neither stay anonymous.
	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		r.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := call("name", stringABI); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := call("name", bytes32ABI); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else {
		r.logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}
