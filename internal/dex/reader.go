package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/chain"
	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/model"
)

// PoolReader reads concentrated-liquidity pool state through the chain-query
// capability.
type PoolReader struct {
	caller chain.Caller
	logger *zap.Logger
}

// NewPoolReader builds a pool reader. A nil logger falls back to a no-op.
func NewPoolReader(caller chain.Caller, logger *zap.Logger) *PoolReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolReader{caller: caller, logger: logger}
}

// FindPool resolves the pool address for a pair and fee tier through the
// factory. The zero address means no such pool exists.
func (r *PoolReader) FindPool(ctx context.Context, factory, tokenA, tokenB common.Address, fee uint32) (common.Address, error) {
	factoryABI, err := V3FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}

	values, err := r.call(ctx, factory, factoryABI, "getPool", tokenA, tokenB, new(big.Int).SetUint64(uint64(fee)))
	if err != nil {
		return common.Address{}, err
	}
	pool, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("getPool: %w", err)
	}
	return pool, nil
}

// ReadPool loads the full pool snapshot: immutable metadata, slot0, and
// liquidity. Token decimals come from the registry.
func (r *PoolReader) ReadPool(ctx context.Context, pool common.Address, registry *TokenRegistry) (model.ConcentratedPool, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := r.call(ctx, pool, poolABI, "token0")
	if err != nil {
		return model.ConcentratedPool{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("token0: %w", err)
	}

	values, err = r.call(ctx, pool, poolABI, "token1")
	if err != nil {
		return model.ConcentratedPool{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("token1: %w", err)
	}

	values, err = r.call(ctx, pool, poolABI, "fee")
	if err != nil {
		return model.ConcentratedPool{}, err
	}
	feeInt, err := asBigInt(values[0])
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("fee: %w", err)
	}

	values, err = r.call(ctx, pool, poolABI, "tickSpacing")
	if err != nil {
		return model.ConcentratedPool{}, err
	}
	tickSpacingInt, err := asBigInt(values[0])
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("tick spacing: %w", err)
	}
	tickSpacing, err := int24FromBig(tickSpacingInt)
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("tick spacing: %w", err)
	}

	values, err = r.call(ctx, pool, poolABI, "liquidity")
	if err != nil {
		return model.ConcentratedPool{}, err
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("liquidity: %w", err)
	}

	values, err = r.call(ctx, pool, poolABI, "slot0")
	if err != nil {
		return model.ConcentratedPool{}, err
	}
	if len(values) < 2 {
		return model.ConcentratedPool{}, fmt.Errorf("slot0 return size %d", len(values))
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("slot0 tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("slot0 tick: %w", err)
	}

	decimals0, err := registry.DecimalsOf(ctx, token0)
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("token0 decimals: %w", err)
	}
	decimals1, err := registry.DecimalsOf(ctx, token1)
	if err != nil {
		return model.ConcentratedPool{}, fmt.Errorf("token1 decimals: %w", err)
	}

	return model.ConcentratedPool{
		Address:        pool.Hex(),
		Token0:         token0.Hex(),
		Token1:         token1.Hex(),
		Fee:            uint32(feeInt.Uint64()),
		TickSpacing:    tickSpacing,
		SqrtPriceX96:   sqrtPrice.String(),
		Tick:           tick,
		Token0Decimals: decimals0,
		Token1Decimals: decimals1,
		Liquidity:      liquidity.String(),
	}, nil
}

// PoolInitialized reads only slot0 and reports whether the pool has a
// positive sqrt price.
func (r *PoolReader) PoolInitialized(ctx context.Context, pool common.Address) (bool, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return false, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := r.call(ctx, pool, poolABI, "slot0")
	if err != nil {
		return false, err
	}
	if len(values) == 0 {
		return false, fmt.Errorf("slot0 empty return")
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return false, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	return sqrtPrice.Sign() > 0, nil
}

func (r *PoolReader) call(ctx context.Context, target common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	if r.caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &target, Data: data}
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
