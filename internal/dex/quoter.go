package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Blockchain-Oracle/somnia-liquidity-manager-sub002/internal/chain"
)

// quoteExactInputSingleParams mirrors the QuoterV2 tuple layout for ABI
// packing.
type quoteExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

// Quoter simulates swaps through the QuoterV2 routing venue. The quoter
// method is state-mutating on-chain but is only ever exercised via eth_call,
// so it stays read-only here.
type Quoter struct {
	caller  chain.Caller
	address common.Address
}

// NewQuoter builds a quoter bound to the given contract address.
func NewQuoter(caller chain.Caller, address common.Address) *Quoter {
	return &Quoter{caller: caller, address: address}
}

// QuoteExactInputSingle simulates swapping amountIn of tokenIn into tokenOut
// at the given fee tier and returns the output amount. A revert (no pool,
// no liquidity) surfaces as an error.
func (q *Quoter) QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error) {
	if q.caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}

	quoterABI, err := QuoterV2ABI()
	if err != nil {
		return nil, fmt.Errorf("parse quoter abi: %w", err)
	}

	params := quoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		SqrtPriceLimitX96: big.NewInt(0),
	}

	data, err := quoterABI.Pack("quoteExactInputSingle", params)
	if err != nil {
		return nil, fmt.Errorf("pack quoteExactInputSingle: %w", err)
	}

	msg := ethereum.CallMsg{To: &q.address, Data: data}
	resp, err := q.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call quoteExactInputSingle: %w", err)
	}

	values, err := quoterABI.Unpack("quoteExactInputSingle", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack quoteExactInputSingle: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("quoteExactInputSingle empty return")
	}
	amountOut, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("amountOut: %w", err)
	}
	return amountOut, nil
}
