package rpcclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nspcc-dev/evm-devkit/pkg/ethrpc"
	"go.uber.org/zap"
)

// Methods in this file are only supported by development nodes (Hardhat
// Network, Anvil, Ganache) and manipulate the chain directly.

// ErrSnapshotNotFound is returned by Revert when the node doesn't know the
// snapshot (it's invalid or was already used).
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Mine mines a single block (evm_mine).
func (c *Client) Mine() error {
	return c.performRequest("evm_mine", nil, nil)
}

// MineTo mines blocks one by one until the chain height reaches target.
// Nothing is mined if the chain is already at or above target. It returns
// the number of blocks mined.
func (c *Client) MineTo(target uint64) (uint64, error) {
	current, err := c.BlockNumber()
	if err != nil {
		return 0, err
	}
	var mined uint64
	for i := current; i < target; i++ {
		if err := c.Mine(); err != nil {
			return mined, err
		}
		mined++
	}
	c.log.Debug("advanced chain",
		zap.Uint64("from", current),
		zap.Uint64("to", target),
		zap.Uint64("mined", mined))
	return mined, nil
}

// MineBlocks mines n blocks one by one.
func (c *Client) MineBlocks(n uint64) error {
	for i := uint64(0); i < n; i++ {
		if err := c.Mine(); err != nil {
			return err
		}
	}
	return nil
}

// IncreaseTime moves the node clock forward by the given number of seconds
// (evm_increaseTime), the change applies to the next mined block. It
// returns the total time adjustment reported by the node.
func (c *Client) IncreaseTime(seconds uint64) (int64, error) {
	var resp json.RawMessage
	if err := c.performRequest("evm_increaseTime", []any{seconds}, &resp); err != nil {
		return 0, err
	}
	return parseNumber(resp)
}

// parseNumber parses a number that can be returned as a JSON number, a
// decimal string (Hardhat) or a hex quantity.
func parseNumber(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unexpected number format: %s", raw)
	}
	bi, ok := new(big.Int).SetString(s, 0)
	if !ok || !bi.IsInt64() {
		return 0, fmt.Errorf("unexpected number format: %s", raw)
	}
	return bi.Int64(), nil
}

// SetNextBlockTimestamp sets the timestamp of the next block
// (evm_setNextBlockTimestamp).
func (c *Client) SetNextBlockTimestamp(ts uint64) error {
	return c.performRequest("evm_setNextBlockTimestamp", []any{ts}, nil)
}

// Snapshot saves the current chain state and returns the identifier of the
// snapshot (evm_snapshot).
func (c *Client) Snapshot() (string, error) {
	var resp string
	if err := c.performRequest("evm_snapshot", nil, &resp); err != nil {
		return "", err
	}
	return resp, nil
}

// Revert restores the chain state saved by Snapshot (evm_revert). Snapshot
// can only be used once.
func (c *Client) Revert(id string) error {
	var ok bool
	if err := c.performRequest("evm_revert", []any{id}, &ok); err != nil {
		return err
	}
	c.blocks.Purge()
	if !ok {
		return ErrSnapshotNotFound
	}
	return nil
}

// Reset resets the development chain to its initial state (hardhat_reset),
// optionally forking from some other node.
func (c *Client) Reset(fork *ethrpc.ForkParams) error {
	var params []any
	if fork != nil {
		params = []any{map[string]any{"forking": fork}}
	}
	if err := c.performRequest("hardhat_reset", params, nil); err != nil {
		return err
	}
	c.blocks.Purge()
	return nil
}

// SetBalance sets the balance of the account (hardhat_setBalance).
func (c *Client) SetBalance(addr common.Address, wei *big.Int) error {
	return c.performRequest("hardhat_setBalance", []any{addr, (*hexutil.Big)(wei)}, nil)
}
