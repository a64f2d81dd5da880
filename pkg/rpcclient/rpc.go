package rpcclient

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nspcc-dev/evm-devkit/pkg/ethrpc"
)

// Block tags accepted by the methods taking a block parameter.
const (
	BlockLatest    = "latest"
	BlockEarliest  = "earliest"
	BlockPending   = "pending"
	BlockSafe      = "safe"
	BlockFinalized = "finalized"
)

// BlockNumber returns the number of the most recent block.
func (c *Client) BlockNumber() (uint64, error) {
	var resp hexutil.Uint64
	if err := c.performRequest("eth_blockNumber", nil, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// ChainID returns the EIP-155 chain ID of the network.
func (c *Client) ChainID() (uint64, error) {
	var resp hexutil.Uint64
	if err := c.performRequest("eth_chainId", nil, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// NetVersion returns the network ID (decimal string) of the node.
func (c *Client) NetVersion() (string, error) {
	var resp string
	if err := c.performRequest("net_version", nil, &resp); err != nil {
		return "", err
	}
	return resp, nil
}

// ClientVersion returns the node software version.
func (c *Client) ClientVersion() (string, error) {
	var resp string
	if err := c.performRequest("web3_clientVersion", nil, &resp); err != nil {
		return "", err
	}
	return resp, nil
}

// Accounts returns the list of addresses owned by the node.
func (c *Client) Accounts() ([]common.Address, error) {
	var resp []common.Address
	if err := c.performRequest("eth_accounts", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetBalance returns the balance (in wei) of the account at the given block
// (number or one of Block* tags).
func (c *Client) GetBalance(addr common.Address, block string) (*big.Int, error) {
	var resp hexutil.Big
	if err := c.performRequest("eth_getBalance", []any{addr, block}, &resp); err != nil {
		return nil, err
	}
	return resp.ToInt(), nil
}

// GetBlockByNumber returns the block with the given number. Results are
// cached.
func (c *Client) GetBlockByNumber(n uint64) (*ethrpc.Block, error) {
	if b, ok := c.blocks.Get(n); ok {
		return b.(*ethrpc.Block), nil
	}
	var resp *ethrpc.Block
	if err := c.performRequest("eth_getBlockByNumber", []any{hexutil.Uint64(n), false}, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("block %d not found", n)
	}
	c.blocks.Add(n, resp)
	return resp, nil
}

// GetLatestBlock returns the most recent block, it's never cached.
func (c *Client) GetLatestBlock() (*ethrpc.Block, error) {
	var resp *ethrpc.Block
	if err := c.performRequest("eth_getBlockByNumber", []any{BlockLatest, false}, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errNoResult
	}
	return resp, nil
}
