/*
Package rpcclient implements a JSON-RPC client for Ethereum-compatible
nodes. Besides the standard eth_, net_ and web3_ calls it supports the
development node extensions (evm_mine, evm_increaseTime, evm_snapshot,
hardhat_reset, ...) used in contract tests to advance blocks and time.

Client works over HTTP, WSClient uses a persistent websocket connection and
also supports newHeads subscriptions.
*/
package rpcclient
