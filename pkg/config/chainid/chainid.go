package chainid

import "strconv"

const (
	// MainNet is the Ethereum main network.
	MainNet ID = 1
	// Rinkeby is the (deprecated) Rinkeby test network.
	Rinkeby ID = 4
	// Goerli is the Goerli test network.
	Goerli ID = 5
	// BSC is the BNB Smart Chain main network.
	BSC ID = 56
	// BSCTestNet is the BNB Smart Chain test network.
	BSCTestNet ID = 97
	// Hardhat is the chain ID used by development nodes by default.
	Hardhat ID = 31337
	// Sepolia is the Sepolia test network.
	Sepolia ID = 11155111
)

// ID is an EIP-155 chain identifier.
type ID uint64

// String implements the stringer interface.
func (n ID) String() string {
	switch n {
	case MainNet:
		return "mainnet"
	case Rinkeby:
		return "rinkeby"
	case Goerli:
		return "goerli"
	case BSC:
		return "bsc"
	case BSCTestNet:
		return "bsc_testnet"
	case Hardhat:
		return "hardhat"
	case Sepolia:
		return "sepolia"
	default:
		return "chain " + strconv.FormatUint(uint64(n), 10)
	}
}

// IsDevelopment denotes whether the ID belongs to a development network.
func (n ID) IsDevelopment() bool {
	return n == Hardhat || n == 1337
}
