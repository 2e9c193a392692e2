package abi

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var ERC721TokenABI abi.ABI

var erc721ABI = `[{"type":"function","name":"supportsInterface","constant":true,"stateMutability":"view","payable":false,"inputs":[{"type":"bytes4","name":"interfaceID"}],"outputs":[{"type":"bool"}]},{"type":"function","name":"balanceOf","constant":true,"stateMutability":"view","payable":false,"inputs":[{"type":"address","name":"_owner"}],"outputs":[{"type":"uint256"}]},{"type":"function","name":"ownerOf","constant":true,"stateMutability":"view","payable":false,"inputs":[{"type":"uint256","name":"_tokenId"}],"outputs":[{"type":"address"}]},{"type":"function","name":"totalSupply","constant":true,"stateMutability":"view","payable":false,"inputs":[],"outputs":[{"type":"uint256"}]}]`

func init() {
	_abi, err := abi.JSON(strings.NewReader(erc721ABI))
	if err != nil {
		panic("Failed to parse erc721 abi")
	}
	ERC721TokenABI = _abi
}
