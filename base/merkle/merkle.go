package merkle

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mintgate/goapi/domain"
)

// AllocationLeaf hashes an (address, allowance) whitelist entry the same
// way the presale tree builder does: keccak256 of the packed 20 byte
// address and the allowance as an unsigned 256 bit integer.
func AllocationLeaf(claimer domain.Address, allowance int64) common.Hash {
	packed := make([]byte, 0, 52)
	packed = append(packed, common.HexToAddress(string(claimer)).Bytes()...)
	packed = append(packed, common.BigToHash(big.NewInt(allowance)).Bytes()...)
	return common.BytesToHash(crypto.Keccak256(packed))
}

// hashPair hashes the sorted concatenation of two nodes, so a proof does
// not need to carry left/right position bits.
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return common.BytesToHash(crypto.Keccak256(a.Bytes(), b.Bytes()))
}

// Verify recomputes the root from leaf up the sibling path and compares
// it with the published root.
func Verify(leaf common.Hash, proof []common.Hash, root common.Hash) bool {
	node := leaf
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}

// VerifyHexProof is Verify over hex encoded sibling hashes, the form
// proofs are submitted in over the wire.
func VerifyHexProof(leaf common.Hash, proof []string, root common.Hash) bool {
	siblings := make([]common.Hash, len(proof))
	for i, p := range proof {
		siblings[i] = common.HexToHash(p)
	}
	return Verify(leaf, siblings, root)
}

// Tree is a keccak256 merkle tree over a fixed leaf set. It exists for
// generating presale roots and proofs in tooling and tests; verification
// on the serving path only needs Verify.
type Tree struct {
	layers [][]common.Hash
}

func NewTree(leaves []common.Hash) *Tree {
	if len(leaves) == 0 {
		return &Tree{}
	}
	layers := [][]common.Hash{leaves}
	for current := leaves; len(current) > 1; {
		next := make([]common.Hash, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			if i+1 < len(current) {
				next = append(next, hashPair(current[i], current[i+1]))
			} else {
				// odd node is carried up unchanged
				next = append(next, current[i])
			}
		}
		layers = append(layers, next)
		current = next
	}
	return &Tree{layers: layers}
}

func (t *Tree) Root() common.Hash {
	if len(t.layers) == 0 {
		return common.Hash{}
	}
	return t.layers[len(t.layers)-1][0]
}

// Proof returns the sibling path for the leaf at index i of the original
// leaf slice.
func (t *Tree) Proof(i int) []common.Hash {
	proof := []common.Hash{}
	if len(t.layers) == 0 || i >= len(t.layers[0]) {
		return proof
	}
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := i ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		i /= 2
	}
	return proof
}
