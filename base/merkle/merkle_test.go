package merkle

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"github.com/mintgate/goapi/domain"
)

type merkleSuite struct {
	suite.Suite

	claimers   []domain.Address
	allowances []int64
	leaves     []common.Hash
	tree       *Tree
}

func TestMerkleSuite(t *testing.T) {
	suite.Run(t, new(merkleSuite))
}

func (s *merkleSuite) SetupSuite() {
	s.claimers = []domain.Address{
		"0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d",
		"0x22c36bfdcef207f9c0cc941936eff94d4246d14a",
		"0xb47e3cd837ddf8e4c57f05d70ab865de6e193bbb",
		"0x16f5a35647d6f03d5d3da7b35409d65ba03af3b2",
		"0x0a180a76e4466bf68a7f86fb029bed3cccfaaac5",
	}
	s.allowances = []int64{3, 1, 5, 2, 10}
	for i := range s.claimers {
		s.leaves = append(s.leaves, AllocationLeaf(s.claimers[i], s.allowances[i]))
	}
	s.tree = NewTree(s.leaves)
}

func (s *merkleSuite) TestProofsVerify() {
	root := s.tree.Root()
	for i := range s.leaves {
		proof := s.tree.Proof(i)
		s.True(Verify(s.leaves[i], proof, root), "leaf %d", i)
	}
}

func (s *merkleSuite) TestWrongAllowanceFails() {
	root := s.tree.Root()
	leaf := AllocationLeaf(s.claimers[0], s.allowances[0]+1)
	s.False(Verify(leaf, s.tree.Proof(0), root))
}

func (s *merkleSuite) TestWrongClaimerFails() {
	root := s.tree.Root()
	leaf := AllocationLeaf("0x0000000000000000000000000000000000000001", s.allowances[0])
	s.False(Verify(leaf, s.tree.Proof(0), root))
}

func (s *merkleSuite) TestForeignProofFails() {
	root := s.tree.Root()
	s.False(Verify(s.leaves[1], s.tree.Proof(0), root))
}

func (s *merkleSuite) TestSingleLeafTree() {
	tree := NewTree(s.leaves[:1])
	s.Equal(s.leaves[0], tree.Root())
	s.True(Verify(s.leaves[0], tree.Proof(0), tree.Root()))
}

func (s *merkleSuite) TestHexProofRoundTrip() {
	root := s.tree.Root()
	proof := s.tree.Proof(2)
	hexProof := make([]string, len(proof))
	for i, p := range proof {
		hexProof[i] = p.Hex()
	}
	s.True(VerifyHexProof(s.leaves[2], hexProof, root))
}

func (s *merkleSuite) TestLeafIsOrderInsensitivePairHash() {
	a := s.leaves[0]
	b := s.leaves[1]
	s.Equal(hashPair(a, b), hashPair(b, a))
}
