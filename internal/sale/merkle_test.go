package sale

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyProofSingleLeaf(t *testing.T) {
	root, proofs := BuildTree([]common.Address{buyer1})
	// 单叶树的根就是叶子哈希，证明为空
	assert.Equal(t, LeafHash(buyer1), root)
	assert.True(t, VerifyProof(proofs[buyer1], root, LeafHash(buyer1)))
}

func TestVerifyProofAllMembers(t *testing.T) {
	addrs := make([]common.Address, 7)
	for i := range addrs {
		addrs[i] = common.BigToAddress(big.NewInt(int64(i + 100)))
	}
	root, proofs := BuildTree(addrs)
	require.NotEqual(t, common.Hash{}, root)

	for _, addr := range addrs {
		assert.True(t, VerifyProof(proofs[addr], root, LeafHash(addr)), "地址 %s 的证明应当有效", addr.Hex())
	}

	// 非成员地址用任何成员的证明都无效
	outsider := common.BigToAddress(big.NewInt(9999))
	for _, addr := range addrs {
		assert.False(t, VerifyProof(proofs[addr], root, LeafHash(outsider)))
	}
}

func TestVerifyProofTamperedProof(t *testing.T) {
	addrs := []common.Address{buyer1, buyer2, buyer3}
	root, proofs := BuildTree(addrs)

	proof := proofs[buyer1]
	require.NotEmpty(t, proof)
	tampered := make([]common.Hash, len(proof))
	copy(tampered, proof)
	tampered[0] = common.BigToHash(big.NewInt(42))
	assert.False(t, VerifyProof(tampered, root, LeafHash(buyer1)))

	// 空根一律不通过
	assert.False(t, VerifyProof(proof, common.Hash{}, LeafHash(buyer1)))
}

func TestBuildTreeEmpty(t *testing.T) {
	root, proofs := BuildTree(nil)
	assert.Equal(t, common.Hash{}, root)
	assert.Nil(t, proofs)
}
