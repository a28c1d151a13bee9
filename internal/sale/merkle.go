package sale

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// LeafHash 计算地址对应的默克尔叶子哈希
func LeafHash(addr common.Address) common.Hash {
	return common.BytesToHash(crypto.Keccak256(addr.Bytes()))
}

// VerifyProof 根据根哈希验证默克尔证明
// 使用排序对哈希（与OpenZeppelin MerkleProof兼容）
func VerifyProof(proof []common.Hash, root common.Hash, leaf common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// hashPair 按字节序排序后哈希一对节点
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return common.BytesToHash(crypto.Keccak256(a.Bytes(), b.Bytes()))
}

// BuildTree 从地址列表构建默克尔树，返回根哈希和每个地址的证明
// 用于链下生成白名单证明
func BuildTree(addrs []common.Address) (common.Hash, map[common.Address][]common.Hash) {
	if len(addrs) == 0 {
		return common.Hash{}, nil
	}

	leaves := make([]common.Hash, len(addrs))
	for i, addr := range addrs {
		leaves[i] = LeafHash(addr)
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i].Bytes(), leaves[j].Bytes()) < 0
	})

	// 逐层向上构建，记录每个叶子在各层的兄弟节点
	proofs := make(map[common.Hash][]common.Hash, len(leaves))
	index := make(map[common.Hash]int, len(leaves))
	for i, leaf := range leaves {
		index[leaf] = i
		proofs[leaf] = nil
	}

	level := leaves
	positions := make(map[common.Hash]int, len(leaves))
	for _, leaf := range leaves {
		positions[leaf] = index[leaf]
	}

	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				// 奇数节点直接晋级
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}

		for leaf, pos := range positions {
			sibling := pos ^ 1
			if sibling < len(level) {
				proofs[leaf] = append(proofs[leaf], level[sibling])
			}
			positions[leaf] = pos / 2
		}
		level = next
	}

	result := make(map[common.Address][]common.Hash, len(addrs))
	for _, addr := range addrs {
		result[addr] = proofs[LeafHash(addr)]
	}
	return level[0], result
}
