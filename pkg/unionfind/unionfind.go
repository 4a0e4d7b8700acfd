// Package unionfind implements a disjoint-set structure over ir.SSAValue,
// used by ssarepair to collapse redundant loop-header phis discovered once
// every source has been resolved. Grounded on repair_ssa.rs's use of
// union_find::UnionFind; no pack example carries a union-find type so this
// is a direct, minimal path-compressed implementation (no third-party
// library in the corpus covers disjoint sets).
package unionfind

import "github.com/nouveau-go/nakcore/pkg/ir"

// UnionFind maps ir.SSAValue to its set representative. A value absent from
// parent is its own representative.
type UnionFind struct {
	parent map[ir.SSAValue]ir.SSAValue
}

// New returns an empty UnionFind.
func New() *UnionFind {
	return &UnionFind{parent: make(map[ir.SSAValue]ir.SSAValue)}
}

// IsEmpty reports whether no unions have been recorded yet.
func (u *UnionFind) IsEmpty() bool { return len(u.parent) == 0 }

// Find returns v's set representative, path-compressing along the way.
func (u *UnionFind) Find(v ir.SSAValue) ir.SSAValue {
	p, ok := u.parent[v]
	if !ok {
		return v
	}
	root := u.Find(p)
	u.parent[v] = root
	return root
}

// Union merges b's set into a's, so that Find(b) (and everything already
// unioned into b) now resolves to Find(a). Matches repair_ssa.rs's
// union(ssa, phi.dst) convention: the first argument's representative wins.
func (u *UnionFind) Union(a, b ir.SSAValue) {
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return
	}
	u.parent[rb] = ra
}
