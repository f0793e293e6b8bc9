package model

import (
	"errors"
	"fmt"

	"rent_estimator/internal/domain"
)

const (
	AggregateSum  = "sum"  // gradient boosting: base + lr * sum(trees)
	AggregateMean = "mean" // random forest: base + mean(trees)
)

// TreeNode is one node of a regression tree stored as a flat array.
// Children are indices into the same array.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// TreeEnsemble evaluates a set of regression trees and combines their leaves.
type TreeEnsemble struct {
	trees     [][]TreeNode
	base      float64
	lr        float64
	aggregate string
}

func newTreeEnsemble(trees [][]TreeNode, base, lr float64, aggregate string) (*TreeEnsemble, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: tree ensemble has no trees", domain.ErrInvalidArtifact)
	}
	if aggregate == "" {
		aggregate = AggregateSum
	}
	if aggregate != AggregateSum && aggregate != AggregateMean {
		return nil, fmt.Errorf("%w: unknown aggregation %q", domain.ErrInvalidArtifact, aggregate)
	}
	for i, t := range trees {
		if err := validateTree(t); err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", domain.ErrInvalidArtifact, i, err)
		}
	}
	return &TreeEnsemble{trees: trees, base: base, lr: lr, aggregate: aggregate}, nil
}

func validateTree(nodes []TreeNode) error {
	if len(nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range nodes {
		if n.IsLeaf {
			continue
		}
		if n.FeatureIdx < 0 || n.FeatureIdx >= len(domain.FeatureNames) {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.FeatureIdx)
		}
		// children always come after their parent, so walks terminate
		if n.LeftChild <= i || n.LeftChild >= len(nodes) || n.RightChild <= i || n.RightChild >= len(nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

func (m *TreeEnsemble) Predict(features []float64) (float64, error) {
	if err := checkRow(features); err != nil {
		return 0, err
	}
	var sum float64
	for _, t := range m.trees {
		sum += leafValue(t, features)
	}
	if m.aggregate == AggregateMean {
		return finite(m.base + sum/float64(len(m.trees)))
	}
	return finite(m.base + m.lr*sum)
}

func leafValue(nodes []TreeNode, features []float64) float64 {
	idx := 0
	for {
		n := nodes[idx]
		if n.IsLeaf {
			return n.Value
		}
		if features[n.FeatureIdx] <= n.Threshold {
			idx = n.LeftChild
		} else {
			idx = n.RightChild
		}
	}
}
