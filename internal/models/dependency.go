package models

import (
	"fmt"
	"sort"
)

// DependencyNode is the part of an action that participates in ordering.
type DependencyNode struct {
	Order        int
	DependsOn    *int
	OutputUsedBy []int
	Refs         []int
}

// Node extracts the ordering information of a parsed action.
func (a ParsedAction) Node() DependencyNode {
	return DependencyNode{Order: a.Order, DependsOn: a.DependsOn, OutputUsedBy: a.OutputUsedBy, Refs: refTargets(a.Parameters)}
}

// Node extracts the ordering information of an enriched action.
func (a EnrichedAction) Node() DependencyNode {
	return DependencyNode{Order: a.Order, DependsOn: a.DependsOn, OutputUsedBy: a.OutputUsedBy, Refs: refTargets(a.Parameters)}
}

func refTargets(p Params) []int {
	var out []int
	for _, r := range p.Refs() {
		out = append(out, r.Action)
	}
	sort.Ints(out)
	return out
}

// ValidateDependencies checks that orders run 1..n without gaps or
// duplicates and that every dependency points strictly backwards, so the
// dependency graph is acyclic.
func ValidateDependencies(nodes []DependencyNode) error {
	n := len(nodes)
	seen := make(map[int]bool, n)
	for _, node := range nodes {
		if node.Order < 1 || node.Order > n {
			return fmt.Errorf("action order %d out of range 1..%d", node.Order, n)
		}
		if seen[node.Order] {
			return fmt.Errorf("duplicate action order %d", node.Order)
		}
		seen[node.Order] = true
	}
	for _, node := range nodes {
		if d := node.DependsOn; d != nil && (*d < 1 || *d >= node.Order) {
			return fmt.Errorf("action %d cannot depend on action %d", node.Order, *d)
		}
		for _, u := range node.OutputUsedBy {
			if u <= node.Order || u > n {
				return fmt.Errorf("action %d output cannot be used by action %d", node.Order, u)
			}
		}
		for _, r := range node.Refs {
			if r < 1 || r >= node.Order {
				return fmt.Errorf("action %d cannot reference action %d", node.Order, r)
			}
		}
	}
	return nil
}

// Dependencies returns the distinct orders this node must wait for.
func (n DependencyNode) Dependencies() []int {
	seen := make(map[int]bool)
	var out []int
	add := func(o int) {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	if n.DependsOn != nil {
		add(*n.DependsOn)
	}
	for _, r := range n.Refs {
		add(r)
	}
	return out
}
