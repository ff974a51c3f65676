package engine

import (
	"context"
	"fmt"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/codec"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/storage"
)

// IndexInconsistency describes one secondary-index entry that does not
// match its primary record, found by VerifyIndexes.
type IndexInconsistency struct {
	Tree    storage.Tree
	Key     []byte
	Problem string
}

// VerifyIndexes is a crash-recovery spot-check: it walks every secondary
// index and confirms the primary record it points at still exists,
// using the store's synchronous escape hatch so the whole check runs as
// one pass without going through the worker pool. It does not repair
// anything; a non-empty result means the store was left in a state the
// engine's own invariants should never produce, e.g. a process killed
// mid-Batch on a filesystem that does not fsync directory entries
// atomically with file contents.
func (e *Engine) VerifyIndexes(ctx context.Context) ([]IndexInconsistency, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	kv := e.store.Underlying()
	var problems []IndexInconsistency

	checkNode := func(tree storage.Tree, key []byte) error {
		id, err := ids.NodeIDFromBytes(key[len(key)-16:])
		if err != nil {
			return fmt.Errorf("tree %s: malformed node id in key: %w", tree, err)
		}
		if _, found, err := kv.Get(storage.TreeNodes, storage.NodeKey(id)); err != nil {
			return err
		} else if !found {
			problems = append(problems, IndexInconsistency{Tree: tree, Key: key, Problem: fmt.Sprintf("node %s has no primary record", id)})
		}
		return nil
	}

	checkEdge := func(tree storage.Tree, key []byte) error {
		id, err := ids.EdgeIDFromBytes(key[len(key)-16:])
		if err != nil {
			return fmt.Errorf("tree %s: malformed edge id in key: %w", tree, err)
		}
		data, found, err := kv.Get(storage.TreeEdges, storage.EdgeKey(id))
		if err != nil {
			return err
		}
		if !found {
			problems = append(problems, IndexInconsistency{Tree: tree, Key: key, Problem: fmt.Sprintf("edge %s has no primary record", id)})
			return nil
		}
		if _, _, err := codec.DecodeEdge(data); err != nil {
			problems = append(problems, IndexInconsistency{Tree: tree, Key: key, Problem: fmt.Sprintf("edge %s record is corrupt: %v", id, err)})
		}
		return nil
	}

	nodeTrees := []storage.Tree{storage.TreeIdxSessionNodes, storage.TreeIdxTypeNodes}
	for _, tree := range nodeTrees {
		pairs, err := kv.Scan(tree, nil, storage.Forward, 0)
		if err != nil {
			return nil, err
		}
		for _, pair := range pairs {
			if err := checkNode(tree, pair.Key); err != nil {
				return nil, err
			}
		}
	}

	edgeTrees := []storage.Tree{storage.TreeIdxSessionEdges, storage.TreeIdxNodeOutEdges, storage.TreeIdxNodeInEdges}
	for _, tree := range edgeTrees {
		pairs, err := kv.Scan(tree, nil, storage.Forward, 0)
		if err != nil {
			return nil, err
		}
		for _, pair := range pairs {
			if err := checkEdge(tree, pair.Key); err != nil {
				return nil, err
			}
		}
	}

	promptResponses, err := kv.Scan(storage.TreeIdxPromptResponses, nil, storage.Forward, 0)
	if err != nil {
		return nil, err
	}
	for _, pair := range promptResponses {
		if err := checkNode(storage.TreeIdxPromptResponses, pair.Key); err != nil {
			return nil, err
		}
	}

	return problems, nil
}
