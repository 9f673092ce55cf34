package kv

import (
	"github.com/kelindar/binary"
)

func encodeNodes(nodes []KVNode) ([]byte, error) {
	return binary.Marshal(nodes)
}

func decodeNodes(bb []byte) ([]KVNode, error) {
	var nodes []KVNode
	err := binary.Unmarshal(bb, &nodes)
	return nodes, err
}
