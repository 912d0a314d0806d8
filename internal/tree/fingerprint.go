package tree

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a digest of the tree data and of every node's data
// in pre-order. Two trees with the same structure and data have the same
// fingerprint regardless of the updates that built them.
func (t *Tree) Fingerprint() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(t.data.String())
	if t.root != nil {
		fingerprintNode(d, t.root, 0)
	}
	return d.Sum64()
}

func fingerprintNode(d *xxhash.Digest, n *Node, depth int) {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(depth))
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(n.children)))
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(n.data.String())
	_, _ = d.WriteString(n.data.RelativeBounds.Bounds.String())
	_, _ = d.Write([]byte{0})
	for _, c := range n.children {
		fingerprintNode(d, c, depth+1)
	}
}
