package vectorindex

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"
)

// Router picks which backend node owns a given crawl task's collection when
// the vector store is sharded across multiple nodes (config.VectorStore.Nodes).
// Rendezvous hashing keeps most tasks mapped to the same node across
// membership changes, unlike a plain modulo hash.
type Router struct {
	rdv *rendezvous.Rendezvous
}

func NewRouter(nodes []string) *Router {
	return &Router{rdv: rendezvous.New(nodes, hashNode)}
}

func hashNode(s string) uint64 {
	return xxhash.Sum64String(s)
}

// NodeFor returns the node address responsible for a collection key
// (typically a crawl task ID).
func (r *Router) NodeFor(collection string) string {
	return r.rdv.Lookup(collection)
}
