package source

import "cmp"

// RemoteSource is a package index reachable over the network. Only its
// ranking is modelled here.
type RemoteSource struct {
	URI string
}

var _ Source = &RemoteSource{}

func (r *RemoteSource) Kind() Kind { return KindRemote }

func (r *RemoteSource) String() string { return "remote[" + r.URI + "]" }

func (r *RemoteSource) compareSameKind(other Source) int {
	o, ok := other.(*RemoteSource)
	if !ok {
		return 0
	}
	return cmp.Compare(r.URI, o.URI)
}
