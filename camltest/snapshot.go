package camltest

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/camlgate/camlgate/errors"
	"github.com/camlgate/camlgate/roots"
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic("camltest: cbor canonical encoding options: " + err.Error())
	}
}

// Snapshot is a copy of the allocated prefix of the heap segment plus the
// values currently held by the root chain. It is a debugging artifact for
// the inspector and golden tests; roots are recorded for display and are
// not reconstructed by Restore.
type Snapshot struct {
	Words []uint64 `cbor:"words"`
	Next  uint64   `cbor:"next"`
	Roots []uint64 `cbor:"roots"`
}

// Snapshot captures the current heap.
func (r *Runtime) Snapshot() *Snapshot {
	s := &Snapshot{
		Words: make([]uint64, r.next),
		Next:  uint64(r.next),
	}
	for i := 0; i < r.next; i++ {
		s.Words[i] = uint64(r.seg[i])
	}
	for f := roots.Head(); f != nil; f = f.Next() {
		for i := 0; i < f.Len(); i++ {
			s.Roots = append(s.Roots, uint64(f.Get(i)))
		}
	}
	return s
}

// Encode marshals the snapshot in canonical CBOR.
func (s *Snapshot) Encode() ([]byte, error) {
	return encMode.Marshal(s)
}

// DecodeSnapshot unmarshals a snapshot produced by Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, errors.InvalidSnapshot("decode heap snapshot", err)
	}
	if s.Next > uint64(len(s.Words)) {
		return nil, errors.InvalidSnapshot("snapshot allocation mark beyond recorded words", nil)
	}
	return &s, nil
}

// Restore replaces the heap contents with the snapshot's. The root chain
// must be empty; handles cannot be reconstructed from a snapshot.
func (r *Runtime) Restore(s *Snapshot) {
	if roots.Head() != nil {
		panic("camltest: restore with registered roots")
	}
	words := len(r.seg)
	for words < int(s.Next) {
		words *= 2
	}
	seg := make([]uintptr, words)
	for i := uint64(0); i < s.Next; i++ {
		seg[i] = uintptr(s.Words[i])
	}
	r.seg = seg
	r.next = int(s.Next)
	r.register()
}
