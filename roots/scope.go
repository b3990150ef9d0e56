package roots

import (
	"github.com/camlgate/camlgate"
)

// Scope acquires rooted handles and guarantees they release in exact
// reverse order on every exit path:
//
//	s := roots.NewScope()
//	defer s.Close()
//	hd := s.Live(headValue)
//	tl := s.Live(tailValue)
//
// Released handles are kept on a freelist and reused by later acquisitions,
// so a loop body that roots temporaries does not allocate per iteration.
type Scope struct {
	live []*Local
	free []*Local
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Enter acquires a registered handle whose slot still holds the immediate
// sentinel. Root the real Value on it once built.
func (s *Scope) Enter() *Local {
	var l *Local
	if n := len(s.free); n > 0 {
		l = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		l = NewLocal()
	}
	l.Register()
	s.live = append(s.live, l)
	return l
}

// Live acquires a registered handle rooting v.
func (s *Scope) Live(v camlgate.Value) *Local {
	l := s.Enter()
	l.Root(v)
	return l
}

// Len returns the number of handles currently live in the scope.
func (s *Scope) Len() int {
	return len(s.live)
}

// Close releases every live handle in reverse acquisition order. The scope
// may be reused afterwards. Close is idempotent.
func (s *Scope) Close() {
	for i := len(s.live) - 1; i >= 0; i-- {
		l := s.live[i]
		l.Release()
		l.reset()
		s.free = append(s.free, l)
	}
	s.live = s.live[:0]
}
