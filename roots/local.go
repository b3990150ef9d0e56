package roots

import (
	"github.com/camlgate/camlgate"
)

const (
	stateNew = iota
	stateRegistered
	stateReleased
)

// Local is a rooted handle: it owns exactly one single-slot root frame and
// the Value that frame protects.
//
// The lifecycle is fixed: NewLocal creates the handle with a safe immediate
// placeholder in its slot, Register splices the frame onto the chain head
// (the handle's address is pinned from this point until release), Root
// stores the real Value, and Release pops the frame. Register must happen
// before the Value passed to Root could be invalidated by an allocation;
// Live performs the whole sequence when the Value is already in hand.
//
// Release must observe strict reverse registration order. Releasing via
// defer gives that ordering for free within a function; Scope gives it
// across arbitrary exit paths.
type Local struct {
	noCopy noCopy

	val   camlgate.Value
	frame Frame
	state uint8
}

// NewLocal creates an unregistered handle. The slot holds an immediate
// sentinel so a collection before Root cannot misread it as a block
// reference.
func NewLocal() *Local {
	l := &Local{val: camlgate.FromInt(0)}
	l.frame.nitems = 1
	l.frame.slots[0] = &l.val
	return l
}

// Live creates, registers, and roots a handle in one step. v must still be
// valid, meaning no allocation has happened since it was produced.
func Live(v camlgate.Value) *Local {
	l := NewLocal()
	l.Register()
	l.Root(v)
	return l
}

// Register splices the handle's frame onto the chain head. The handle is
// pinned from now until Release.
func (l *Local) Register() {
	if l.state != stateNew {
		panic("roots.Local.Register: handle already registered")
	}
	push(&l.frame)
	l.state = stateRegistered
}

// Root stores v in the registered slot, bringing it under collector
// protection.
func (l *Local) Root(v camlgate.Value) {
	if l.state != stateRegistered {
		panic("roots.Local.Root: handle not registered")
	}
	l.val = v
}

// Value returns the currently rooted Value. The collector may have
// relocated the underlying block since Root; the slot always holds the
// current location.
func (l *Local) Value() camlgate.Value {
	if l.state == stateReleased {
		panic("roots.Local.Value: handle released")
	}
	return l.val
}

// Release pops the handle's frame. The frame must be the current chain
// head: handles release in exact reverse order of registration.
func (l *Local) Release() {
	if l.state != stateRegistered {
		panic("roots.Local.Release: handle not registered")
	}
	pop(&l.frame)
	l.state = stateReleased
}

// reset returns a released handle to its initial state for reuse by Scope.
func (l *Local) reset() {
	l.val = camlgate.FromInt(0)
	l.state = stateNew
}

// noCopy flags Local as uncopyable to go vet; the chain holds the frame's
// address directly.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
