package engine

import (
	"context"
	"unsafe"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/camlgate/camlgate"
	"github.com/camlgate/camlgate/errors"
	"github.com/camlgate/camlgate/roots"
)

// Engine owns a wazero runtime that compiles and hosts collector modules.
type Engine struct {
	runtime wazero.Runtime
}

// Config holds configuration for engine creation.
type Config struct {
	// MemoryLimitPages caps the collector's linear memory in 64KB pages.
	// 0 means the wazero default.
	MemoryLimitPages uint32
}

// New creates a wazero-backed engine.
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &Engine{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg)}, nil
}

// Load compiles a collector module.
func (e *Engine) Load(ctx context.Context, wasmBytes []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile collector module", err)
	}
	return &Module{engine: e, compiled: compiled}, nil
}

// Close releases the engine and every instance created from it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Module is a compiled collector module.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

var active *Runtime

// Instantiate creates the module instance, resolves the required exports,
// runs the collector's init, and registers its linear memory as the
// process's heap segment. At most one Runtime may be active per process;
// ctx bounds every collector call made through the instance.
func (m *Module) Instantiate(ctx context.Context) (*Runtime, error) {
	if active != nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindInstantiation).
			Detail("another runtime is active in this process").
			Build()
	}

	inst, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, wazero.NewModuleConfig().WithName("camlrt"))
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	mem := inst.Memory()
	if mem == nil {
		_ = inst.Close(ctx)
		return nil, errors.MissingExport(ExportMemory)
	}
	if mem.Size() == 0 {
		_ = inst.Close(ctx)
		return nil, errors.New(errors.PhaseLoad, errors.KindInstantiation).
			Detail("collector exports an empty memory").
			Build()
	}
	fns := make(map[string]guestFunc, len(requiredFuncs))
	for _, name := range requiredFuncs {
		fn := inst.ExportedFunction(name)
		if fn == nil {
			_ = inst.Close(ctx)
			return nil, errors.MissingExport(name)
		}
		fns[name] = fn
	}

	r := &Runtime{
		ctx:      ctx,
		mod:      inst,
		mem:      mem,
		allocFn:  fns[ExportAlloc],
		modifyFn: fns[ExportModify],
		rootsFn:  fns[ExportRoots],
	}

	r.stack[0] = 0
	if err := fns[ExportInit].CallWithStack(ctx, r.stack[:1]); err != nil {
		_ = inst.Close(ctx)
		return nil, errors.New(errors.PhaseLoad, errors.KindTrap).
			Construct(ExportInit).
			Detail("collector init trapped").
			Cause(err).
			Build()
	}
	if r.stack[0] == 0 {
		_ = inst.Close(ctx)
		return nil, errors.New(errors.PhaseLoad, errors.KindInstantiation).
			Detail("collector reported a null heap base").
			Build()
	}

	r.rebase()
	active = r
	Logger().Debug("collector module ready",
		zap.Uint64("heap_base", r.stack[0]),
		zap.Uint32("memory_bytes", mem.Size()))
	return r, nil
}

// Runtime adapts one collector instance to the runtime boundary. Allocation
// spills the registered root chain into the guest's root buffer, calls the
// guest, reads the possibly relocated values back into the host-side slots,
// and re-registers the segment window.
type Runtime struct {
	ctx      context.Context
	mod      guestModule
	mem      guestMemory
	allocFn  guestFunc
	modifyFn guestFunc
	rootsFn  guestFunc
	stack    [3]uint64
	rootBuf  uint32
	closed   bool
}

var _ camlgate.Runtime = (*Runtime)(nil)

// Close releases the instance and drops the segment window.
func (r *Runtime) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if active == r {
		active = nil
		camlgate.SetSegment(nil, 0)
	}
	if r.mod != nil {
		return r.mod.Close(r.ctx)
	}
	return nil
}

// AllocBlock requests a block from the collector. Every live root is
// spilled before the call and reloaded after it, so rooted values survive
// whatever relocation the collection performs.
func (r *Runtime) AllocBlock(size int, tag uint8) camlgate.Value {
	n := r.spillRoots()

	r.stack[0] = uint64(uint32(size))
	r.stack[1] = uint64(uint32(tag))
	if err := r.allocFn.CallWithStack(r.ctx, r.stack[:2]); err != nil {
		panic(errors.Trap(ExportAlloc, err))
	}
	v := camlgate.Value(uintptr(r.stack[0]))
	if v == 0 {
		panic(errors.Trap(ExportAlloc, nil))
	}

	r.unspillRoots(n)
	r.rebase()
	Logger().Debug("alloc",
		zap.Uintptr("block", uintptr(v)),
		zap.Int("size", size),
		zap.Uint8("tag", tag))
	return v
}

// SetField forwards the write barrier. Barrier writes do not allocate, so
// no spill is needed.
func (r *Runtime) SetField(block camlgate.Value, index int, v camlgate.Value) {
	r.stack[0] = uint64(block)
	r.stack[1] = uint64(uint32(index))
	r.stack[2] = uint64(v)
	if err := r.modifyFn.CallWithStack(r.ctx, r.stack[:3]); err != nil {
		panic(errors.Trap(ExportModify, err))
	}
}

// spillRoots writes every registered root slot into the guest's root
// buffer, head frame first, and returns the slot count. The guest treats
// the buffer as its root array for the next collection.
func (r *Runtime) spillRoots() int {
	count := 0
	for f := roots.Head(); f != nil; f = f.Next() {
		count += f.Len()
	}
	if count == 0 {
		return 0
	}

	r.stack[0] = uint64(uint32(count))
	if err := r.rootsFn.CallWithStack(r.ctx, r.stack[:1]); err != nil {
		panic(errors.Trap(ExportRoots, err))
	}
	r.rootBuf = uint32(r.stack[0])

	i := uint32(0)
	for f := roots.Head(); f != nil; f = f.Next() {
		for j := 0; j < f.Len(); j++ {
			if !r.mem.WriteUint64Le(r.rootBuf+i*8, uint64(f.Get(j))) {
				panic(errors.Trap(ExportRoots, nil))
			}
			i++
		}
	}
	return count
}

// unspillRoots reads the root buffer back and rewrites the host-side
// slots. The chain cannot have changed since the spill; the walk order is
// identical.
func (r *Runtime) unspillRoots(count int) {
	if count == 0 {
		return
	}
	i := uint32(0)
	for f := roots.Head(); f != nil; f = f.Next() {
		for j := 0; j < f.Len(); j++ {
			w, ok := r.mem.ReadUint64Le(r.rootBuf + i*8)
			if !ok {
				panic(errors.Trap(ExportRoots, nil))
			}
			f.Set(j, camlgate.Value(uintptr(w)))
			i++
		}
	}
}

// rebase re-registers the segment window over the instance's linear
// memory. Growth can move the whole memory, so this runs after every call
// that may allocate.
func (r *Runtime) rebase() {
	size := r.mem.Size()
	buf, ok := r.mem.Read(0, size)
	if !ok || len(buf) == 0 {
		panic(errors.Trap(ExportMemory, nil))
	}
	camlgate.SetSegment(unsafe.Pointer(&buf[0]), uintptr(size))
}
