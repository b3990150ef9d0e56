package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/camlgate/camlgate/camltest"
	"github.com/camlgate/camlgate/mem"
	"github.com/camlgate/camlgate/roots"
)

func main() {
	var (
		moves   = flag.Bool("moves", false, "Relocate every live block on each allocation")
		verbose = flag.Bool("v", false, "Enable debug logging (noisy inside the TUI)")
		dump    = flag.String("dump", "", "Write a CBOR heap snapshot to this file on exit")
		load    = flag.String("load", "", "Restore a CBOR heap snapshot from this file on start")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		camltest.SetLogger(logger)
		mem.SetLogger(logger)
	}

	if err := run(*moves, *dump, *load); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(moves bool, dumpFile, loadFile string) error {
	var opts []camltest.Option
	if moves {
		opts = append(opts, camltest.WithMoveEveryAlloc())
	}
	insp := newInspector(opts...)
	defer insp.close()

	if loadFile != "" {
		data, err := os.ReadFile(loadFile)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		snap, err := camltest.DecodeSnapshot(data)
		if err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		insp.rt.Restore(snap)
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		p := tea.NewProgram(newHeapModel(insp), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return err
		}
	} else {
		runDemo(insp)
	}

	if dumpFile != "" {
		data, err := insp.rt.Snapshot().Encode()
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		if err := os.WriteFile(dumpFile, data, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		fmt.Printf("Snapshot written to %s\n", dumpFile)
	}
	return nil
}

// inspector owns the runtime, the allocation context, and the values the
// user has built and kept rooted.
type inspector struct {
	rt    *camltest.Runtime
	gc    *mem.GC
	built []*builtValue
}

type builtValue struct {
	l    *roots.Local
	expr string
}

func newInspector(opts ...camltest.Option) *inspector {
	rt := camltest.New(opts...)
	return &inspector{rt: rt, gc: mem.NewGC(rt)}
}

// close releases kept values in reverse build order, then shuts the
// runtime down.
func (in *inspector) close() {
	for i := len(in.built) - 1; i >= 0; i-- {
		in.built[i].l.Release()
	}
	in.built = nil
	in.rt.Close()
}

// build parses and evaluates an expression, keeping the result rooted. The
// handle is acquired before evaluation so the evaluation scope can release
// in order.
func (in *inspector) build(input string) (string, error) {
	n, err := parseExpr(input)
	if err != nil {
		return "", err
	}
	l := roots.NewLocal()
	l.Register()
	s := roots.NewScope()
	v := eval(in.gc, s, n)
	s.Close()
	l.Root(v)
	in.built = append(in.built, &builtValue{l: l, expr: input})
	return renderValue(v, 8), nil
}

// drop releases the most recently kept value. Frames release head-first,
// so only the newest build can go.
func (in *inspector) drop() (string, bool) {
	nb := len(in.built)
	if nb == 0 {
		return "", false
	}
	b := in.built[nb-1]
	b.l.Release()
	in.built = in.built[:nb-1]
	return b.expr, true
}

func (in *inspector) collect() {
	in.rt.Collect()
}

func (in *inspector) heapPane() string {
	var b strings.Builder
	b.WriteString("Heap blocks:\n")
	blocks := in.rt.Blocks()
	if len(blocks) == 0 {
		b.WriteString("  (empty)\n")
		return b.String()
	}
	for _, blk := range blocks {
		fields := make([]string, len(blk.Fields))
		for i, f := range blk.Fields {
			fields[i] = shortValue(f)
		}
		fmt.Fprintf(&b, "  %#06x  tag=%-3d size=%-3d [%s]\n",
			uintptr(blk.Value), blk.Tag, blk.Size, strings.Join(fields, ", "))
	}
	return b.String()
}

func (in *inspector) rootsPane() string {
	var b strings.Builder
	b.WriteString("Root chain (head first):\n")
	if len(in.built) == 0 {
		b.WriteString("  (empty)\n")
		return b.String()
	}
	for i := len(in.built) - 1; i >= 0; i-- {
		bv := in.built[i]
		fmt.Fprintf(&b, "  %-8s %s\n", shortValue(bv.l.Value()), bv.expr)
	}
	return b.String()
}

func (in *inspector) statsLine() string {
	st := in.rt.Stats()
	return fmt.Sprintf("allocs=%d collections=%d live=%d copied=%d heap=%d words grows=%d",
		st.Allocations, st.Collections, st.LiveBlocks, st.CopiedWords, st.HeapWords, st.Grows)
}

// runDemo exercises the inspector without a terminal: build two values,
// collect, drop one, collect again.
func runDemo(in *inspector) {
	for _, src := range []string{"Cons(1, Cons(2, Nil))", "Some(7)"} {
		out, err := in.build(src)
		if err != nil {
			fmt.Printf("> %s\nerror: %v\n", src, err)
			continue
		}
		fmt.Printf("> %s\n  %s\n", src, out)
	}
	fmt.Println()
	fmt.Print(in.heapPane())
	fmt.Print(in.rootsPane())
	fmt.Println(in.statsLine())

	in.collect()
	fmt.Println("\nAfter collection:")
	fmt.Print(in.heapPane())
	fmt.Println(in.statsLine())

	if expr, ok := in.drop(); ok {
		fmt.Printf("\nDropped %s, collecting:\n", expr)
	}
	in.collect()
	fmt.Print(in.heapPane())
	fmt.Println(in.statsLine())
}
