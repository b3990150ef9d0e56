// Package testbed carries a reference collector module for exercising the
// engine against a real WebAssembly guest.
//
// The module is written in the text format and compiled by the wat package
// on first use. It implements the collector boundary with a bump allocator,
// the simplest guest that honors every contract the host relies on: header
// words, field initialization, the write barrier, and the root buffer.
// Nothing is ever reclaimed, which the boundary permits; a collection that
// frees nothing is still a valid collection.
package testbed

import (
	"sync"

	"github.com/camlgate/camlgate/wat"
)

const collectorText = `(module
  (memory (export "memory") 1)

  ;; Allocation cursor. Everything below it is reserved: offset 0 is the
  ;; null word, 16..4096 is the root buffer.
  (global $next (mut i32) (i32.const 4096))

  (func (export "rt_init") (result i64)
    (i64.const 4096))

  (func (export "rt_alloc") (param $size i32) (param $tag i32) (result i64)
    (local $needed i32)
    (local $block i32)
    (local $p i32)
    (local.set $needed (i32.mul (i32.add (local.get $size) (i32.const 1)) (i32.const 8)))

    ;; Grow until header plus fields fit under the cursor.
    (block $fits
      (loop $check
        (br_if $fits (i32.le_u
          (i32.add (global.get $next) (local.get $needed))
          (i32.shl (memory.size) (i32.const 16))))
        (if (i32.eq (memory.grow (i32.const 1)) (i32.const -1))
          (then (unreachable)))
        (br $check)))

    ;; Header word: field count above the tag byte.
    (i64.store (global.get $next)
      (i64.or
        (i64.shl (i64.extend_i32_u (local.get $size)) (i64.const 10))
        (i64.extend_i32_u (local.get $tag))))
    (local.set $block (i32.add (global.get $next) (i32.const 8)))
    (global.set $next (i32.add (local.get $block) (i32.mul (local.get $size) (i32.const 8))))

    ;; Fields start as the immediate zero, (0<<1)|1.
    (local.set $p (local.get $block))
    (block $done
      (loop $fill
        (br_if $done (i32.ge_u (local.get $p) (global.get $next)))
        (i64.store (local.get $p) (i64.const 1))
        (local.set $p (i32.add (local.get $p) (i32.const 8)))
        (br $fill)))

    (i64.extend_i32_u (local.get $block)))

  (func (export "rt_modify") (param $block i64) (param $index i32) (param $value i64)
    (i64.store
      (i32.add
        (i32.wrap_i64 (local.get $block))
        (i32.mul (local.get $index) (i32.const 8)))
      (local.get $value)))

  (func (export "rt_roots") (param $count i32) (result i64)
    (if (i32.gt_u (local.get $count) (i32.const 510))
      (then (unreachable)))
    (i64.const 16)))`

var (
	collectorOnce sync.Once
	collectorBin  []byte
	collectorErr  error
)

// Collector compiles the reference collector module. The binary is cached
// after the first call.
func Collector() ([]byte, error) {
	collectorOnce.Do(func() {
		collectorBin, collectorErr = wat.Compile(collectorText)
	})
	return collectorBin, collectorErr
}
