// Package codegen lowers an analyzed source.Program into a textual x86-64
// assembly listing (NASM ELF64 dialect), following the systems-style
// translation described for the interpreter but targeting a real machine
// stack and registers instead of Go slices.
//
// The pipeline has four stages, each its own file group:
//
//   - ir.go / labels.go: the instruction and operand vocabulary the lowering
//     emits into, and the label-naming conventions that make generated
//     symbols stable across runs.
//   - lower.go: per-command translation, mirroring interp's switch over
//     source.Kind but emitting Instructions instead of executing directly.
//   - boilerplate.go: the fixed scaffolding every emitted program needs
//     (bss/rodata/data reservations, the runtime print/flush helpers, the
//     mmap setup prologue and _start entry point).
//   - serialize.go: the single textual pass that turns an Assembly into
//     bytes an assembler can consume.
//
// Generate produces the same observable output bytes as the interpreter for
// any Program that completes successfully (see the spec's testable
// properties); it does not itself invoke an assembler or linker.
package codegen
