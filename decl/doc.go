// Package decl reads and writes flag declarations as YAML.
//
// A declaration file lists flags in declaration order under a top-level
// "flags" key. Plain scalars are primitives; mappings with an "alias" key are
// aliases over earlier entries:
//
//	flags:
//	  - None
//	  - Read
//	  - Write
//	  - name: ReadWrite
//	    alias: [Read, Write]
//
// The first primitive is the sentinel. Unknown keys are rejected so typos do
// not silently change bit positions.
package decl
