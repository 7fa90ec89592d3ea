package fmtt

import (
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// PrintErrChain walks an error chain and prints each layer with its type.
func PrintErrChain(err error) {
	if err == nil {
		fmt.Println("<nil>")
		return
	}

	i := 0
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Printf("[%d] %T: %v\n", i, e, e)
		i++
	}
}

// PrintErrChainDebug is PrintErrChain plus a spew dump of each layer's
// internals. Dev-mode diagnostics only.
func PrintErrChainDebug(err error) {
	for i := 0; err != nil; err = errors.Unwrap(err) {
		fmt.Printf("[%d] %T: %v\n", i, err, err)
		spew.Dump(err)
		i++
	}
}
