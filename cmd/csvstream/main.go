// csvstream converts, inspects and fingerprints delimited text files.
//
// Usage:
//
//	csvstream convert [flags] [input] [output]
//	csvstream stats [flags] [input]
//	csvstream headers [flags] [input]
//	csvstream digest [flags] [input...]
//	csvstream dialects
//	csvstream version
//
// An input or output of "-" (or none) means standard input or standard output.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
