// Command vrjit-smoke drives the backend façade against the textual
// stub assembler and prints what it emitted, the way `sola run -bytecode`
// lets you eyeball a lowering without a real target. It takes no
// source language input of its own; the program it compiles is a
// fixed local-variable add.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vireltech/vrjit/internal/jit"
	"github.com/vireltech/vrjit/internal/jit/stubasm"
)

const version = "0.1.0"

func main() {
	showTrace := flag.Bool("trace", false, "dump the per-instruction event trace as JSON")
	showOps := flag.Bool("ops", true, "print the emitted textual op sequence")
	versionFlag := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("vrjit-smoke %s\n", version)
		return
	}

	asm := stubasm.New()
	c := jit.NewContext(asm, nil)
	c.StartLogicalIp(0)

	c.StoreLocal(4, c.Constant(1), 0)
	c.StoreLocal(4, c.Constant(2), 1)
	sum := c.Add(4, c.LoadLocal(4, 0), c.LoadLocal(4, 1))
	c.Return(4, &sum)

	length := c.Compile()

	if *showOps {
		fmt.Println("=== ops ===")
		fmt.Println(asm.Text())
		fmt.Println()
	}
	fmt.Printf("compiled length: %d bytes\n", length)

	if *showTrace {
		data, err := jit.MarshalTrace(c)
		if err != nil {
			fmt.Fprintf(os.Stderr, "trace: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("=== trace ===")
		fmt.Println(string(data))
	}
}
