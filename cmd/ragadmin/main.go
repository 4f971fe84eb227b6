// Package main is the ragadmin command line client for the multi-tenant RAG backend.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ragadmin"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	c := &cli{}
	err := newRootCmd(c).Execute()
	c.close()
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
