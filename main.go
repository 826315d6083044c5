// The main package for the scopecrawl executable.
package main

import "github.com/scopecrawl/scopecrawl/cmd"

func main() {
	cmd.Execute()
}
