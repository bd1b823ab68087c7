package main

import "github.com/corechain/syscore/cli/syscore/cmd"

func main() {
	cmd.Execute()
}
