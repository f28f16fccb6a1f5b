package main

import "github.com/icco/xenqnt/cmd"

func main() {
	cmd.Execute()
}
