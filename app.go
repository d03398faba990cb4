package main

import "github.com/masmgr/clearpoll/cmd"

func main() {
	cmd.Run()
}
