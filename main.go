package main

import "github.com/chatflow/chatflow/cmd"

func main() {
	cmd.Execute()
}
