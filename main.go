package main

import "github.com/josephlewis42/evalsh/cmd"

func main() {
	cmd.Execute()
}
