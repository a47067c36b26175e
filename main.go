package main

import "github.com/calmora/calmora_backend/cmd"

func main() {
	cmd.Execute()
}
