package main

import "github.com/MeKo-Tech/undertone/internal/cmd"

func main() {
	cmd.Execute()
}
