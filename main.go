package main

import (
	"github.com/charmbracelet/bounce/internal/cmd"
)

func main() {
	cmd.Execute()
}
