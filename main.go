package main

import (
	"github.com/leighmacdonald/drgwatch/internal/cmd"
)

func main() {
	cmd.Execute()
}
