package main

import (
	"github.com/vendora/storefront/cmd"
)

func main() {
	cmd.Start()
}
