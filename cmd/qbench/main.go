package main

import (
	"os"

	"github.com/jetpham/calhacks25/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
