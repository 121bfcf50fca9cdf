package main

import (
	"github.com/aungthurhahein/GaruduaEye/internal/cli"
)

func main() {
	cli.Execute()
}
