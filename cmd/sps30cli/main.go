package main

//go-build: CGO_ENABLED=0

import (
	"github.com/robotalks/sps30.go/pkg/cli/sh"
	"github.com/robotalks/sps30.go/pkg/sps30"
)

func init() {
	sps30.SetupFlags()
}

func main() {
	sh.Main(sps30.Default().Open)
}
