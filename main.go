package main

import (
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/cmd"
)

func main() {
	cmd.Execute()
}
