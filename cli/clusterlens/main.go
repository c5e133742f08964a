package main

import (
	"os"

	clusterlenscmder "github.com/clusterlens/clusterlens/cmd/clusterlens"
)

func main() {
	cmd := clusterlenscmder.NewClusterlensCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
