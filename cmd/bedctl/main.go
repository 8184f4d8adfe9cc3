package main

import (
	"github.com/sirupsen/logrus"
	"github.com/smartbedding/panel/cmd/cli"
)

func main() {
	if err := cli.GetCommandOptions().Execute(); err != nil {
		logrus.Fatalf("%v", err)
	}
}
