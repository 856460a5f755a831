package main

import "github.com/devicelab-dev/gaiatest/pkg/cli"

func main() {
	cli.Execute()
}
