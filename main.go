package main

import "bitsight-connector/cmd"

func main() {
	cmd.Execute()
}
