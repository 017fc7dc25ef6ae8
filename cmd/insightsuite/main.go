package main

import "insightsuite/cmd/cmd"

func main() {
	cmd.Execute()
}
