package main

import "github.com/referralgraph/referralgraph/cmd"

func main() {
	cmd.Execute()
}
