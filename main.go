package main

import "maxscale/cmd"

func main() {
	cmd.Execute()
}
