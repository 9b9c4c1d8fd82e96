package main

import "gobd/cmd"

func main() {
	cmd.Execute()
}
