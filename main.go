package main

import "locafix/cmd"

func main() {
	cmd.Execute()
}
