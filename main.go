package main

import "nathanbeddoewebdev/vssplot/cmd"

func main() {
	cmd.Execute()
}
