package main

import "github.com/julienpequegnot/seriesgen/cmd"

func main() {
	cmd.Execute()
}
