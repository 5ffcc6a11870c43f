package main

import "github.com/oshokin/radio-alarm/cmd/radio-alarm/cmd"

func main() {
	cmd.Execute()
}
