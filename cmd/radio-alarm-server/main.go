package main

import "github.com/oshokin/radio-alarm/cmd/radio-alarm-server/cmd"

func main() {
	cmd.Execute()
}
