package main

import "github.com/iskng/imessage-exporter/cmd"

func main() {
	cmd.Execute()
}
