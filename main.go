package main

import "github.com/theirongolddev/xpdash/cmd"

func main() {
	cmd.Execute()
}
