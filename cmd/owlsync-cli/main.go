package main

import "owlsync/cmd/owlsync-cli/cmd"

func main() {
	cmd.Execute()
}
