package main

import "github.com/notargets/gomfem/cmd"

func main() {
	cmd.Execute()
}
