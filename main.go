package main

import "github.com/authkit/authkit/cmd"

func main() {
	cmd.Execute()
}
