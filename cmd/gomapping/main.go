package main

import "github.com/dbsmedya/gomapping/cmd/gomapping/cmd"

func main() {
	cmd.Execute()
}
