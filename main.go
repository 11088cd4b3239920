package main

import "github.com/apet97/worklens/cmd"

func main() {
	cmd.Execute()
}
