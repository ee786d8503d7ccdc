package main

import "github.com/classtrack/classtrack/cmd"

func main() {
	cmd.Execute()
}
