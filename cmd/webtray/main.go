package main

import "github.com/webtray/webtray/internal/cmd"

func main() {
	cmd.Execute()
}
