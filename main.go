package main

import "github.com/KaramelBytes/pubsift-cli/cmd"

func main() {
	cmd.Execute()
}
