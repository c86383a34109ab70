package main

import "github.com/jorgmikel2025/VideoSplitterApp/cmd"

func main() {
	cmd.Execute()
}
