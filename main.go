package main

import "github.com/hnakai/screenflow/cmd"

func main() {
	cmd.Execute()
}
