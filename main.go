package main

import "apkdrop/cmd"

func main() {
	cmd.Execute()
}
