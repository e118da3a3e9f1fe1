package main

import "github.com/jcalloway/tipwire/internal/process"

func main() {
	process.Run()
}
