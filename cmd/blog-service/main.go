package main

import (
	"log"

	"github.com/gfdmit/blog-service/cmd/blog-service/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Fatalf("[APPLICATION ERROR] error: %v", err)
	}
}
