package main

import (
	"log"

	"github.com/thiagokokada/gitbind/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitbind: %v", err)
	}
}
