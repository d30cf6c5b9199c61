package main

import (
	"log"

	"github.com/hrtools/hr-matcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
