package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/Astemirdum/library-system/library/cli"
)

func main() {
	_ = godotenv.Load()
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
