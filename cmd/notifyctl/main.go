package main

import "github.com/brlk/golang_services/internal/cli"

func main() {
	cli.Execute()
}
