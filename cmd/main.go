package main

import (
	"fmt"

	"github.com/pngler/pngler/cmd/cmd"
	"github.com/pngler/pngler/internal/env"
)

func main() {
	PrintLogo()

	_ = cmd.Execute()
}

func PrintLogo() {
	fmt.Println("                    _           ")
	fmt.Println(" _ __  _ __   __ _ | | ___ _ __ ")
	fmt.Println("| '_ \\| '_ \\ / _` || |/ _ \\ '__|")
	fmt.Println("| |_) | | | | (_| || |  __/ |   ")
	fmt.Println("| .__/|_| |_|\\__, ||_|\\___|_|   ")
	fmt.Println("|_|          |___/              ")
	fmt.Println()
	fmt.Println("Strict PNG validation and decoding tool")
	fmt.Println()
	fmt.Printf("Version:   %s\n", env.Version)
	fmt.Printf("Commit:    %s\n", env.CommitHash)
	fmt.Printf("Build Time: %s\n", env.BuildTime)
	fmt.Println(" ")
}
