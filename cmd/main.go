package main

import (
	"fmt"

	"github.com/recoup-dev/recoup/cmd/cmd"
	"github.com/recoup-dev/recoup/internal/env"
)

func main() {
	printLogo()

	_ = cmd.Execute()
}

func printLogo() {
	fmt.Println("                                  ")
	fmt.Println(" _ __ ___  ___ ___  _   _ _ __    ")
	fmt.Println("| '__/ _ \\/ __/ _ \\| | | | '_ \\ ")
	fmt.Println("| | |  __/ (_| (_) | |_| | |_) |  ")
	fmt.Println("|_|  \\___|\\___\\___/ \\__,_| .__/")
	fmt.Println("                         |_|      ")
	fmt.Println()
	fmt.Println("Signature-based file recovery tool")
	fmt.Println()
	fmt.Printf("Version:    %s\n", env.Version)
	fmt.Printf("Commit:     %s\n", env.CommitHash)
	fmt.Printf("Build Time: %s\n", env.BuildTime)
	fmt.Println()
}
