package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kmeanstrain",
		Short: "Train a K-Means|| model over a CSV frame",
	}
	cmd.AddCommand(trainCommand())
	return cmd
}
