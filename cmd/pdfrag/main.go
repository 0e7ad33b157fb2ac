package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pdfrag/internal/config"
	"github.com/kailas-cloud/pdfrag/internal/version"
)

var envName string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "pdfrag",
		Short:         "Chat with your PDF documents",
		Long:          "pdfrag indexes PDF files into a local vector index and answers questions with cited sources.",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&envName, "env", "e", config.GetEnv(),
		"config environment, reads config/<env>.yaml (local, dev, prod)")

	root.AddCommand(serveCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(removeCmd())
	root.AddCommand(askCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(pagesCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
