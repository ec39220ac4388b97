package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/harborwatch/harborwatch/config"
	srv "github.com/harborwatch/harborwatch/internal/server"
)

func main() {
	var root = &cobra.Command{Use: "harborwatch"}

	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			return srv.Run(cfg)
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	root.AddCommand(serve)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
