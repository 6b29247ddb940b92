package main

import (
	_ "studyboard/docs"
	"studyboard/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()

		s, err := server.Init(cfg, log)
		if err != nil {
			log.WithError(err).Error("❌ Server initialization failed")
			return err
		}
		return s.Run()
	},
}
