package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-verify",
	Short: "Face verification service for exam check-in",
	Long: `Face Verify enrolls one reference photo per identity and verifies
camera frames against the enrolled faces. Every frame passes a quality gate,
is matched against all enrollments and is accepted only when the best match
is confident and clearly separated from the runner-up.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
