package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "classtrack",
	Short: "Face-recognition exam attendance service",
	Long: `Classtrack records exam attendance from captured faces: a face encoding
is matched against the registered roster, today's exam for the student's
course is resolved, presence is recorded idempotently and every unmatched
classmate is marked absent for the same exam.`,
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
