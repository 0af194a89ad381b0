package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photofeed/internal/client"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "feedctl",
	Short: "Browse the photofeed and manage likes from the terminal",
	Long: `feedctl talks to the photofeed API gateway.

The session is read from --session or PHOTOFEED_SESSION. Without one,
the feed is anonymous and likes are refused.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("feedctl %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("url", os.Getenv("PHOTOFEED_URL"), "Gateway base URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().String("session", os.Getenv("PHOTOFEED_SESSION"), "Session id cookie value")

	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(likeCmd)
	rootCmd.AddCommand(unlikeCmd)
	rootCmd.AddCommand(statusCmd)
}

func newClient(cmd *cobra.Command) *client.Client {
	url, _ := cmd.Flags().GetString("url")
	session, _ := cmd.Flags().GetString("session")
	return client.New(url, session)
}
