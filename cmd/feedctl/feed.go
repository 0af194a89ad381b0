package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"photofeed/internal/client"
	"photofeed/internal/feed"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "List feed posts, newest first",
	Long: `List one page of the feed, or every page with --all.

Examples:
  # First page
  feedctl feed --limit 10

  # Continue from a cursor printed by a previous call
  feedctl feed --cursor eyJ0Ijo...

  # Only people you follow, most liked first
  feedctl feed --followed --sort like_count`,
	RunE: runFeed,
}

func init() {
	feedCmd.Flags().Int("limit", feed.DefaultLimit, "Posts per page (1-100)")
	feedCmd.Flags().String("cursor", "", "Cursor returned by the previous page")
	feedCmd.Flags().Bool("followed", false, "Only posts from users you follow")
	feedCmd.Flags().String("sort", "", "created_at, like_count or comment_count")
	feedCmd.Flags().String("order", "", "asc or desc")
	feedCmd.Flags().Bool("all", false, "Follow cursors until the feed is exhausted")
}

func runFeed(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	cursor, _ := cmd.Flags().GetString("cursor")
	followed, _ := cmd.Flags().GetBool("followed")
	sort, _ := cmd.Flags().GetString("sort")
	order, _ := cmd.Flags().GetString("order")
	all, _ := cmd.Flags().GetBool("all")

	c := newClient(cmd)
	opts := client.FeedOptions{Limit: limit, Cursor: cursor, FollowedOnly: followed, Sort: sort, Order: order}

	for {
		page, err := c.Feed(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("failed to fetch feed: %w", err)
		}
		printPage(cmd.OutOrStdout(), page)

		if !page.HasMore || page.Cursor == nil {
			return nil
		}
		if !all {
			fmt.Fprintf(cmd.OutOrStdout(), "\nnext: feedctl feed --cursor %s\n", *page.Cursor)
			return nil
		}
		opts.Cursor = *page.Cursor
	}
}

func printPage(out io.Writer, page *feed.Page) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, item := range page.Data {
		liked := ""
		if item.ViewerLiked {
			liked = "♥"
		}
		fmt.Fprintf(w, "%d\t%s\t%d likes %s\t%d comments\t%s\n",
			item.PostID,
			item.CreatedAt.Local().Format(time.DateTime),
			item.LikeCount, liked,
			item.CommentCount,
			item.Caption,
		)
	}
	_ = w.Flush()
}
