package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"photofeed/internal/engagement"
	"photofeed/internal/logger"
)

var likeCmd = &cobra.Command{
	Use:   "like POST_ID",
	Short: "Like a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLiked(cmd, args[0], true)
	},
}

var unlikeCmd = &cobra.Command{
	Use:   "unlike POST_ID",
	Short: "Remove your like from a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLiked(cmd, args[0], false)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status POST_ID",
	Short: "Show whether you like a post and its like count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, err := parsePostID(args[0])
		if err != nil {
			return err
		}
		st, err := newClient(cmd).Status(cmd.Context(), postID)
		if err != nil {
			return fmt.Errorf("failed to check post %d: %w", postID, err)
		}
		printState(cmd.OutOrStdout(), postID, st)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{likeCmd, unlikeCmd} {
		c.Flags().BoolP("verbose", "v", false, "Print every state change")
	}
}

// setLiked drives the post to the wanted state through the reconciler, so the
// local view is rolled back if the server refuses.
func setLiked(cmd *cobra.Command, arg string, want bool) error {
	postID, err := parsePostID(arg)
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	c := newClient(cmd)
	if !c.LoggedIn() {
		return engagement.ErrNotAuthenticated
	}
	out := cmd.OutOrStdout()

	cfg := engagement.DefaultConfig()
	cfg.LoggedIn = c.LoggedIn
	cfg.Logger = logger.Discard()
	r := engagement.NewReconciler(c, cfg)
	if verbose {
		r.Subscribe(func(ev engagement.LikeChanged) {
			fmt.Fprintf(out, "%-10s liked=%t count=%d\n", ev.Change, ev.State.Liked, ev.State.Count)
		})
	}

	if err := seed(cmd.Context(), r, c, postID); err != nil {
		return err
	}
	if st, _ := r.State(postID); st.Liked != want {
		if err := r.Toggle(cmd.Context(), postID); err != nil {
			return err
		}
	}

	st, _ := r.State(postID)
	printState(out, postID, st)
	return nil
}

func seed(ctx context.Context, r *engagement.Reconciler, api engagement.API, postID int64) error {
	st, err := api.Status(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to check post %d: %w", postID, err)
	}
	r.Seed(postID, st)
	return nil
}

func printState(out io.Writer, postID int64, st engagement.State) {
	verb := "not liked"
	if st.Liked {
		verb = "liked"
	}
	fmt.Fprintf(out, "post %d: %s, %d likes\n", postID, verb, st.Count)
}

func parsePostID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post id %q", s)
	}
	return id, nil
}
