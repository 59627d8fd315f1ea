package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	promptpanehttp "github.com/fyrsmithlabs/promptpane/internal/http"
)

var (
	listPageSize  int
	listPageToken string
	listStatus    string
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Inspect blog posts on a running server",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blog posts",
	Long: `List blog posts from a running promptpane server.

Examples:
  promptpane posts list
  promptpane posts list --status published --page-size 20
  promptpane posts list --page-token 100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := promptpanehttp.NewClient(serverURL)
		resp, err := client.ListPosts(cmd.Context(), listPageSize, listPageToken, listStatus)
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}
		if len(resp.BlogPosts) == 0 {
			fmt.Println("No posts found.")
			return nil
		}
		for _, p := range resp.BlogPosts {
			fmt.Printf("%s  [%s]  %s\n", p.ID, p.Status, p.Title)
			if p.Summary != "" {
				fmt.Printf("    %s\n", p.Summary)
			}
		}
		if resp.NextPageToken != "" {
			fmt.Printf("\nNext page: --page-token %s\n", resp.NextPageToken)
		}
		return nil
	},
}

var postsGetCmd = &cobra.Command{
	Use:   "get <post-id>",
	Short: "Show one blog post with its prompt suggestions",
	Long: `Fetch a single blog post, its conversation messages, and the
improvement suggestions matched to its user prompts.

Examples:
  promptpane posts get 4f1c2a6e-9b7d-4e31-a1d0-52b8c9e7f210`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := promptpanehttp.NewClient(serverURL)
		detail, err := client.GetPost(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get post: %w", err)
		}

		fmt.Printf("Title: %s\n", detail.BlogPost.Title)
		fmt.Printf("Status: %s\n", detail.BlogPost.Status)
		if len(detail.BlogPost.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(detail.BlogPost.Tags, ", "))
		}
		fmt.Printf("Messages: %d\n", len(detail.ConversationMessages))
		fmt.Printf("Suggestions: %d\n", len(detail.PromptSuggestions))

		for i, s := range detail.PromptSuggestions {
			fmt.Printf("\n--- Suggestion %d ---\n", i+1)
			fmt.Printf("Prompt: %s\n", s.OriginalPrompt)
			if s.Analysis != "" {
				fmt.Printf("Analysis: %s\n", s.Analysis)
			}
			for _, c := range s.BetterCandidates {
				fmt.Printf("Candidate: %s\n", c.Prompt)
			}
		}
		return nil
	},
}

func init() {
	postsListCmd.Flags().IntVar(&listPageSize, "page-size", 0, "posts per page (server default 100)")
	postsListCmd.Flags().StringVar(&listPageToken, "page-token", "", "pagination token from a previous page")
	postsListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (draft, published, archived)")
	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsGetCmd)
}
