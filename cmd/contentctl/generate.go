package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lmojica26/womenhealthytips.com/internal/app"
	"github.com/lmojica26/womenhealthytips.com/internal/generator"
)

// withApp wires the full service for commands that generate content.
func (e *env) withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := app.New(cmd.Context(), e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newDailyPostCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "daily-post",
		Short: "Create today's scheduled post unless one exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.App) error {
				out, err := a.Daily.Run(cmd.Context())
				if err != nil {
					return err
				}
				if out.Skipped {
					fmt.Fprintln(cmd.OutOrStdout(), "Already posted today")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s) for topic %q\n", out.Post.Title, out.Post.Slug, out.Topic.Topic)
				return nil
			})
		},
	}
}

func newGenerateCmd(e *env) *cobra.Command {
	var (
		topic    string
		category string
		provider string
		diet     string
		noImage  bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a single piece of content",
	}
	cmd.PersistentFlags().StringVar(&topic, "topic", "", "topic to write about")
	cmd.PersistentFlags().StringVar(&category, "category-id", "", "category to file the content under")
	cmd.PersistentFlags().StringVar(&provider, "provider", "openai", "openai (with fallback) or claude")
	cmd.PersistentFlags().BoolVar(&noImage, "no-image", false, "skip the featured image")
	_ = cmd.MarkPersistentFlagRequired("topic")

	post := &cobra.Command{
		Use:   "post",
		Short: "Generate a draft blog post",
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.App) error {
				res, err := a.Pipeline.GeneratePost(cmd.Context(), generator.PostRequest{
					Topic:      topic,
					CategoryID: category,
					Provider:   provider,
					UseImage:   !noImage,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, res.Post)
			})
		},
	}

	recipe := &cobra.Command{
		Use:   "recipe",
		Short: "Generate a draft recipe",
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.App) error {
				res, err := a.Pipeline.GenerateRecipe(cmd.Context(), generator.RecipeRequest{
					Topic:      topic,
					DietType:   generator.DietType(strings.ToUpper(diet)),
					CategoryID: category,
					Provider:   provider,
					UseImage:   !noImage,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, res.Recipe)
			})
		},
	}
	recipe.Flags().StringVar(&diet, "diet", string(generator.DietHealthy), "diet type such as KETO, VEGAN or GLUTEN_FREE")

	cmd.AddCommand(post, recipe)
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
