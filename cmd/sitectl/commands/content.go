package commands

import (
	"fmt"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func contentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect site content files",
	}
	cmd.AddCommand(contentCheckCmd(), contentDumpCmd(), contentSearchCmd())
	return cmd
}

func contentCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a content file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := content.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d nav links, %d carousel services, %d core services, %d quote services\n",
				len(site.NavLinks), len(site.Carousel.Services), len(site.Core.Services), len(site.QuoteServices))
			return nil
		},
	}
}

// contentDumpCmd prints the built-in content as a starting point for
// SITE_CONTENT_PATH.
func contentDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the built-in content as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := content.Default()
			if err != nil {
				return err
			}
			raw, err := toml.Marshal(site)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}

func contentSearchCmd() *cobra.Command {
	var file string
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a site search against content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := loadSite(file)
			if err != nil {
				return err
			}
			results := site.Search(args[0], limit)
			if len(results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no results for %q\n", args[0])
				return nil
			}
			for _, result := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", result.Kind, result.Title, result.Href)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "content file (default built-in)")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results")
	return cmd
}

func loadSite(file string) (*content.Site, error) {
	if file == "" {
		return content.Default()
	}
	return content.Load(file)
}
