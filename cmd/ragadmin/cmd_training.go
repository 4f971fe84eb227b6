package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-rag-admin/training"
	"github.com/jrsteele09/go-rag-admin/users"
	"github.com/spf13/cobra"
)

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func docsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage training documents",
	}

	var mine bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireRole(cmd.Context(), users.Role.CanTrain, "documents"); err != nil {
				return err
			}
			docs, err := c.app.training.ListDocuments(cmd.Context(), mine)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(docs))
			for _, d := range docs {
				rows = append(rows, []string{strconv.Itoa(d.ID), orDash(d.OriginalName), orDash(d.Status), strconv.Itoa(d.NumChunks), d.CreatedAt})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "STATUS", "CHUNKS", "CREATED"}, rows)
			return nil
		},
	}
	list.Flags().BoolVar(&mine, "mine", false, "Only documents you uploaded")

	upload := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireRole(cmd.Context(), users.Role.CanTrain, "documents"); err != nil {
				return err
			}
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				resp, err := c.app.training.UploadDocument(cmd.Context(), filepath.Base(path), f)
				f.Close()
				if err != nil {
					return fmt.Errorf("uploading %s: %w", path, err)
				}
				successColor.Fprintf(cmd.OutOrStdout(), "Uploaded %s as document %d\n", path, resp.ID)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.training.DeleteDocument(cmd.Context(), id); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "Deleted document %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, upload, del)
	return cmd
}

func websitesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "websites",
		Short: "Manage scraped websites",
	}

	var mine bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List websites",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireRole(cmd.Context(), users.Role.CanTrain, "websites"); err != nil {
				return err
			}
			sites, err := c.app.training.ListWebsites(cmd.Context(), mine)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(sites))
			for _, s := range sites {
				rows = append(rows, []string{strconv.Itoa(s.ID), s.URL, orDash(s.Status), strconv.Itoa(s.NumChunks), s.CreatedAt})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "URL", "STATUS", "CHUNKS", "CREATED"}, rows)
			return nil
		},
	}
	list.Flags().BoolVar(&mine, "mine", false, "Only websites you added")

	scrape := &cobra.Command{
		Use:   "scrape <url>...",
		Short: fmt.Sprintf("Scrape up to %d websites", training.MaxWebsiteURLs),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireRole(cmd.Context(), users.Role.CanTrain, "websites"); err != nil {
				return err
			}
			req, err := training.NewScrapeRequest(args)
			if err != nil {
				return err
			}
			sites, err := c.app.training.ScrapeWebsites(cmd.Context(), req)
			if err != nil {
				return err
			}
			for _, s := range sites {
				successColor.Fprintf(cmd.OutOrStdout(), "Website %d %s: %s\n", s.ID, s.URL, orDash(s.Status))
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a website",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.training.DeleteWebsite(cmd.Context(), id); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "Deleted website %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, scrape, del)
	return cmd
}

func askCmd(c *cli) *cobra.Command {
	var topK int
	var mine bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against the tenant's training data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := c.app.training.Query(cmd.Context(), training.QueryRequest{
				Question:   strings.Join(args, " "),
				TopK:       topK,
				UserFilter: mine,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, answer.Answer)
			if len(answer.Sources) > 0 {
				headerColor.Fprintln(out, "Sources:")
				for _, s := range answer.Sources {
					fmt.Fprintf(out, "  - %s\n", s.Label())
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", training.DefaultTopK, "Number of chunks to retrieve")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only search your own uploads")
	return cmd
}
