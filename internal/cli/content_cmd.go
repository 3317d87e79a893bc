package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cebeepredict/admin/internal/validation"
	"github.com/cebeepredict/admin/model"
)

func newContentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Read and edit content documents",
	}
	cmd.AddCommand(newContentListCmd(a))
	cmd.AddCommand(newContentShowCmd(a))
	cmd.AddCommand(newContentSaveCmd(a))
	return cmd
}

func newContentListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List content documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			docs := a.content.Documents()
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), docs)
			}
			rows := make([][]string, 0, len(docs))
			for _, d := range docs {
				rows = append(rows, []string{d.ID, d.Title, d.Format})
			}
			return printTable(cmd.OutOrStdout(), []string{"ID", "TITLE", "FORMAT"}, rows)
		},
	}
}

func newContentShowCmd(a *app) *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "show <document>",
		Short: "Print a content document",
		Long:  "Prints a markdown document's body, or a list document's items in order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			doc, err := a.content.Get(cmd.Context(), a.client, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.output == "json" {
				return printJSON(out, doc)
			}

			if doc.Format == model.ContentList {
				rows := make([][]string, 0, len(doc.Items))
				for _, item := range doc.Items {
					rows = append(rows, []string{strconv.Itoa(item["order"].(int)), item.ID(), model.FormatValue(item["title"])})
				}
				return printTable(out, []string{"ORDER", "ID", "TITLE"}, rows)
			}
			if asHTML {
				_, err = io.WriteString(out, doc.HTML)
				return err
			}
			_, err = fmt.Fprintln(out, doc.Body)
			return err
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "Print the rendered HTML instead of markdown")
	return cmd
}

func newContentSaveCmd(a *app) *cobra.Command {
	var file, title string

	cmd := &cobra.Command{
		Use:   "save <document>",
		Short: "Replace the body of a markdown document",
		Long:  "Reads the new markdown body from --file, or from stdin when --file is \"-\" or empty.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			var (
				body []byte
				err  error
			)
			if file == "" || file == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("reading body: %w", err)
			}

			doc, err := a.content.SaveBody(cmd.Context(), a.client, args[0], validation.ContentBody{
				Title: title,
				Body:  string(body),
			})
			if err != nil {
				return err
			}
			if a.output == "json" {
				return printJSON(cmd.OutOrStdout(), doc)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", doc.Title, len(body))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Markdown file to upload; - reads stdin")
	cmd.Flags().StringVar(&title, "title", "", "Optional new title")
	return cmd
}
