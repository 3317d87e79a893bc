package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cebeepredict/admin/internal/resource"
)

const browseHelp = `Commands:
  n             next page
  p             previous page
  g <page>      go to page, from 1
  s <text>      search; no text clears it
  f <param>=<v> filter; "all" or no value clears it
  o <sort>      sort key
  z <size>      page size
  r             reload
  h             this help
  q             quit`

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <resource>",
		Short: "Page through a resource interactively",
		Long:  "Shows one page of a resource and reads commands from stdin.\n\n" + browseHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			view, err := resource.NewView(a.resources, a.client, args[0])
			if err != nil {
				return err
			}
			defer view.Close()

			b := &browser{app: a, view: view, out: cmd.OutOrStdout()}
			return b.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

// browser drives a resource.View from line commands.
type browser struct {
	app  *app
	view *resource.View
	out  io.Writer
}

func (b *browser) run(ctx context.Context, in io.Reader) error {
	b.load(ctx)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(b.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(b.out)
			return scanner.Err()
		}
		quit, err := b.exec(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(b.out, "error: %v\n", err)
			continue
		}
		if quit {
			return nil
		}
	}
}

// exec applies one command. It reports whether the session should end.
func (b *browser) exec(ctx context.Context, line string) (bool, error) {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch verb {
	case "":
		return false, nil
	case "q", "quit", "exit":
		return true, nil
	case "h", "help", "?":
		fmt.Fprintln(b.out, browseHelp)
		return false, nil
	case "n", "next":
		if !b.view.NextPage() {
			fmt.Fprintln(b.out, "Already on the last page.")
			return false, nil
		}
	case "p", "prev":
		if !b.view.PrevPage() {
			fmt.Fprintln(b.out, "Already on the first page.")
			return false, nil
		}
	case "g":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return false, fmt.Errorf("page must be a number from 1, got %q", arg)
		}
		b.view.SetPage(n - 1)
	case "s":
		b.view.SetSearch(arg)
	case "f":
		param, value, err := parseFilter(b.view.Definition(), arg)
		if err != nil {
			return false, err
		}
		b.view.SetFilter(param, value)
	case "o":
		b.view.SetSort(arg)
	case "z":
		size, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("page size must be a number, got %q", arg)
		}
		if err := b.view.SetPageSize(size); err != nil {
			return false, err
		}
	case "r":
		b.retry(ctx)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q, h for help", verb)
	}

	b.load(ctx)
	return false, nil
}

func (b *browser) load(ctx context.Context) {
	b.show(b.view.Load(ctx))
}

func (b *browser) retry(ctx context.Context) {
	b.show(b.view.Retry(ctx))
}

// show prints the current page, or the load error with a retry hint. No
// rows are printed for a failed load.
func (b *browser) show(err error) {
	if errors.Is(err, resource.ErrStale) {
		return
	}
	def := b.view.Definition()
	if err != nil {
		fmt.Fprintf(b.out, "Could not load %s: %v\nType r to retry.\n", strings.ToLower(def.Title), err)
		return
	}
	if err := b.app.printList(b.out, def, b.view.State().Result); err != nil {
		fmt.Fprintf(b.out, "error: %v\n", err)
	}
}
