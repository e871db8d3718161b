package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/marcelsud/library-api/book"
	"github.com/marcelsud/library-api/seed"
	"github.com/spf13/cobra"
)

type opener func(ctx context.Context) (book.Repository, error)

type app struct {
	open opener
	out  io.Writer
}

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	a := &app{open: open, out: out}
	root := &cobra.Command{
		Use:          "cli",
		Short:        "Manage the library book store",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.AddCommand(
		a.listCmd(),
		a.getCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.seedCmd(),
		a.validateCmd(),
	)
	return root
}

// withService opens the store for a single command and closes it afterwards
func (a *app) withService(ctx context.Context, fn func(uc book.UseCase) error) error {
	repo, err := a.open(ctx)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer repo.Close(ctx)
	return fn(book.NewService(repo))
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every stored book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(uc book.UseCase) error {
				all, err := uc.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, b := range all {
					fmt.Fprintf(a.out, "%s\t%s\t%s\n", b.ISBN, b.Title, b.Author)
				}
				fmt.Fprintf(a.out, "%d book(s)\n", len(all))
				return nil
			})
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <isbn>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(uc book.UseCase) error {
				b, err := uc.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(b)
			})
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var b book.Book
	var price float64
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("price") {
				b.Price = &price
			}
			return a.withService(cmd.Context(), func(uc book.UseCase) error {
				saved, err := uc.Create(cmd.Context(), b)
				if err != nil {
					return err
				}
				return a.print(saved)
			})
		},
	}
	cmd.Flags().StringVar(&b.Title, "title", "", "book title")
	cmd.Flags().StringVar(&b.Author, "author", "", "book author")
	cmd.Flags().StringVar(&b.ISBN, "isbn", "", "book ISBN")
	cmd.Flags().Float64Var(&price, "price", 0, "book price")
	cmd.Flags().StringVar(&b.ImageURL, "image-url", "", "cover image URL")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var title, author, isbn, imageURL string
	var price float64
	cmd := &cobra.Command{
		Use:   "update <isbn>",
		Short: "Replace the given fields of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var changes book.Changes
			flags := cmd.Flags()
			if flags.Changed("title") {
				changes.Title = &title
			}
			if flags.Changed("author") {
				changes.Author = &author
			}
			if flags.Changed("isbn") {
				changes.ISBN = &isbn
			}
			if flags.Changed("price") {
				changes.Price = &price
			}
			if flags.Changed("image-url") {
				changes.ImageURL = &imageURL
			}
			return a.withService(cmd.Context(), func(uc book.UseCase) error {
				updated, err := uc.Update(cmd.Context(), args[0], changes)
				if err != nil {
					return err
				}
				return a.print(updated)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&author, "author", "", "new author")
	cmd.Flags().StringVar(&isbn, "isbn", "", "new ISBN")
	cmd.Flags().Float64Var(&price, "price", 0, "new price")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "new cover image URL")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <isbn>",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd.Context(), func(uc book.UseCase) error {
				removed, err := uc.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(removed)
			})
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Import books from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := seed.NewLoader()
			if err := loader.Load(args[0]); err != nil {
				return err
			}
			return a.withService(cmd.Context(), func(uc book.UseCase) error {
				result, err := seed.Import(cmd.Context(), uc, loader.List())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "created %d, skipped %d existing\n", result.Created, result.Skipped)
				return nil
			})
		},
	}
}

func (a *app) validateCmd() *cobra.Command {
	var isbn string
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a YAML seed file without touching the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := seed.NewLoader()
			if err := loader.Load(args[0]); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			if isbn != "" {
				b, err := loader.Get(isbn)
				if err != nil {
					return err
				}
				return a.print(b)
			}
			books := loader.List()
			fmt.Fprintf(a.out, "✓ %d book(s) valid\n", len(books))
			for i, b := range books {
				fmt.Fprintf(a.out, "%d. %s (%s)\n", i+1, b.Title, b.ISBN)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&isbn, "isbn", "", "show only the book with this ISBN")
	return cmd
}

func (a *app) print(b book.Book) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}
