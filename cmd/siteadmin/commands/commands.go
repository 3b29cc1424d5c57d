package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"willstech-admin/internal/app"
	"willstech-admin/internal/auth"
	"willstech-admin/internal/config"
	"willstech-admin/internal/editor"
	"willstech-admin/internal/siteconfig"
)

// withApp loads configuration, builds the app and runs fn with it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg := config.LoadConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCommit(w io.Writer, res *editor.CommitResult) {
	if res == nil {
		return
	}
	fmt.Fprintf(w, "Committed %s (%s)", res.CommitSHA, res.Section)
	if res.Retried {
		fmt.Fprint(w, " after resolving a conflict")
	}
	fmt.Fprintln(w)
	if res.CommitURL != "" {
		fmt.Fprintln(w, res.CommitURL)
	}
}

// writeOut writes body to path, or stdout when path is "-".
func writeOut(cmd *cobra.Command, path string, body []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(body)
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

func NewSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Load the site config from GitHub and print its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Editor.Sync(ctx); err != nil {
					return err
				}
				doc, err := a.Editor.Document(ctx)
				if err != nil {
					return err
				}
				active, hidden := doc.Partition()
				st := a.Editor.Status()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Repository: %s (%s)\n", st.Target.FullName(), st.Target.Branch)
				fmt.Fprintf(out, "Source:     %s\n", st.Source)
				fmt.Fprintf(out, "SHA:        %s\n", st.SHA)
				fmt.Fprintf(out, "Products:   %d active, %d hidden\n", len(active), len(hidden))
				return nil
			})
		},
	}
}

func NewBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Download the current site config",
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("out")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				body, name, err := a.Editor.Backup(ctx)
				if err != nil {
					return err
				}
				if outPath == "" {
					outPath = name
				}
				return writeOut(cmd, outPath, body)
			})
		},
	}
	cmd.Flags().StringP("out", "o", "", "Output file (default willstech-backup-YYYY-MM-DD.json, - for stdout)")
	return cmd
}

func NewRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore a backup and commit it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Editor.Restore(ctx, body); err != nil {
					return err
				}
				res, err := a.Editor.Deploy(ctx)
				if err != nil {
					return err
				}
				printCommit(cmd.OutOrStdout(), res.Commit)
				return nil
			})
		},
	}
}

func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export products to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("out")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				env, err := a.Editor.ExportProducts(ctx)
				if err != nil {
					return err
				}
				body, err := json.MarshalIndent(env, "", "  ")
				if err != nil {
					return err
				}
				if outPath == "" {
					outPath = editor.ExportFileName(time.Now())
				}
				return writeOut(cmd, outPath, append(body, '\n'))
			})
		},
	}
	cmd.Flags().StringP("out", "o", "", "Output file (- for stdout)")
	return cmd
}

func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge products from an export file and commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				mr, res, err := a.Editor.ImportProducts(ctx, body)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new, updated %d\n", mr.Added, mr.Updated)
				printCommit(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func NewProductsCommand() *cobra.Command {
	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "Product commands",
	}

	bulk := func(use, short, status string) *cobra.Command {
		c := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				yes, _ := cmd.Flags().GetBool("yes")
				if !yes {
					return fmt.Errorf("refusing to change every product without --yes")
				}
				return withApp(cmd, func(ctx context.Context, a *app.App) error {
					n, res, err := a.Editor.SetAllProductStatus(ctx, status)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d products now %s\n", n, status)
					printCommit(cmd.OutOrStdout(), res)
					return nil
				})
			},
		}
		c.Flags().BoolP("yes", "y", false, "Confirm the bulk change")
		return c
	}
	productsCmd.AddCommand(
		bulk("hide-all", "Hide every product", siteconfig.StatusHidden),
		bulk("show-all", "Show every product", siteconfig.StatusActive),
	)

	productsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List products with their display price",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				doc, err := a.Editor.Document(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, p := range doc.Products {
					fmt.Fprintf(out, "%-15s %-7s UGX %12s  %s\n", p.ID, p.Status, siteconfig.FormatPrice(p.Price), p.Name)
				}
				return nil
			})
		},
	})
	return productsCmd
}

func NewVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the token can reach the repository and branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				repo, err := a.Settings.Load(ctx)
				if err != nil {
					return err
				}
				access, err := a.NewBackend(repo).VerifyAccess(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), access)
			})
		},
	}
}

func NewDeployCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Commit the current site config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Editor.Deploy(ctx)
				if err != nil {
					return err
				}
				printCommit(cmd.OutOrStdout(), res.Commit)
				return nil
			})
		},
	}
}

func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent commits made by the admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			section, _ := cmd.Flags().GetString("section")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				records, err := a.History.List(ctx, section, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, r := range records {
					fmt.Fprintf(out, "%s  %-9s %s  %s\n", r.CreatedAt.Format(time.RFC3339), r.Section, r.CommitSHA, r.Repository)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 20, "Number of records")
	cmd.Flags().String("section", "", "Only this section (hero, content, social, products, deploy)")
	return cmd
}

func NewHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
