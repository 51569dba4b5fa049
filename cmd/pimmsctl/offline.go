package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"pimms/internal/core/appconfig"
	"pimms/internal/core/signature"
	"pimms/internal/core/version"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// signCmd prints the signature header a sender would attach to a body
func signCmd() *cobra.Command {
	var (
		workspace string
		bodyPath  string
		header    bool
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a webhook body for a workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readBody(cmd.InOrStdin(), bodyPath)
			if err != nil {
				return err
			}
			sig := "sha256=" + signature.Sign(body, signature.SecretFor(workspace))
			if header {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", signature.DefaultHeader, sig)
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sig)
			return err
		},
	}
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace id the body is routed to")
	cmd.Flags().StringVarP(&bodyPath, "body", "b", "-", "body file, - reads stdin")
	cmd.Flags().BoolVar(&header, "header", false, "print as a full header line")
	_ = cmd.MarkFlagRequired("workspace")
	return cmd
}

func readBody(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// resolveAppCmd shows the field mapping an app name resolves to
func resolveAppCmd() *cobra.Command {
	var (
		file string
		list bool
	)
	cmd := &cobra.Command{
		Use:   "resolve-app [app]",
		Short: "Show the payload mapping used for an app",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = os.Getenv("WEBHOOKS_APPS_FILE")
			}
			table, err := appconfig.LoadFile(file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if list || len(args) == 0 {
				names := table.Names()
				sort.Strings(names)
				for _, n := range names {
					fmt.Fprintln(out, n)
				}
				return nil
			}

			cfg, known := table.Resolve(args[0])
			if !known {
				fmt.Fprintf(out, "# %q is not configured, using %s\n", args[0], appconfig.DefaultName)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "overlay yaml (default WEBHOOKS_APPS_FILE)")
	cmd.Flags().BoolVar(&list, "list", false, "list configured apps")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), version.Info("pimmsctl"))
		},
	}
}
