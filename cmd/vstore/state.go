package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/devtools"
)

var outputFormats = []string{"json", "yaml"}

func stateCmd(flags *globalFlags) *cobra.Command {
	var (
		url    string
		output string
	)

	cmd := &cobra.Command{
		Use:   "state [store]",
		Short: "Print the current state of a store",
		Long: `State fetches a snapshot from a running devtools server. Without an
argument it lists the attached stores.

Examples:
  vstore state
  vstore state workspace
  vstore state workspace -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			if url == "" {
				cfg, err := flags.loadConfig()
				if err != nil {
					return err
				}
				url = cfg.DevtoolsURL()
			}

			client := devtools.NewClient(url)
			w := cmd.OutOrStdout()

			if len(args) == 0 {
				infos, err := client.Stores(cmd.Context())
				if err != nil {
					return err
				}
				return printStores(w, infos)
			}

			raw, err := client.State(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printState(w, raw, output)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Devtools base URL (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")

	return cmd
}

func checkFormat(format string) error {
	for _, f := range outputFormats {
		if f == format {
			return nil
		}
	}
	return errors.New("X001").
		WithDetail(fmt.Sprintf("%q is not one of %s.", format, strings.Join(outputFormats, ", "))).
		WithSuggestion("Use -o json or -o yaml")
}

func printStores(w io.Writer, infos []devtools.StoreInfo) error {
	if len(infos) == 0 {
		fmt.Fprintln(w, "No stores attached.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSEQ\tLAST ACTION")
	for _, info := range infos {
		action := info.LastAction
		if action == "" {
			action = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Name, info.Seq, action)
	}
	return tw.Flush()
}

func printState(w io.Writer, raw json.RawMessage, format string) error {
	switch format {
	case "yaml":
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return errors.New("D003").Wrap(err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return errors.New("D003").Wrap(err)
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(w)
		return err
	}
}
