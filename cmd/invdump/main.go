// invdump inspects Inventor files: catalog and stream listings, parameter
// tables, feature trees and a YAML model dump.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wudi/inventorkit/cfb"
	"github.com/wudi/inventorkit/ir"
	"github.com/wudi/inventorkit/ir/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type options struct {
	verbose bool
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "invdump",
		Short:         "Inspect Autodesk Inventor files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "decode timeout")

	root.AddCommand(
		newInfoCmd(opts),
		newStreamsCmd(opts),
		newParamsCmd(opts),
		newFeaturesCmd(opts),
		newSketchesCmd(opts),
		newDumpCmd(opts),
	)
	return root
}

func decode(opts *options, path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	p := ir.NewPipeline(ir.Config{Logger: newSlogLogger(opts.verbose)})
	return p.DecodeBytes(ctx, data)
}

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show document header, catalog and diagnostics summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := decode(opts, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "kind:       %s\n", doc.Kind)
			fmt.Fprintf(out, "uid:        %s\n", doc.UID)
			fmt.Fprintf(out, "db version: %d\n", doc.DbVersion)
			fmt.Fprintf(out, "partial:    %v\n", doc.Partial)
			fmt.Fprintf(out, "segments:\n")
			for _, e := range doc.Catalog {
				fmt.Fprintf(out, "  %-12s %-10s v%-2d %8d bytes\n", e.Name, e.Type, e.Version, e.Length)
			}
			for _, p := range doc.Properties {
				if p.Name != "" {
					fmt.Fprintf(out, "property %s: %v\n", p.Name, p.Value)
				}
			}
			if th := doc.Thumbnail; th != nil && th.Format != "" {
				fmt.Fprintf(out, "thumbnail:  %s %dx%d\n", th.Format, th.Width, th.Height)
			}
			fmt.Fprintf(out, "diagnostics: %d\n", len(doc.Diagnostics))
			if opts.verbose {
				for _, d := range doc.Diagnostics {
					fmt.Fprintf(out, "  %s\n", d)
				}
			}
			return nil
		},
	}
}

func newStreamsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "streams <file>",
		Short: "List raw container streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c, err := cfb.Open(data)
			if err != nil {
				return err
			}
			for _, e := range c.Entries() {
				kind := "stream"
				if e.Type == cfb.EntryStorage {
					kind = "storage"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %10d  %s\n", kind, e.Size, printable(e.Path))
			}
			return nil
		},
	}
}

func newParamsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "params <file>",
		Short: "Print the parameter table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := decode(opts, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range doc.Parameters.All() {
				switch p.Kind {
				case model.ParamBoolean:
					fmt.Fprintf(out, "%-16s = %v\n", p.Name, p.BoolValue)
				case model.ParamText:
					fmt.Fprintf(out, "%-16s = %q\n", p.Name, p.TextValue)
				default:
					note := ""
					if p.Outcome.Kind == model.OutcomeFallbackNominal {
						note = "  (nominal: " + p.Outcome.Reason + ")"
					}
					fmt.Fprintf(out, "%-16s = %g %s  formula=%q%s\n", p.Name, p.Value, p.Unit.Name, p.Formula, note)
				}
			}
			return nil
		},
	}
}

func newFeaturesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "features <file>",
		Short: "Print the feature tree in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := decode(opts, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, f := range doc.Features {
				mark := ""
				if f.Incomplete {
					mark = "  [incomplete]"
				}
				fmt.Fprintf(out, "%3d. %-24s %s%s\n", i+1, f.Name, f.Kind, mark)
				for _, in := range f.Inputs {
					fmt.Fprintf(out, "       %-12s -> %s#%d\n", in.Role, in.Node.Handle.Segment, in.Node.Handle.Index)
				}
				for _, pb := range f.Params {
					fmt.Fprintf(out, "       %-12s = %g %s\n", pb.Role, pb.Parameter.Value, pb.Parameter.Unit.Name)
				}
			}
			return nil
		},
	}
}

func newSketchesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sketches <file>",
		Short: "Print sketches with entity and constraint counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := decode(opts, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range doc.Sketches {
				fmt.Fprintf(out, "%s: %d entities, %d constraints\n", s.Name, len(s.Entities), len(s.Constraints))
				for _, e := range s.Entities {
					fmt.Fprintf(out, "  %s\n", describeEntity(e))
				}
			}
			return nil
		},
	}
}

func newDumpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Dump the decoded model as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := decode(opts, args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(dumpView(doc))
		},
	}
}

func describeEntity(e model.SketchEntity) string {
	switch e := e.(type) {
	case *model.Point2D:
		return fmt.Sprintf("point (%g, %g)", e.X, e.Y)
	case *model.Line2D:
		return fmt.Sprintf("line at (%g, %g) dir (%g, %g)", e.X, e.Y, e.DirX, e.DirY)
	case *model.Circle2D:
		if e.IsArc {
			return fmt.Sprintf("arc r=%g sweep [%g, %g]", e.R, e.StartParam, e.EndParam)
		}
		return fmt.Sprintf("circle r=%g", e.R)
	case *model.Ellipse2D:
		return fmt.Sprintf("ellipse a=%g b=%g", e.A, e.B)
	}
	return "entity"
}

// printable guards against the 0x05 marker byte in property stream names.
func printable(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r < 0x20 {
			out = append(out, []rune(fmt.Sprintf("\\x%02x", r))...)
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
