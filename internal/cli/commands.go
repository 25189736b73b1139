package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	goFlags "github.com/MrEthical07/goFlags"
	"github.com/MrEthical07/goFlags/decl"
)

// setView is the JSON form of a flag set.
type setView struct {
	Flags string   `json:"flags"`
	Names []string `json:"names"`
	Bits  string   `json:"bits"`
}

func viewOf(v goFlags.Set) setView {
	names := v.Flags()
	if names == nil {
		names = []string{}
	}
	return setView{Flags: v.String(), Names: names, Bits: v.Bits().String()}
}

func (c *CLI) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *CLI) printSet(w io.Writer, v goFlags.Set) error {
	if c.jsonOutput {
		return c.printJSON(w, viewOf(v))
	}
	fmt.Fprintf(w, "%s (0x%s)\n", v.String(), v.Bits().Text(16))
	return nil
}

func (c *CLI) newNamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List declared flags with their bit positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}

			type row struct {
				Name string   `json:"name"`
				Kind string   `json:"kind"`
				Bit  *int     `json:"bit,omitempty"`
				Of   []string `json:"of,omitempty"`
			}
			rows := make([]row, 0, reg.Len())
			for _, d := range reg.Declarations() {
				r := row{Name: d.Name, Kind: d.Kind.String(), Of: d.Of}
				if bit, ok := reg.BitPosition(d.Name); ok {
					r.Bit = &bit
				}
				rows = append(rows, r)
			}

			out := cmd.OutOrStdout()
			if c.jsonOutput {
				return c.printJSON(out, rows)
			}
			for _, r := range rows {
				switch {
				case r.Bit == nil:
					fmt.Fprintf(out, "%-24s = %s\n", r.Name, strings.Join(r.Of, " | "))
				case *r.Bit == goFlags.SentinelBit:
					fmt.Fprintf(out, "%-24s sentinel\n", r.Name)
				default:
					fmt.Fprintf(out, "%-24s bit %d\n", r.Name, *r.Bit)
				}
			}
			fmt.Fprintf(out, "fingerprint %s\n", reg.Fingerprint())
			return nil
		},
	}
}

func (c *CLI) newDeclCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decl",
		Short: "Print the loaded declarations in canonical YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			raw, err := decl.Marshal(reg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}

func (c *CLI) newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format NAME...",
		Short: "Combine flag or alias names and print the canonical text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			v, err := reg.Of(args...)
			if err != nil {
				return err
			}
			return c.printSet(cmd.OutOrStdout(), v)
		},
	}
}

func (c *CLI) newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse TEXT",
		Short: `Parse "A, B" text into a flag set`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			v, err := reg.TryParse(args[0])
			if err != nil {
				return err
			}
			return c.printSet(cmd.OutOrStdout(), v)
		},
	}
}

func (c *CLI) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check SET REQUIRED",
		Short: "Exit 0 when SET has every flag in REQUIRED",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			have, err := reg.TryParse(args[0])
			if err != nil {
				return err
			}
			need, err := reg.TryParse(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if have.Has(need) {
				fmt.Fprintln(out, "ok")
				return nil
			}
			return fmt.Errorf("%w: %s", ErrCheckFailed, need.AndNot(have))
		},
	}
}
