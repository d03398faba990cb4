package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/clearpoll/internal/loadrule"
	"github.com/masmgr/clearpoll/internal/polling"
	"github.com/masmgr/clearpoll/internal/state"
)

// StateCmd returns the state command.
func StateCmd() *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Show the stored revision state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "state",
				Usage: "Path to the revision state file",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the raw state as JSON",
			},
		},
		Action: stateAction,
	}
}

func stateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store := state.NewStore(cfg.State.Path)
	st, err := store.Load()
	if err != nil {
		return err
	}
	return printState(os.Stdout, store.Path(), st, c.Bool("json"))
}

// printState writes st for humans, or as indented JSON when asJSON is set.
func printState(w io.Writer, path string, st *polling.RevisionState, asJSON bool) error {
	if st == nil {
		if asJSON {
			_, err := fmt.Fprintln(w, "null")
			return err
		}
		_, err := fmt.Fprintf(w, "No state recorded in %s\n", path)
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("encode state: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	fmt.Fprintf(w, "%s %s\n", color.New(color.Bold).Sprint("Build:"), st.BuildID())
	fmt.Fprintf(w, "File:   %s\n", path)
	if st.IsTagged() {
		fmt.Fprintf(w, "Tagged: %s\n", color.GreenString("yes"))
	} else {
		fmt.Fprintf(w, "Tagged: %s\n", color.YellowString("no"))
	}
	fmt.Fprintln(w)

	dates := st.Dates()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOAD RULE\tWATERMARK")
	for _, lr := range dates.LoadRules() {
		value := "-"
		if t, ok := dates.Get(lr); ok {
			value = t.Format(loadrule.DateLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\n", lr, value)
	}
	return tw.Flush()
}
