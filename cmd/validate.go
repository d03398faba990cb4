package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/clearpoll/config"
	"github.com/masmgr/clearpoll/internal/cleartool"
	"github.com/masmgr/clearpoll/internal/loadrule"
)

// ValidateCmd returns the validate command.
func ValidateCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.BoolFlag{
			Name:  "offline",
			Usage: "Only check the configuration, do not run cleartool",
		},
	)

	return &cli.Command{
		Name:   "validate",
		Usage:  "Validate load rules and check that the view and paths exist",
		Flags:  flags,
		Action: validateAction,
	}
}

// validationCheck is the outcome of one validation step.
type validationCheck struct {
	Name string
	Err  error
}

func validateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	checks := runValidate(c.Context, cfg, nil, c.Bool("offline"))
	if failed := printChecks(os.Stdout, checks); failed > 0 {
		return cli.Exit(fmt.Sprintf("%d check(s) failed", failed), 1)
	}
	return nil
}

// runValidate checks the load rules and view name, then asks cleartool
// whether the view and every load rule exist. Existence checks are skipped
// when offline or when the configuration itself is invalid.
func runValidate(ctx context.Context, cfg *config.Config, runner cleartool.Runner, offline bool) []validationCheck {
	if ctx == nil {
		ctx = context.Background()
	}

	checks := []validationCheck{{Name: "load rules", Err: loadrule.Validate(cfg.LoadRules)}}
	view := cfg.ClearTool.ViewName
	if view != "" {
		checks = append(checks, validationCheck{Name: "view name", Err: loadrule.ValidateViewName(view)})
	}
	for _, ch := range checks {
		if ch.Err != nil {
			return checks
		}
	}
	if offline {
		return checks
	}

	cc, err := newCommandContext(cfg, runner)
	if err != nil {
		return append(checks, validationCheck{Name: "setup", Err: err})
	}

	if view != "" {
		checks = append(checks, existenceCheck("view "+view, "viewName", view, func() (bool, error) {
			return cc.ClearTool.ViewExists(ctx, view)
		}))
	}
	for _, lr := range cc.LoadRules {
		checks = append(checks, existenceCheck("path "+lr, "loadRules", lr, func() (bool, error) {
			return cc.ClearTool.PathExists(ctx, lr)
		}))
	}
	return checks
}

func existenceCheck(name, field, value string, exists func() (bool, error)) validationCheck {
	ok, err := exists()
	switch {
	case err != nil:
		return validationCheck{Name: name, Err: err}
	case !ok:
		return validationCheck{Name: name, Err: &loadrule.ConfigurationError{Field: field, Value: value, Message: "does not exist"}}
	default:
		return validationCheck{Name: name}
	}
}

// printChecks writes one line per check and returns the number of failures.
func printChecks(w io.Writer, checks []validationCheck) int {
	failed := 0
	for _, ch := range checks {
		if ch.Err != nil {
			failed++
			fmt.Fprintf(w, "%s %s: %v\n", color.RedString("FAIL"), ch.Name, ch.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", color.GreenString("OK"), ch.Name)
	}
	return failed
}
