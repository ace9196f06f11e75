package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loom-ui/loom/internal/htmlmin"
	"github.com/loom-ui/loom/pkg/engine"
	"github.com/loom-ui/loom/pkg/loop"
	"github.com/loom-ui/loom/pkg/template"
)

func renderCmd() *cobra.Command {
	var minifyOut bool

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template to stdout",
		Long: `Render a template file once and print the HTML.

Directives and interpolation markers are processed the same way the
live server processes them, without opening a session.

Examples:
  loom render index.html
  loom render index.html --minify`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], minifyOut)
		},
	}

	cmd.Flags().BoolVarP(&minifyOut, "minify", "m", false, "Minify the output")

	return cmd
}

func runRender(path string, minifyOut bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	frag, err := template.Interp(string(content))
	if err != nil {
		return err
	}

	sched := loop.NewManual()
	inst, err := engine.New(sched).Render(frag)
	if err != nil {
		return err
	}
	// Run deferred initial renders before snapshotting.
	sched.Flush()

	html, err := inst.HTML()
	if err != nil {
		return err
	}
	if minifyOut {
		html = htmlmin.Minify(html)
	}

	fmt.Println(html)
	return nil
}
