package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loom-ui/loom/internal/config"
)

const starterPage = `<!doctype html>
<html>
  <head>
    <title>loom</title>
  </head>
  <body>
    <main>
      <h1>It works</h1>
      <p>Edit index.html and save to reload.</p>
    </main>
  </body>
</html>
`

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a loom project",
		Long: `Create loom.json, a starter index.html, and the static directory
in the given directory (default: current directory).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(dir)
		},
	}
	return cmd
}

func runInit(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if config.Exists(dir) {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	cfg := config.New()
	cfg.Name = filepath.Base(absOrSelf(dir))
	if err := cfg.SaveTo(filepath.Join(dir, config.FileName)); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, cfg.Static.Dir), 0o755); err != nil {
		return err
	}

	page := filepath.Join(dir, "index.html")
	if _, err := os.Stat(page); os.IsNotExist(err) {
		if err := os.WriteFile(page, []byte(starterPage), 0o644); err != nil {
			return err
		}
	}

	fmt.Printf("created %s\n", cfg.Name)
	fmt.Println("  loom serve")
	return nil
}

func absOrSelf(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}
