package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/mimic/internal/engine"
	"github.com/MrSnakeDoc/mimic/internal/registry"
	"github.com/MrSnakeDoc/mimic/internal/seed"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file|dir>...",
		Short: "Validate service description files without starting the server",
		Long: `check parses every given description file, and every *.svc file of every
given directory, as the server would. Files are registered in a scratch
registry in order, so duplicates across files are reported too.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expand(args)
			if err != nil {
				return err
			}
			return check(cmd.Context(), cmd, files)
		},
	}
}

func expand(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := seed.Files(arg)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func check(ctx context.Context, cmd *cobra.Command, files []string) error {
	eng := engine.New(registry.New(), nil)
	out := cmd.OutOrStdout()

	failed := 0
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		id, err := eng.AddService(ctx, f)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "ok    %s (%s)\n", path, id)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d description files are invalid", failed, len(files))
	}
	return nil
}
