package cli

import (
	"fmt"
	"path/filepath"

	"github.com/jlrickert/xargs-groupby/appctx"
	"github.com/jlrickert/xargs-groupby/internal/config"
	"github.com/jlrickert/xargs-groupby/toolkit"
	"github.com/spf13/cobra"
)

// newConfigCommand builds the "config" command group, used to locate and
// edit the user-scoped config.yaml.
func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the xargs-groupby configuration file",
	}
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(newConfigEditCommand())
	return cmd
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved user-scoped config.yaml path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ac, err := loadAppContext(cmd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(ac.ConfigRoot, config.FileName))
			return err
		},
	}
}

func newConfigEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open config.yaml in $VISUAL or $EDITOR, creating it if absent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, ac, err := loadAppContext(cmd)
			if err != nil {
				return err
			}
			path := filepath.Join(ac.ConfigRoot, config.FileName)
			if _, err := rt.Stat(path, false); err != nil {
				if err := rt.WriteFile(path, []byte("# xargs-groupby config\n"), 0o644); err != nil {
					return fmt.Errorf("xargs-groupby: creating %s: %w", path, err)
				}
			}
			host, err := rt.AbsPath(path)
			if err != nil {
				return fmt.Errorf("xargs-groupby: %w", err)
			}
			return toolkit.Edit(cmd.Context(), host)
		},
	}
}

func loadAppContext(cmd *cobra.Command) (*toolkit.Runtime, *appctx.AppContext, error) {
	rt, err := toolkit.NewOsRuntime()
	if err != nil {
		return nil, nil, fmt.Errorf("xargs-groupby: %w", err)
	}
	ac, err := appctx.NewGitAppContext(cmd.Context(), rt, appName)
	if err != nil {
		return nil, nil, fmt.Errorf("xargs-groupby: %w", err)
	}
	return rt, ac, nil
}
