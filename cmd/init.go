package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dotcommander/postindex/internal/config"
	"github.com/dotcommander/postindex/internal/project"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .postindexrc.yaml",
	Long: `Init writes the default configuration to .postindexrc.yaml in the site root so it
can be edited. An existing config file is left alone unless --force is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runInit(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command) error {
	root := rootPath
	if root == "" {
		detected, err := project.FindSiteRoot(".")
		if err != nil {
			return fmt.Errorf("error detecting site root: %w", err)
		}
		root = detected
	}

	info := project.Detect(root)
	if info.ConfigFile != "" && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", info.ConfigFile)
	}

	cfg, err := config.Default()
	if err != nil {
		return err
	}
	path := filepath.Join(root, project.ConfigFiles[0])
	if err := config.SaveConfig(cfg, path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", path)
	if !info.VitePress {
		fmt.Fprintln(out, "No .vitepress directory found here; set --root if the site lives elsewhere.")
	}
	return nil
}
