package main

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-editor/internal/config"
	"github.com/heimdex/heimdex-editor/internal/plugins"
)

// Prompter asks the user yes/no questions; tests replace it.
type Prompter interface {
	Confirm(message string, defaultValue bool) (bool, error)
}

type SurveyPrompter struct{}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

var DefaultPrompter Prompter = &SurveyPrompter{}

var (
	catalogInit  bool
	catalogForce bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the effective export format catalog",
	Long: `Print the formats and destination plugins offered by the export dialog,
as YAML. The catalog is read from HEIMDEX_EDITOR_PLUGINS_FILE, or
plugins.yaml in the data directory; the built-in catalog is used when the
file does not exist.

Use --init to write the built-in catalog to that file as a starting point.
An existing file is only replaced after confirmation, or with --force.`,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().BoolVar(&catalogInit, "init", false, "write the built-in catalog to the plugins file")
	catalogCmd.Flags().BoolVar(&catalogForce, "force", false, "replace an existing plugins file without asking")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	path := cfg.PluginsFile()

	if catalogInit {
		wrote, err := initCatalog(path, catalogForce, DefaultPrompter)
		if err != nil {
			return err
		}
		if wrote {
			fmt.Fprintln(cmd.ErrOrStderr(), "wrote", path)
		}
	}

	catalog, err := plugins.Load(path)
	if err != nil {
		return err
	}
	data, err := plugins.Marshal(catalog)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// initCatalog writes the built-in catalog to path. An existing file is kept
// unless force is set or the prompter confirms.
func initCatalog(path string, force bool, prompter Prompter) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		ok, err := prompter.Confirm(fmt.Sprintf("%s already exists. Replace it with the built-in catalog?", path), false)
		if err != nil {
			return false, fmt.Errorf("failed to confirm: %w", err)
		}
		if !ok {
			return false, nil
		}
	}
	if err := plugins.Save(plugins.Default(), path); err != nil {
		return false, err
	}
	return true, nil
}
