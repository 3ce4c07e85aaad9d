package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/component"
)

// ErrDescriptorInvalid is returned when validate finds violations.
var ErrDescriptorInvalid = errors.New("project descriptor is invalid")

// NewValidateCommand creates the validate subcommand.
func NewValidateCommand() *cobra.Command {
	var nocolor bool

	fs := afero.NewOsFs()

	cmd := &cobra.Command{
		Use:   "validate <descriptor>",
		Short: "Validate a project descriptor against its schema",
		Long: `Validate a project descriptor against the descriptor JSON schema and check
that it builds a component tree with unique keys.

Examples:
  sonarbridge validate sonarbridge-project.yaml
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return fmt.Errorf("read descriptor: %w", err)
			}

			return runValidate(cmd.OutOrStdout(), args[0], data, nocolor)
		},
	}

	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(w io.Writer, label string, data []byte, nocolor bool) error {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	if nocolor {
		green.DisableColor()
		red.DisableColor()
	}

	violations, err := component.Validate(data)
	if err != nil {
		return err
	}

	if len(violations) > 0 {
		red.Fprintf(w, "Descriptor validation failed (%s)\n", label)
		fmt.Fprintf(w, "\nErrors:\n")

		for _, v := range violations {
			red.Fprintf(w, "  - %s: %s\n", v.Field, v.Description)
		}

		return fmt.Errorf("%w: %d violations", ErrDescriptorInvalid, len(violations))
	}

	desc, err := component.Parse(data)
	if err != nil {
		return err
	}

	tree, err := desc.Build()
	if err != nil {
		red.Fprintf(w, "Descriptor validation failed (%s)\n  - %v\n", label, err)

		return fmt.Errorf("%w: %w", ErrDescriptorInvalid, err)
	}

	modules := 0

	tree.Walk(func(c *component.Component) {
		if !c.IsAggregating() {
			modules++
		}
	})

	green.Fprintf(w, "Descriptor is valid (%s)\n", label)
	fmt.Fprintf(w, "  Project: %s\n  Modules: %d\n", tree.Key, modules)

	return nil
}
