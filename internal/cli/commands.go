package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	formcontainer "github.com/goliatone/go-formcontainer"
)

func (a *app) fieldsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Print the field to module index",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			fields := s.container.Fields()

			if asJSON {
				type row struct {
					Field  string `json:"field"`
					Module string `json:"module"`
				}
				rows := make([]row, 0, len(fields))
				for _, id := range fields {
					owner, _ := s.container.Owner(id)
					rows = append(rows, row{Field: id, Module: owner})
				}
				return writeJSON(a.stdout, rows)
			}

			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FIELD\tMODULE")
			for _, id := range fields {
				owner, _ := s.container.Owner(id)
				fmt.Fprintf(w, "%s\t%s\n", id, owner)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

type report struct {
	Errors formcontainer.ErrorMap `json:"errors"`
	Values formcontainer.Values   `json:"values"`
}

func (a *app) validateCommand() *cobra.Command {
	var valuesPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Set values from a file, validate every module and print the merged result",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if valuesPath != "" {
				values, err := readValues(valuesPath)
				if err != nil {
					return err
				}
				if err := s.container.SetFieldsValue(values, nil); err != nil {
					return err
				}
			}
			return a.validate(cmd, s)
		},
	}
	cmd.Flags().StringVar(&valuesPath, "values", "", "JSON or YAML file with field values")
	return cmd
}

func (a *app) validate(cmd *cobra.Command, s *session) error {
	result, err := s.container.ValidateFields(cmd.Context(), formcontainer.Request{})
	if err != nil {
		return err
	}
	if err := writeJSON(a.stdout, report{Errors: result.Errors, Values: result.Values}); err != nil {
		return err
	}
	if result.HasErrors() {
		return ErrValidationFailed
	}
	return nil
}

func readValues(path string) (formcontainer.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: read values: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("cli: parse values %s: %w", path, err)
	}
	return formcontainer.Values(values), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
