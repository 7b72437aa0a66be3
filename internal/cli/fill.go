package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcontainer/pkg/memform"
)

func (a *app) fillCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fill",
		Short: "Prompt for every field, following visibility rules, then validate",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.fill(cmd.Context(), s); err != nil {
				return err
			}
			return a.validate(cmd, s)
		},
	}
}

// fill prompts for fields in index order. Answers can reveal new fields, so
// the index is re-read after every answer until every field was asked once.
func (a *app) fill(ctx context.Context, s *session) error {
	asked := make(map[string]bool)
	for {
		next := ""
		for _, id := range s.container.Fields() {
			if !asked[id] {
				next = id
				break
			}
		}
		if next == "" {
			return nil
		}
		asked[next] = true

		m, def, ok := s.field(next)
		if !ok {
			continue
		}
		value, err := a.ask(ctx, def, m.FieldValue(next))
		if err != nil {
			return err
		}
		if value == nil {
			continue
		}
		if err := m.Touch(next, value); err != nil {
			return err
		}
	}
}

func (a *app) ask(ctx context.Context, def memform.FieldDefinition, current any) (any, error) {
	message := def.DisplayLabel()
	if def.Required {
		message += " *"
	}
	schemaType, _ := def.Schema["type"].(string)

	if enum, ok := def.Schema["enum"].([]any); ok && len(enum) > 0 {
		options := make([]string, len(enum))
		selected := 0
		for i, option := range enum {
			options[i] = fmt.Sprint(option)
			if current != nil && options[i] == fmt.Sprint(current) {
				selected = i
			}
		}
		idx, err := a.prompter.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: selected})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(enum) {
			return nil, nil
		}
		return enum[idx], nil
	}

	if schemaType == "boolean" {
		initial, _ := current.(bool)
		return a.prompter.Confirm(ctx, ConfirmConfig{Message: message, Default: initial})
	}

	cfg := InputConfig{Message: message, Validator: inputValidator(schemaType)}
	if current != nil {
		cfg.Default = fmt.Sprint(current)
	}
	raw, err := a.prompter.Input(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return convertInput(schemaType, raw)
}

func inputValidator(schemaType string) func(string) error {
	switch schemaType {
	case "integer", "number":
		return func(raw string) error {
			_, err := convertInput(schemaType, raw)
			return err
		}
	default:
		return nil
	}
}

func convertInput(schemaType, raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	switch schemaType {
	case "integer":
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", trimmed)
		}
		return n, nil
	case "number":
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", trimmed)
		}
		return f, nil
	default:
		return raw, nil
	}
}
