package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"flint/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the registered rules and their policies",
	RunE:  runRules,
}

func init() {
	rulesCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type rulePayload struct {
	ID         string   `json:"id"`
	Severity   string   `json:"severity"`
	Cost       string   `json:"cost"`
	Categories []string `json:"categories,omitempty"`
}

func runRules(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	payload := make([]rulePayload, 0)
	for _, rl := range rules.NewRegistry().Rules() {
		d := rl.Descriptor()
		p := rulePayload{
			ID:       d.ID,
			Severity: d.Severity.String(),
			Cost:     d.Cost.String(),
		}
		for _, c := range d.Categories {
			p.Categories = append(p.Categories, string(c))
		}
		payload = append(payload, p)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "pretty":
		for _, p := range payload {
			scope := "all files"
			if len(p.Categories) > 0 {
				scope = strings.Join(p.Categories, ", ")
			}
			fmt.Fprintf(os.Stdout, "%-24s %-8s cost=%-8s %s\n", p.ID, p.Severity, p.Cost, scope)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
