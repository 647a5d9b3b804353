package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	heading = color.New(color.Bold, color.FgCyan).SprintFunc()
	success = color.New(color.FgGreen).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)

// scoreText colours a 0..1 score by strength.
func scoreText(score float64) string {
	text := fmt.Sprintf("%.3f", score)
	switch {
	case score >= 0.7:
		return color.GreenString(text)
	case score >= 0.4:
		return color.YellowString(text)
	default:
		return color.RedString(text)
	}
}

// snippet flattens whitespace and cuts text to n runes.
func snippet(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= n {
		return flat
	}
	return string(runes[:n]) + "..."
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
