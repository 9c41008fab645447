package pathfinder

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/soundprediction/pathfinder"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", outputText, "output format (text, json, yaml)")
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", err
	}
	format = strings.ToLower(format)
	switch format {
	case outputText, outputJSON, outputYAML:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

// writeResult prints res. Text output is the relation sequence of the path,
// e.g. [r1, r2].
func writeResult(w io.Writer, format string, res *pathfinder.Result) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	}

	if !res.Found {
		if res.TimedOut {
			_, err := fmt.Fprintln(w, "no path found (timed out)")
			return err
		}
		_, err := fmt.Fprintln(w, "no path found")
		return err
	}

	rels := res.Relations()
	names := make([]string, len(rels))
	for i, r := range rels {
		names[i] = r.String()
	}
	_, err := fmt.Fprintf(w, "[%s]\n", strings.Join(names, ", "))
	return err
}
