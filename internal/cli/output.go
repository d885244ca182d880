// Package cli formats explorer results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/tfexplorer/internal/camera"
	"github.com/hyperjump/tfexplorer/internal/explorer"
	"github.com/hyperjump/tfexplorer/internal/models"
	"github.com/hyperjump/tfexplorer/internal/storage"
	"github.com/hyperjump/tfexplorer/internal/tokenizer"
	"github.com/hyperjump/tfexplorer/internal/vector"
	"github.com/hyperjump/tfexplorer/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const separator = "─────────────────────────────────────────────────────────"

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteNeighbors writes a neighbor response to w in the given format.
func WriteNeighbors(w io.Writer, resp *models.NeighborsResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		writeCompact(w, resp.Neighbors)
		return nil
	default:
		if resp.Word != "" {
			fmt.Fprintf(w, "\nNearest neighbors of %q (%dms)\n\n", resp.Word, resp.QueryTime)
		} else {
			fmt.Fprintf(w, "\nNearest neighbors of vector (%dms)\n\n", resp.QueryTime)
		}
		writeRanked(w, resp.Neighbors)
		return nil
	}
}

// WriteAnalogy writes an analogy response to w in the given format.
func WriteAnalogy(w io.Writer, resp *models.AnalogyResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		writeCompact(w, resp.Results)
		return nil
	default:
		fmt.Fprintf(w, "\n%s is to %s as %s is to ... (%dms)\n\n", resp.A, resp.B, resp.C, resp.QueryTime)
		writeRanked(w, resp.Results)
		return nil
	}
}

func writeCompact(w io.Writer, ns []vector.Neighbor) {
	for _, n := range ns {
		fmt.Fprintf(w, "%s\t%.4f\n", n.Word, n.Similarity)
	}
}

func writeRanked(w io.Writer, ns []vector.Neighbor) {
	if len(ns) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	fmt.Fprintln(w, separator)
	for i, n := range ns {
		fmt.Fprintf(w, "%3d. %-24s %.4f\n", i+1, n.Word, n.Similarity)
	}
	fmt.Fprintln(w, separator)
}

// WriteTokens writes a tokenization to w in the given format.
func WriteTokens(w io.Writer, res *tokenizer.Result, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, res)
	case OutputCompact:
		for _, tok := range res.Tokens {
			fmt.Fprintf(w, "%d\t%q\n", tok.ID, tok.Text)
		}
		return nil
	default:
		fmt.Fprintf(w, "\nTokens (%s): %d tokens, %d chars, %.2f chars/token\n\n",
			res.Source, res.Stats.Tokens, res.Stats.Chars, res.Stats.CharsPerToken)
		parts := make([]string, len(res.Tokens))
		for i, tok := range res.Tokens {
			parts[i] = fmt.Sprintf("[%s]", tok.Text)
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
		if res.Annotation != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(res.Annotation, 200))
		}
		if len(res.Comparison) > 0 {
			names := make([]string, 0, len(res.Comparison))
			for name := range res.Comparison {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintln(w)
			for _, name := range names {
				fmt.Fprintf(w, "%-8s %d tokens\n", name+":", len(res.Comparison[name].Tokens))
			}
		}
		return nil
	}
}

// WriteSanitize writes a camera sanitize result to w in the given format.
func WriteSanitize(w io.Writer, res camera.Result, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, res)
	case OutputCompact:
		if res.Pose == nil {
			fmt.Fprintln(w, "invalid")
			return nil
		}
		fmt.Fprintf(w, "%t\t%s\n", res.Changed, camera.Signature(*res.Pose))
		return nil
	default:
		if !res.Valid || res.Pose == nil {
			fmt.Fprintln(w, "Pose is invalid: eye and center must have three finite components.")
			return nil
		}
		status := "unchanged"
		if res.Changed {
			status = "corrected"
		}
		p := res.Pose
		fmt.Fprintf(w, "Pose %s (distance %.6g)\n", status, p.Distance())
		fmt.Fprintf(w, "  eye:    (%g, %g, %g)\n", p.Eye.X, p.Eye.Y, p.Eye.Z)
		fmt.Fprintf(w, "  center: (%g, %g, %g)\n", p.Center.X, p.Center.Y, p.Center.Z)
		fmt.Fprintf(w, "  up:     (%g, %g, %g)\n", p.Up.X, p.Up.Y, p.Up.Z)
		return nil
	}
}

// WriteHistory writes history entries, newest first, to w in the given format.
func WriteHistory(w io.Writer, entries []*storage.HistoryEntry, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if entries == nil {
			entries = []*storage.HistoryEntry{}
		}
		return writeJSON(w, entries)
	case OutputCompact:
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Kind, string(e.Query))
		}
		return nil
	default:
		if len(entries) == 0 {
			fmt.Fprintln(w, "No history.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s  %-9s  %s  %s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Kind, e.ID,
				utils.TruncateFit(string(e.Query), 80))
		}
		return nil
	}
}

// WriteUnknownWords explains which words are missing and what they might have meant.
func WriteUnknownWords(w io.Writer, err *explorer.UnknownWordsError) {
	fmt.Fprintf(w, "%v\n", err)
	for _, word := range err.Missing.Words {
		sugg := err.Suggestions[word]
		if len(sugg) == 0 {
			continue
		}
		names := make([]string, len(sugg))
		for i, s := range sugg {
			names[i] = s.Word
		}
		fmt.Fprintf(w, "  %s: did you mean %s?\n", word, strings.Join(names, ", "))
	}
}
