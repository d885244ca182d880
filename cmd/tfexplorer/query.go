package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/tfexplorer/internal/camera"
	"github.com/hyperjump/tfexplorer/internal/cli"
	"github.com/hyperjump/tfexplorer/internal/explorer"
	"github.com/hyperjump/tfexplorer/internal/extract"
	"github.com/hyperjump/tfexplorer/internal/keyword"
	"github.com/hyperjump/tfexplorer/internal/models"
	"github.com/hyperjump/tfexplorer/internal/vector"
)

const httpTimeout = 30 * time.Second

// queryFlags are shared by neighbors and analogy.
type queryFlags struct {
	configPath *string
	serverURL  *string
	n          *int
	output     *string
	xlsx       *string
	fromDB     *bool
	record     *bool
}

func newQueryFlags(fs *flag.FlagSet) queryFlags {
	return queryFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		serverURL:  fs.String("server", "", "server URL (empty = load the dataset directly)"),
		n:          fs.Int("n", 0, "number of results (0 = default from config)"),
		output:     fs.String("output", "text", "output format: text, compact, or json"),
		xlsx:       fs.String("xlsx", "", "also export results to this .xlsx file"),
		fromDB:     fs.Bool("from-db", false, "use embeddings imported into the database"),
		record:     fs.Bool("record", false, "record the query in history (direct mode)"),
	}
}

func (q queryFlags) format() cli.OutputFormat {
	f, err := cli.ParseOutputFormat(*q.output)
	if err != nil {
		fatalf("%v", err)
	}
	return f
}

// engine builds a direct-mode engine for one query.
func (q queryFlags) engine(ctx context.Context) (*Components, func()) {
	cfg, _, logger := setup(*q.configPath, false, true)
	components, err := initializeComponents(ctx, cfg, logger, componentOptions{
		history: *q.record,
		fromDB:  *q.fromDB,
	})
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	return components, func() {
		components.Close()
		_ = logger.Sync()
	}
}

// exitQueryError reports a failed query, with spelling hints for unknown words.
func exitQueryError(err error) {
	var unknown *explorer.UnknownWordsError
	if errors.As(err, &unknown) {
		cli.WriteUnknownWords(os.Stderr, unknown)
		os.Exit(1)
	}
	fatalf("Query failed: %v", err)
}

func runNeighbors() {
	fs := flag.NewFlagSet("neighbors", flag.ExitOnError)
	qf := newQueryFlags(fs)
	_ = fs.Parse(argsReorder(os.Args[2:]))

	word := joinArgs(fs.Args())
	if word == "" {
		fmt.Println("Usage: tfexplorer neighbors [flags] <word>")
		os.Exit(1)
	}
	format := qf.format()

	var resp *models.NeighborsResponse
	var err error
	if *qf.serverURL != "" {
		resp, err = neighborsViaHTTP(*qf.serverURL, word, *qf.n)
	} else {
		components, done := qf.engine(context.Background())
		defer done()
		resp, err = components.Engine.Neighbors(context.Background(), models.NeighborsQuery{Word: word, TopN: *qf.n})
	}
	if err != nil {
		exitQueryError(err)
	}

	if err := cli.WriteNeighbors(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
	if *qf.xlsx != "" {
		if err := cli.WriteNeighborsXLSX(*qf.xlsx, "neighbors of "+resp.Word, resp.Neighbors); err != nil {
			fatalf("Export failed: %v", err)
		}
	}
}

func runAnalogy() {
	fs := flag.NewFlagSet("analogy", flag.ExitOnError)
	qf := newQueryFlags(fs)
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() != 3 {
		fmt.Println("Usage: tfexplorer analogy [flags] <a> <b> <c>")
		fmt.Println(`  Answers "a is to b as c is to ?" e.g. tfexplorer analogy king man woman`)
		os.Exit(1)
	}
	format := qf.format()
	q := models.AnalogyQuery{A: fs.Arg(0), B: fs.Arg(1), C: fs.Arg(2), TopN: *qf.n}

	var resp *models.AnalogyResponse
	var err error
	if *qf.serverURL != "" {
		resp, err = analogyViaHTTP(*qf.serverURL, q)
	} else {
		components, done := qf.engine(context.Background())
		defer done()
		resp, err = components.Engine.Analogy(context.Background(), q)
	}
	if err != nil {
		exitQueryError(err)
	}

	if err := cli.WriteAnalogy(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
	if *qf.xlsx != "" {
		title := fmt.Sprintf("%s - %s + %s", resp.A, resp.B, resp.C)
		if err := cli.WriteNeighborsXLSX(*qf.xlsx, title, resp.Results); err != nil {
			fatalf("Export failed: %v", err)
		}
	}
}

// apiError is the error body returned by the HTTP API.
type apiError struct {
	Error       string                          `json:"error"`
	Missing     []string                        `json:"missing"`
	Suggestions map[string][]keyword.Suggestion `json:"suggestions"`
}

// decodeAPIResponse decodes a successful body into out, or turns an error body back
// into the matching error value.
func decodeAPIResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		var body apiError
		if json.Unmarshal(b, &body) == nil && len(body.Missing) > 0 {
			return &explorer.UnknownWordsError{
				Missing:     &vector.MissingWordsError{Words: body.Missing},
				Suggestions: body.Suggestions,
			}
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func neighborsViaHTTP(serverURL, word string, n int) (*models.NeighborsResponse, error) {
	u := strings.TrimRight(serverURL, "/") + "/api/v1/words/" + url.PathEscape(word) + "/neighbors"
	if n > 0 {
		u += "?n=" + strconv.Itoa(n)
	}
	client := &http.Client{Timeout: httpTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var out models.NeighborsResponse
	if err := decodeAPIResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func analogyViaHTTP(serverURL string, q models.AnalogyQuery) (*models.AnalogyResponse, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: httpTimeout}
	resp, err := client.Post(strings.TrimRight(serverURL, "/")+"/api/v1/analogy", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var out models.AnalogyResponse
	if err := decodeAPIResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func runTokenize() {
	fs := flag.NewFlagSet("tokenize", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	file := fs.String("file", "", "read text from a document (.txt, .md, .pdf, .docx, .xlsx)")
	maxBytes := fs.Int64("max-bytes", extract.DefaultMaxBytes, "largest document accepted with --file")
	output := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}

	text := joinArgs(fs.Args())
	if *file != "" {
		ex := extract.NewExtractor(extract.WithMaxBytes(*maxBytes))
		text, err = ex.Extract(*file)
		if err != nil {
			fatalf("Failed to read %s: %v", *file, err)
		}
	}
	if text == "" {
		fmt.Println("Usage: tfexplorer tokenize [flags] <text>  or  tfexplorer tokenize --file <path>")
		os.Exit(1)
	}

	cfg, _, logger := setup(*configPath, false, true)
	defer logger.Sync()
	components, err := initializeComponents(context.Background(), cfg, logger, componentOptions{})
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	res, err := components.Engine.Tokenizer().Tokenize(text)
	if err != nil {
		fatalf("Tokenize failed: %v", err)
	}
	if err := cli.WriteTokens(os.Stdout, res, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runCamera() {
	fs := flag.NewFlagSet("camera", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	eye := fs.String("eye", "", "eye position x,y,z")
	center := fs.String("center", "", "look-at point x,y,z")
	up := fs.String("up", "", "up direction x,y,z (missing components come from the fallback)")
	minDistance := fs.Float64("min-distance", 0, "minimum eye-to-center distance (0 = from config)")
	output := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}
	var candidate camera.RawPose
	for _, f := range []struct {
		name  string
		value string
		dst   **camera.RawVec3
	}{
		{"eye", *eye, &candidate.Eye},
		{"center", *center, &candidate.Center},
		{"up", *up, &candidate.Up},
	} {
		v, err := parseVec3(f.value)
		if err != nil {
			fatalf("Invalid --%s: %v", f.name, err)
		}
		*f.dst = v
	}

	cfg, _, logger := setup(*configPath, false, true)
	defer logger.Sync()
	dist := cfg.Camera.MinDistance
	if *minDistance > 0 {
		dist = *minDistance
	}
	res := camera.NewSanitizer(dist).Sanitize(candidate, cfg.Camera.Default)
	if err := cli.WriteSanitize(os.Stdout, res, format); err != nil {
		fatalf("Output failed: %v", err)
	}
	if !res.Valid {
		os.Exit(2)
	}
}

// parseVec3 parses "x,y,z". Empty components are left missing; an empty string
// yields nil. Values such as "nan" parse and are rejected later by the sanitizer.
func parseVec3(s string) (*camera.RawVec3, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("want 3 comma-separated components, got %d", len(parts))
	}
	var comps [3]*float64
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i+1, err)
		}
		comps[i] = &f
	}
	return &camera.RawVec3{X: comps[0], Y: comps[1], Z: comps[2]}, nil
}
