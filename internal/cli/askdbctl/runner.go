package askdbctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

type command struct {
	method   string
	path     string
	body     any
	tabulate func(io.Writer, []byte) error
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("askdbctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8501"), "askdb API base URL")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, defaultTimeout), "HTTP timeout (e.g. 60s)")
	format := fs.String("format", "table", "output format: table or json")
	limit := fs.Int("limit", 0, "history entries to list (0 uses the server default)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}
	if *format != "table" && *format != "json" {
		_, _ = fmt.Fprintf(stderr, "invalid -format %q\n", *format)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	name := strings.TrimSpace(fs.Arg(0))
	text := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
	var cmd command
	switch name {
	case "health":
		cmd = command{method: http.MethodGet, path: "/v1/health"}
	case "ready":
		cmd = command{method: http.MethodGet, path: "/v1/ready"}
	case "ask":
		cmd = command{method: http.MethodPost, path: "/v1/ask", body: map[string]string{"question": text}, tabulate: renderAsk}
	case "translate":
		cmd = command{method: http.MethodPost, path: "/v1/query/translate", body: map[string]string{"question": text}}
	case "explain":
		cmd = command{method: http.MethodPost, path: "/v1/query/explain", body: map[string]string{"sql": text}}
	case "query":
		cmd = command{method: http.MethodPost, path: "/v1/query", body: map[string]string{"sql": text}, tabulate: renderRows}
	case "employees":
		cmd = command{method: http.MethodGet, path: "/v1/employees", tabulate: renderEmployees}
	case "history":
		path := "/v1/history"
		if *limit > 0 {
			path += "?" + url.Values{"limit": {strconv.Itoa(*limit)}}.Encode()
		}
		cmd = command{method: http.MethodGet, path: path, tabulate: renderHistory}
	case "history-archives":
		cmd = command{method: http.MethodGet, path: "/v1/history/archives", tabulate: renderArchives}
	case "history-archive":
		if text == "" {
			_, _ = fmt.Fprintf(stderr, "%s requires an argument\n", name)
			return 2
		}
		cmd = command{method: http.MethodGet, path: "/v1/history/archives/" + strings.TrimLeft(text, "/"), tabulate: renderHistory}
	case "history-export":
		cmd = command{method: http.MethodPost, path: "/v1/history/export"}
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		writeUsage(stderr)
		return 2
	}
	if cmd.body != nil && text == "" {
		_, _ = fmt.Fprintf(stderr, "%s requires an argument\n", name)
		return 2
	}

	endpoint := strings.TrimRight(*baseURL, "/") + cmd.path
	code, responseBody, err := doRequest(ctx, client, cmd.method, endpoint, cmd.body)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if *format == "table" && cmd.tabulate != nil {
		if err := cmd.tabulate(stdout, responseBody); err != nil {
			_, _ = fmt.Fprintf(stderr, "render failed: %v\n", err)
			return 1
		}
		return 0
	}
	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

func doRequest(ctx context.Context, client *http.Client, method, url string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: askdbctl [flags] <command> [argument]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                 GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                  GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  ask <question>         POST /v1/ask")
	_, _ = fmt.Fprintln(w, "  translate <question>   POST /v1/query/translate")
	_, _ = fmt.Fprintln(w, "  explain <sql>          POST /v1/query/explain")
	_, _ = fmt.Fprintln(w, "  query <sql>            POST /v1/query")
	_, _ = fmt.Fprintln(w, "  employees              GET /v1/employees")
	_, _ = fmt.Fprintln(w, "  history                GET /v1/history")
	_, _ = fmt.Fprintln(w, "  history-archives       GET /v1/history/archives")
	_, _ = fmt.Fprintln(w, "  history-archive <key>  GET /v1/history/archives/{key}")
	_, _ = fmt.Fprintln(w, "  history-export         POST /v1/history/export")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
