package exam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// PandocReader enables both $...$ and \(...\) math in HTML input.
const PandocReader = "html+tex_math_dollars+tex_math_single_backslash"

const maxStderr = 4 << 10

// CommandError carries the captured stderr of a failed external tool.
type CommandError struct {
	Tool   string
	Err    error
	Stderr string
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s failed: %v: %s", e.Tool, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// PandocServerConverter posts the document to a pandoc-server instance.
type PandocServerConverter struct {
	URL    string
	Media  *MediaResolver
	Client *http.Client
}

func (c *PandocServerConverter) Name() string       { return "pandoc-server" }
func (c *PandocServerConverter) MathMode() MathMode { return MathPassthrough }

type pandocServerRequest struct {
	Text         string            `json:"text"`
	From         string            `json:"from"`
	To           string            `json:"to"`
	Standalone   bool              `json:"standalone"`
	ResourcePath []string          `json:"resource-path,omitempty"`
	Files        map[string]string `json:"files,omitempty"`
}

type pandocServerResponse struct {
	Output   string `json:"output"`
	Base64   bool   `json:"base64"`
	Messages []struct {
		Verbosity string `json:"verbosity"`
		Message   string `json:"message"`
	} `json:"messages"`
}

func (c *PandocServerConverter) Convert(ctx context.Context, doc *Document, format Format) ([]byte, error) {
	if strings.TrimSpace(c.URL) == "" {
		return nil, fmt.Errorf("%w: no pandoc server configured", ErrUnavailable)
	}

	payload := pandocServerRequest{
		Text:       doc.HTML(),
		From:       PandocReader,
		To:         string(format),
		Standalone: true,
		Files:      c.localFiles(doc),
	}
	if c.Media != nil && c.Media.MediaRoot != "" {
		payload.ResourcePath = []string{c.Media.MediaRoot}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pandoc server request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pandoc server status %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(raw)), maxStderr))
	}

	var out pandocServerResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode pandoc server response: %w", err)
	}
	if !out.Base64 {
		return []byte(out.Output), nil
	}
	return base64.StdEncoding.DecodeString(out.Output)
}

// localFiles ships images that live under the media root, keyed by the src
// the document refers to them with.
func (c *PandocServerConverter) localFiles(doc *Document) map[string]string {
	if c.Media == nil {
		return nil
	}
	files := make(map[string]string)
	for _, src := range ImageSources(doc) {
		if !filepath.IsAbs(src) {
			continue
		}
		p, ok := c.Media.withinRoot(src)
		if !ok {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		files[src] = base64.StdEncoding.EncodeToString(data)
	}
	if len(files) == 0 {
		return nil
	}
	return files
}

// PandocCLIConverter runs the pandoc binary in a private temp directory.
type PandocCLIConverter struct {
	Binary       string
	ResourcePath string
	PDFEngine    string
}

func (c *PandocCLIConverter) Name() string       { return "pandoc-cli" }
func (c *PandocCLIConverter) MathMode() MathMode { return MathPassthrough }

func (c *PandocCLIConverter) Convert(ctx context.Context, doc *Document, format Format) ([]byte, error) {
	binary := c.Binary
	if binary == "" {
		binary = "pandoc"
	}
	bin, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not installed", ErrUnavailable, binary)
	}

	dir, err := os.MkdirTemp("", "exam-export-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.html")
	if err := os.WriteFile(input, []byte(doc.HTML()), 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}
	output := filepath.Join(dir, "output"+format.Extension())

	args := []string{"-f", PandocReader, "-s", "-o", output}
	if c.ResourcePath != "" {
		args = append(args, "--resource-path", c.ResourcePath)
	}
	if format == FormatPDF && c.PDFEngine != "" {
		args = append(args, "--pdf-engine="+c.PDFEngine)
	}
	args = append(args, input)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &CommandError{
			Tool:   "pandoc",
			Err:    err,
			Stderr: truncate(strings.TrimSpace(stderr.String()), maxStderr),
		}
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("read pandoc output: %w", err)
	}
	return data, nil
}

// PandocVersion returns the first line of `pandoc --version`.
func PandocVersion(ctx context.Context, binary string) (string, error) {
	if binary == "" {
		binary = "pandoc"
	}
	bin, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s not installed", ErrUnavailable, binary)
	}
	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return "", &CommandError{Tool: "pandoc", Err: err}
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}
