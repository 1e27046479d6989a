// Package calibre shells out to the calibredb and ebook-convert binaries and
// parses the stdout conventions they print results with.
package calibre

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ErrAddFailed reports that calibredb ran but never printed an added id.
var ErrAddFailed = errors.New("calibredb reported no added book id")

const (
	addedIDsMarker    = "Added book ids: "
	outputSavedMarker = "Output saved to "
)

var (
	formatsHeaderRE = regexp.MustCompile(`^(Fail|id +title|id +formats)`)
	formatsIDRE     = regexp.MustCompile(`^(\d+) +`)
	formatTokenRE   = regexp.MustCompile(`\.[a-z]+\b`)
)

// Client invokes the Calibre command line tools at fixed binary paths.
type Client struct {
	calibredb    string
	ebookConvert string
}

// NewClient returns a Client using the given binary paths.
func NewClient(calibredbPath, ebookConvertPath string) *Client {
	return &Client{calibredb: calibredbPath, ebookConvert: ebookConvertPath}
}

// List returns the raw text of `calibredb list`, the catalog listing the
// engine parses.
func (c *Client) List(ctx context.Context) (string, error) {
	stdout, stderr, err := c.run(ctx, c.calibredb, "list")
	if err != nil {
		return "", fmt.Errorf("failed to list catalog: %w: %s", err, firstLine(stderr))
	}
	return stdout, nil
}

// Add imports the file at path as a new book and returns the id calibredb
// assigned, parsed from its "Added book ids:" line.
func (c *Client) Add(ctx context.Context, path string) (int, error) {
	stdout, stderr, err := c.run(ctx, c.calibredb, "add", path)
	if err != nil {
		return 0, fmt.Errorf("failed to add %s: %w: %s", path, err, firstLine(stderr))
	}
	id, ok := parseAddedID(stdout)
	if !ok {
		return 0, fmt.Errorf("failed to add %s: %w", path, ErrAddFailed)
	}
	return id, nil
}

// AddFormat attaches the file at path as an additional format of book id.
func (c *Client) AddFormat(ctx context.Context, id int, path string) error {
	_, stderr, err := c.run(ctx, c.calibredb, "add_format", strconv.Itoa(id), strings.TrimSpace(path))
	if err != nil {
		return fmt.Errorf("failed to add format %s to book %d: %w: %s", path, id, err, firstLine(stderr))
	}
	return nil
}

// Formats lists the format extensions currently stored for book id, located
// by searching for its title.
func (c *Client) Formats(ctx context.Context, id int, title string) ([]string, error) {
	stdout, stderr, err := c.run(ctx, c.calibredb, "list", "-s", title, "-f", "formats")
	if err != nil {
		return nil, fmt.Errorf("failed to list formats of book %d: %w: %s", id, err, firstLine(stderr))
	}
	return parseFormats(stdout, id), nil
}

// Convert runs ebook-convert from src to dst and returns the output path it
// reports. The "Output saved to" line decides success; exit codes alone do
// not.
func (c *Client) Convert(ctx context.Context, src, dst string) (string, error) {
	stdout, stderr, err := c.run(ctx, c.ebookConvert, src, dst)
	if out, ok := parseConvertOutput(stdout); ok {
		return out, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to convert %s: %w: %s", src, err, firstLine(stderr))
	}
	return "", fmt.Errorf("failed to convert %s: no output reported", src)
}

func (c *Client) run(ctx context.Context, bin string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// parseAddedID extracts the first id from calibredb's added-ids line.
func parseAddedID(stdout string) (int, bool) {
	i := strings.Index(stdout, addedIDsMarker)
	if i < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(stdout[i+len(addedIDsMarker):])
	j := 0
	for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
		j++
	}
	if j == 0 {
		return 0, false
	}
	id, err := strconv.Atoi(rest[:j])
	if err != nil {
		return 0, false
	}
	return id, true
}

// parseFormats pulls format extensions out of the formats listing: the line
// opening record id plus its continuation lines, scanned for dot-prefixed
// lowercase tokens.
func parseFormats(raw string, id int) []string {
	var matched strings.Builder
	found := false
	for _, line := range strings.Split(raw, "\n") {
		if formatsHeaderRE.MatchString(line) {
			continue
		}
		m := formatsIDRE.FindStringSubmatch(line)
		if m == nil {
			if found {
				matched.WriteString(line)
			}
			continue
		}
		if found {
			break
		}
		if lineID, err := strconv.Atoi(m[1]); err == nil && lineID == id {
			found = true
			matched.WriteString(line[len(m[0]):])
		}
	}
	var formats []string
	for _, tok := range formatTokenRE.FindAllString(matched.String(), -1) {
		formats = append(formats, strings.TrimPrefix(tok, "."))
	}
	return formats
}

// parseConvertOutput finds the path after ebook-convert's success marker.
func parseConvertOutput(stdout string) (string, bool) {
	for _, line := range strings.Split(stdout, "\n") {
		if i := strings.Index(line, outputSavedMarker); i >= 0 {
			return strings.TrimSpace(line[i+len(outputSavedMarker):]), true
		}
	}
	return "", false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
