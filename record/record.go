// Package record persists tagging results as JSON lines and reads them back
// to resume interrupted runs.
package record

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type Record struct {
	ImagePath string   `json:"image_path"`
	Tags      []string `json:"tags"`
	Caption   string   `json:"caption"`
}

// New wraps a tag list for imagePath with an empty caption.
func New(imagePath string, tags []string) Record {
	if tags == nil {
		tags = []string{}
	}
	return Record{ImagePath: NormalizePath(imagePath), Tags: tags}
}

// NormalizePath turns p into the resume key form: forward slashes, cleaned,
// NFC-composed.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	return norm.NFC.String(p)
}

// Seen is the set of image paths already present in an output file.
type Seen map[string]struct{}

func (s Seen) Has(imagePath string) bool {
	_, ok := s[NormalizePath(imagePath)]
	return ok
}

func (s Seen) Add(imagePath string) {
	s[NormalizePath(imagePath)] = struct{}{}
}

// LoadSeen reads the image paths of every decodable line in the JSONL file at
// p. A missing file yields an empty set. The second return value counts lines
// that could not be decoded.
func LoadSeen(p string) (Seen, int, error) {
	seen := Seen{}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return seen, 0, nil
		}
		return nil, 0, err
	}
	defer f.Close()

	bad := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.ImagePath == "" {
			bad++
			continue
		}
		seen.Add(rec.ImagePath)
	}
	if err := sc.Err(); err != nil {
		return nil, bad, err
	}
	return seen, bad, nil
}
