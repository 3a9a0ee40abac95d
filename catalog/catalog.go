package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrDuplicateID   = errors.New("duplicate tag id")
	ErrDuplicateName = errors.New("duplicate tag name")
)

// Entry is one row of the tag catalog. The row position matches the index of
// the tag's score in the model output.
type Entry struct {
	ID       int
	Name     string
	Category int
}

// Catalog is the immutable id <-> name registry with its validity subset.
type Catalog struct {
	entries  []Entry
	rowByID  map[int]int
	idByName map[string]int
	valid    map[int]struct{}
}

// New builds a catalog in which every entry is valid.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries:  slices.Clone(entries),
		rowByID:  make(map[int]int, len(entries)),
		idByName: make(map[string]int, len(entries)),
		valid:    make(map[int]struct{}, len(entries)),
	}
	var errs []error
	for row, e := range c.entries {
		if _, ok := c.rowByID[e.ID]; ok {
			errs = append(errs, fmt.Errorf("%w: %d (row %d)", ErrDuplicateID, e.ID, row))
			continue
		}
		if _, ok := c.idByName[e.Name]; ok {
			errs = append(errs, fmt.Errorf("%w: %q (row %d)", ErrDuplicateName, e.Name, row))
			continue
		}
		c.rowByID[e.ID] = row
		c.idByName[e.Name] = e.ID
		c.valid[e.ID] = struct{}{}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// WithCategories returns a catalog sharing c's entries whose valid set only
// holds entries of the given categories. An empty list keeps everything valid.
func (c *Catalog) WithCategories(categories []int) *Catalog {
	if len(categories) == 0 {
		return c
	}
	valid := make(map[int]struct{}, len(c.entries))
	for _, e := range c.entries {
		if slices.Contains(categories, e.Category) {
			valid[e.ID] = struct{}{}
		}
	}
	return &Catalog{
		entries:  c.entries,
		rowByID:  c.rowByID,
		idByName: c.idByName,
		valid:    valid,
	}
}

// Len returns the number of catalog rows, which is also the expected length of
// a dense score vector.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// At returns the entry at row i.
func (c *Catalog) At(i int) Entry {
	return c.entries[i]
}

func (c *Catalog) Name(id int) (string, bool) {
	row, ok := c.rowByID[id]
	if !ok {
		return "", false
	}
	return c.entries[row].Name, true
}

func (c *Catalog) ID(name string) (int, bool) {
	id, ok := c.idByName[name]
	return id, ok
}

func (c *Catalog) Has(id int) bool {
	_, ok := c.rowByID[id]
	return ok
}

func (c *Catalog) Valid(id int) bool {
	_, ok := c.valid[id]
	return ok
}

// ValidCount returns the size of the valid subset.
func (c *Catalog) ValidCount() int {
	return len(c.valid)
}

// LoadCSV reads a catalog file in the selected_tags.csv layout
// (tag_id,name[,category[,count]]). A header row is optional; when present the
// columns are located by name.
func LoadCSV(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	idCol, nameCol, catCol := 0, 1, 2
	var entries []Entry
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if line == 1 && isHeader(rec) {
			idCol, nameCol, catCol = -1, -1, -1
			for i, h := range rec {
				switch strings.ToLower(strings.TrimSpace(h)) {
				case "tag_id", "id":
					idCol = i
				case "name", "tag":
					nameCol = i
				case "category":
					catCol = i
				}
			}
			if idCol < 0 || nameCol < 0 {
				return nil, errors.New("csv header must contain tag_id and name columns")
			}
			continue
		}
		if len(rec) <= max(idCol, nameCol) {
			return nil, fmt.Errorf("line %d: expected at least %d columns, got %d", line, max(idCol, nameCol)+1, len(rec))
		}
		id, err := strconv.Atoi(strings.TrimSpace(rec[idCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid tag id %q", line, rec[idCol])
		}
		name := strings.TrimSpace(rec[nameCol])
		if name == "" {
			return nil, fmt.Errorf("line %d: empty tag name", line)
		}
		e := Entry{ID: id, Name: name}
		if catCol >= 0 && catCol < len(rec) && strings.TrimSpace(rec[catCol]) != "" {
			e.Category, err = strconv.Atoi(strings.TrimSpace(rec[catCol]))
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid category %q", line, rec[catCol])
			}
		}
		entries = append(entries, e)
	}
	return New(entries)
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSpace(rec[0]))
	return err != nil
}
