package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	DefaultLinkColumn   = "job_link"
	DefaultSkillsColumn = "job_skills"
)

// ErrCorpusUnavailable is returned when the dataset cannot be read or parsed.
var ErrCorpusUnavailable = errors.New("corpus unavailable")

// JobPosting is a single row of the reference dataset.
type JobPosting struct {
	// Index is the row position among the kept postings.
	Index  int
	Link   string
	Skills string
}

// Columns names the CSV header fields holding the link and the skills text.
type Columns struct {
	Link   string `mapstructure:"link-column"`
	Skills string `mapstructure:"skills-column"`
}

func (c Columns) withDefaults() Columns {
	if strings.TrimSpace(c.Link) == "" {
		c.Link = DefaultLinkColumn
	}
	if strings.TrimSpace(c.Skills) == "" {
		c.Skills = DefaultSkillsColumn
	}
	return c
}

// Version identifies the file a corpus was loaded from.
type Version struct {
	Size    int64
	ModTime time.Time
}

func (v Version) Equal(other Version) bool {
	return v.Size == other.Size && v.ModTime.Equal(other.ModTime)
}

func (v Version) String() string {
	if v.ModTime.IsZero() {
		return fmt.Sprintf("%d", v.Size)
	}
	return fmt.Sprintf("%d-%d", v.Size, v.ModTime.UnixNano())
}

// Corpus is an immutable, ordered snapshot of job postings.
type Corpus struct {
	Source   string
	Version  Version
	LoadedAt time.Time
	// Dropped counts rows excluded for blank skills text.
	Dropped int

	postings []JobPosting
}

// New builds a corpus from postings, dropping the ones without skills text.
func New(source string, postings []JobPosting) *Corpus {
	c := &Corpus{Source: source, LoadedAt: time.Now().UTC()}
	for _, p := range postings {
		c.add(p.Link, p.Skills)
	}
	return c
}

func (c *Corpus) add(link, skills string) {
	if strings.TrimSpace(skills) == "" {
		c.Dropped++
		return
	}
	c.postings = append(c.postings, JobPosting{
		Index:  len(c.postings),
		Link:   strings.TrimSpace(link),
		Skills: skills,
	})
}

// Postings returns a copy of the postings in corpus order.
func (c *Corpus) Postings() []JobPosting {
	if c == nil {
		return nil
	}
	out := make([]JobPosting, len(c.postings))
	copy(out, c.postings)
	return out
}

func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.postings)
}

// Load reads the CSV dataset at path.
func Load(path string, columns Columns) (*Corpus, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorpusUnavailable, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorpusUnavailable, err)
	}

	c, err := Read(file, columns)
	if err != nil {
		return nil, err
	}

	c.Source = path
	c.Version = Version{Size: stat.Size(), ModTime: stat.ModTime()}
	return c, nil
}

// Read parses CSV data with a header row from r.
func Read(r io.Reader, columns Columns) (*Corpus, error) {
	columns = columns.withDefaults()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header row", ErrCorpusUnavailable)
		}
		return nil, fmt.Errorf("%w: reading header: %w", ErrCorpusUnavailable, err)
	}

	linkIdx, skillsIdx := -1, -1
	for i, name := range header {
		// Excel exports prepend a BOM to the first header cell.
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch name {
		case columns.Link:
			linkIdx = i
		case columns.Skills:
			skillsIdx = i
		}
	}

	if linkIdx == -1 {
		return nil, fmt.Errorf("%w: column %q not found", ErrCorpusUnavailable, columns.Link)
	}
	if skillsIdx == -1 {
		return nil, fmt.Errorf("%w: column %q not found", ErrCorpusUnavailable, columns.Skills)
	}

	c := &Corpus{LoadedAt: time.Now().UTC()}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorpusUnavailable, err)
		}

		c.add(cell(record, linkIdx), cell(record, skillsIdx))
	}

	return c, nil
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}
