package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/TemirB/bazar/internal/domain"
)

const fieldCount = 5

// File is the flat record file: one "id,title,topic,quantity,price" line per
// item, no header, no quoting. A delimiter inside a field breaks that line; such
// lines are skipped on load.
type File struct {
	path string
}

func NewFile(path string) *File { return &File{path: path} }

func (f *File) Path() string { return f.path }

func (f *File) Load() ([]domain.Item, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", f.path, err)
	}
	items, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", f.path, err)
	}
	return items, nil
}

// Save rewrites the whole file, records ordered by id.
func (f *File) Save(items []domain.Item) error {
	return os.WriteFile(f.path, Format(items), 0o644)
}

// Parse reads every record in data. Line length is bounded only by the size of
// data; a scan error fails the whole parse so a partial table is never saved back.
func Parse(data []byte) ([]domain.Item, error) {
	var items []domain.Item
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), max(len(data)+1, bufio.MaxScanTokenSize))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		it, ok := parseLine(line)
		if !ok {
			continue
		}
		items = append(items, it)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func parseLine(line string) (domain.Item, bool) {
	p := strings.Split(line, ",")
	if len(p) != fieldCount {
		return domain.Item{}, false
	}
	qty, err := strconv.Atoi(strings.TrimSpace(p[3]))
	if err != nil {
		return domain.Item{}, false
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(p[4]), 64)
	if err != nil {
		return domain.Item{}, false
	}
	return domain.Item{
		ID:       strings.TrimSpace(p[0]),
		Title:    strings.TrimSpace(p[1]),
		Topic:    strings.TrimSpace(p[2]),
		Quantity: qty,
		Price:    price,
	}, true
}

func Format(items []domain.Item) []byte {
	sorted := append([]domain.Item(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var b bytes.Buffer
	for _, it := range sorted {
		b.WriteString(it.ID)
		b.WriteByte(',')
		b.WriteString(it.Title)
		b.WriteByte(',')
		b.WriteString(it.Topic)
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(it.Quantity))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(it.Price, 'f', -1, 64))
		b.WriteByte('\n')
	}
	return b.Bytes()
}
