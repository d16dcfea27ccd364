package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/manash/bizforge/pkg/models"
)

// Item is one workflow invocation in a batch.
type Item struct {
	Index  int
	Kind   models.Kind
	Inputs models.Inputs
}

type fileItem struct {
	Kind          string `json:"kind" yaml:"kind"`
	models.Inputs `yaml:",inline"`
}

// ParseFile reads a job file. JSON and YAML files hold a list of
// {kind, inputs...} objects; text files hold one chat message per line.
func ParseFile(path string) ([]Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return ParseJSON(file)
	case ".yaml", ".yml":
		return ParseYAML(file)
	case ".txt", "":
		return ParseText(file)
	default:
		return nil, fmt.Errorf("unsupported file format %q: use .json, .yaml or .txt", ext)
	}
}

func ParseText(r io.Reader) ([]Item, error) {
	var items []Item
	scanner := bufio.NewScanner(r)
	index := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		index++
		items = append(items, Item{
			Index:  index,
			Kind:   models.KindChat,
			Inputs: models.Inputs{Message: line},
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no jobs found in file")
	}

	return items, nil
}

func ParseJSON(r io.Reader) ([]Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var fileItems []fileItem
	if err := json.Unmarshal(data, &fileItems); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return toItems(fileItems)
}

func ParseYAML(r io.Reader) ([]Item, error) {
	var fileItems []fileItem
	if err := yaml.NewDecoder(r).Decode(&fileItems); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("no jobs found in file")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return toItems(fileItems)
}

func toItems(fileItems []fileItem) ([]Item, error) {
	if len(fileItems) == 0 {
		return nil, fmt.Errorf("no jobs found in file")
	}

	items := make([]Item, len(fileItems))
	for i, fi := range fileItems {
		if strings.TrimSpace(fi.Kind) == "" {
			return nil, fmt.Errorf("item %d has no kind", i+1)
		}
		kind, err := models.ParseKind(fi.Kind)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		items[i] = Item{
			Index:  i + 1,
			Kind:   kind,
			Inputs: fi.Inputs,
		}
	}
	return items, nil
}

// KitItems is the brand starter kit: names, a design system, and launch
// copy for one brand.
func KitItems(in models.Inputs) []Item {
	kinds := []models.Kind{models.KindBrandName, models.KindDesign, models.KindContent}
	items := make([]Item, len(kinds))
	for i, k := range kinds {
		items[i] = Item{Index: i + 1, Kind: k, Inputs: in}
	}
	return items
}
