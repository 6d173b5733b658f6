package platform

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ytget/web-grabber/internal/model"
)

// Export file markers
const (
	ExportCommentPrefix = "#"
	ExportDirPrefix     = "./"
)

// WriteExportFile writes links one per line, grouped under a "# ./<dir>"
// header per category in table order. Categories without links are omitted.
func WriteExportFile(filename string, links []model.FileLink) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	grouped := make(map[model.Category][]model.FileLink)
	for _, link := range links {
		grouped[link.Category] = append(grouped[link.Category], link)
	}

	first := true
	for _, category := range model.Categories() {
		group := grouped[category]
		if len(group) == 0 {
			continue
		}
		if !first {
			if _, err := writer.WriteString("\n"); err != nil {
				return err
			}
		}
		first = false

		header := fmt.Sprintf("%s %s%s\n", ExportCommentPrefix, ExportDirPrefix, CategorySubdirs[category])
		if _, err := writer.WriteString(header); err != nil {
			return err
		}
		for _, link := range group {
			if _, err := writer.WriteString(link.URL + "\n"); err != nil {
				return err
			}
		}
	}

	return writer.Flush()
}

// ReadExportFile reads a file produced by WriteExportFile. A "# ./<dir>"
// header sets the category of the URLs that follow; URLs before any header,
// or under an unknown header, are classified from their extension.
func ReadExportFile(filename string) ([]model.FileLink, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dirToCategory := make(map[string]model.Category, len(CategorySubdirs))
	for category, dir := range CategorySubdirs {
		dirToCategory[dir] = category
	}

	var (
		links   []model.FileLink
		current model.Category
	)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ExportCommentPrefix) {
			dir := strings.TrimSpace(strings.TrimPrefix(line, ExportCommentPrefix))
			dir = strings.TrimSuffix(strings.TrimPrefix(dir, ExportDirPrefix), "/")
			current = dirToCategory[dir]
			continue
		}

		if !IsValidURL(line) {
			continue
		}

		category := current
		if category == "" {
			category = model.Classify(line)
		}
		links = append(links, model.FileLink{URL: line, Category: category})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return links, nil
}
