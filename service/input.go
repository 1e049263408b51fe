package service

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoArticles means the input file held no article codes.
var ErrNoArticles = errors.New("input file has no article codes")

// ReadArticles loads article codes from the input file. An .xlsx input
// must carry an "article" column; anything else is read as plain text,
// one code per line. Blank entries are dropped, duplicates are kept.
func ReadArticles(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readArticlesXLSX(path)
	}
	return readArticlesText(path)
}

func readArticlesXLSX(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open input workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read input sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoArticles
	}

	articleCol := -1
	for i, header := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(header), "article") {
			articleCol = i
			break
		}
	}
	if articleCol < 0 {
		return nil, fmt.Errorf("input file %s has no %q column", filepath.Base(path), "article")
	}

	var articles []string
	for _, row := range rows[1:] {
		if articleCol >= len(row) {
			continue
		}
		if article := strings.TrimSpace(row[articleCol]); article != "" {
			articles = append(articles, article)
		}
	}
	if len(articles) == 0 {
		return nil, ErrNoArticles
	}
	return articles, nil
}

func readArticlesText(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var articles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		article := strings.TrimSpace(scanner.Text())
		if article == "" || strings.EqualFold(article, "article") {
			continue
		}
		articles = append(articles, article)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	if len(articles) == 0 {
		return nil, ErrNoArticles
	}
	return articles, nil
}
