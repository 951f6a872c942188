// Package main regenerates the vendor-type table of the type normalizer
// from the Dremio "SQL data types" documentation page.
//
// Usage:
//
//	go run ./scripts/gentypes -in docs/dremio-data-types.html -out internal/dremio/types_table.go
//	go run ./scripts/gentypes -out internal/dremio/types_table.go
//
// Without -in the page is fetched from the live documentation site. Keep a
// saved copy of the page checked in so regeneration stays reproducible.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"go/format"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const typesURL = "https://docs.dremio.com/current/reference/sql/data-types/"

var (
	inFlag  = flag.String("in", "", "saved documentation HTML page (fetched from the live site when empty)")
	outFlag = flag.String("out", "internal/dremio/types_table.go", "output file path")
)

// canonicalByName maps each documented Dremio type name onto the canonical
// type model. Names scraped from the page that are missing here fail the
// generation, so a new documented type has to be classified explicitly.
var canonicalByName = map[string]string{
	"BIGINT":            "TypeBigint",
	"BOOLEAN":           "TypeBoolean",
	"DATE":              "TypeDate",
	"DECIMAL":           "TypeDecimal",
	"NUMERIC":           "TypeDecimal",
	"DOUBLE":            "TypeDouble",
	"DOUBLE PRECISION":  "TypeDouble",
	"FLOAT":             "TypeFloat",
	"REAL":              "TypeFloat",
	"INT":               "TypeInt",
	"INTEGER":           "TypeInt",
	"SMALLINT":          "TypeInt",
	"TINYINT":           "TypeInt",
	"INTERVAL":          "TypeInterval",
	"LIST":              "TypeList",
	"ARRAY":             "TypeList",
	"MAP":               "TypeMap",
	"STRUCT":            "TypeStruct",
	"ROW":               "TypeStruct",
	"TIME":              "TypeTime",
	"TIMESTAMP":         "TypeTimestamp",
	"VARBINARY":         "TypeVarbinary",
	"BINARY VARYING":    "TypeVarbinary",
	"VARCHAR":           "TypeVarchar",
	"CHAR":              "TypeVarchar",
	"CHARACTER":         "TypeVarchar",
	"CHARACTER VARYING": "TypeVarchar",
}

// alwaysPresent covers spellings INFORMATION_SCHEMA reports but the data
// types page does not list as headings of their own.
var alwaysPresent = []string{
	"ROW", "LIST", "STRUCT", "MAP",
	"CHARACTER VARYING", "BINARY VARYING", "DOUBLE PRECISION",
}

func main() {
	flag.Parse()

	body, err := loadPage(*inFlag)
	if err != nil {
		log.Fatalf("loading types page: %v", err)
	}

	names, err := parseTypesPage(body)
	if err != nil {
		log.Fatalf("parsing types page: %v", err)
	}
	names = append(names, alwaysPresent...)

	table, err := buildTable(names)
	if err != nil {
		log.Fatalf("classifying types: %v", err)
	}
	log.Printf("Extracted %d vendor types", len(table))

	writeFormattedCode(*outFlag, generateTableCode(table))
}

func loadPage(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}

	log.Printf("Fetching %s", typesURL)
	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, typesURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; dremiometa/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// parseTypesPage collects type names from the first column of every table
// on the page. Rows whose first cell is not a plain type name are skipped.
func parseTypesPage(body []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if name := typeNameFromRow(n); name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(names) == 0 {
		return nil, fmt.Errorf("no type rows found")
	}
	return names, nil
}

func typeNameFromRow(tr *html.Node) string {
	var firstCell *html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "td" {
			firstCell = c
			break
		}
	}
	if firstCell == nil {
		return ""
	}

	name := strings.ToUpper(strings.TrimSpace(extractText(firstCell)))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	// INTERVAL DAY TO SECOND and friends collapse onto INTERVAL; the
	// normalizer handles the qualifier by prefix.
	if strings.HasPrefix(name, "INTERVAL") {
		return "INTERVAL"
	}
	for _, r := range name {
		if (r < 'A' || r > 'Z') && r != ' ' {
			return ""
		}
	}
	return name
}

func extractText(n *html.Node) string {
	var buf bytes.Buffer
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func buildTable(names []string) (map[string]string, error) {
	table := make(map[string]string)
	for _, name := range names {
		canonical, ok := canonicalByName[name]
		if !ok {
			return nil, fmt.Errorf("unclassified vendor type %q", name)
		}
		table[name] = canonical
	}
	return table, nil
}

func generateTableCode(table map[string]string) string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("// Code generated by scripts/gentypes from the Dremio SQL data types\n")
	buf.WriteString("// documentation. DO NOT EDIT.\n\n")
	buf.WriteString("package dremio\n\n")
	buf.WriteString("import \"github.com/metalake-labs/dremiometa/pkg/meta\"\n\n")
	buf.WriteString("// vendorTypes maps uppercased Dremio type names, parameters stripped, to\n")
	buf.WriteString("// the canonical type model.\n")
	buf.WriteString("var vendorTypes = map[string]meta.DataType{\n")
	for _, k := range keys {
		fmt.Fprintf(&buf, "\t%q: meta.%s,\n", k, table[k])
	}
	buf.WriteString("}\n")
	return buf.String()
}

func writeFormattedCode(outPath, code string) {
	formatted, err := format.Source([]byte(code))
	if err != nil {
		log.Printf("Warning: failed to format generated code: %v", err)
		formatted = []byte(code)
	}
	if err := os.WriteFile(outPath, formatted, 0o600); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}
	log.Printf("Generated %s", outPath)
}
