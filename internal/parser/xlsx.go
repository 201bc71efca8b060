package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/KaramelBytes/pubsift-cli/internal/table"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Parse reads the selected sheet (first sheet by default). The first non-blank
// row is the header.
func (xlsxParser) Parse(content []byte, filename string, opt Options) (*table.Table, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	var wb struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"id,attr"`
		} `xml:"sheets>sheet"`
	}
	var rels struct {
		Items []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if _, err := unmarshalEntry(zr, "xl/workbook.xml", &wb); err != nil {
		return nil, err
	}
	if _, err := unmarshalEntry(zr, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		targets[r.ID] = normalizeRelPath(r.Target)
	}

	sheet := "xl/worksheets/sheet1.xml"
	if opt.SheetName != "" {
		names := make([]string, len(wb.Sheets))
		found := false
		for i, s := range wb.Sheets {
			names[i] = s.Name
			if !found && strings.EqualFold(s.Name, opt.SheetName) && targets[s.RID] != "" {
				sheet, found = targets[s.RID], true
			}
		}
		if !found {
			return nil, fmt.Errorf("sheet %q not found in workbook %s; available sheets: %s",
				opt.SheetName, path.Base(filename), strings.Join(names, ", "))
		}
	} else if len(wb.Sheets) > 0 && targets[wb.Sheets[0].RID] != "" {
		sheet = targets[wb.Sheets[0].RID]
	}

	shared, err := sharedStrings(zr)
	if err != nil {
		return nil, err
	}
	var ws struct {
		Rows []xlsxRow `xml:"sheetData>row"`
	}
	found, err := unmarshalEntry(zr, sheet, &ws)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("xlsx: worksheet %s missing", sheet)
	}

	var records [][]string
	for _, row := range ws.Rows {
		rec := row.values(shared)
		if isBlank(rec) {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read header: %w", ErrNoColumns)
	}
	return table.New(uniqueHeader(records[0]), records[1:]), nil
}

type xlsxText struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

// String joins plain and rich-text runs; phonetic hints are ignored.
func (x xlsxText) String() string {
	if len(x.Runs) == 0 {
		return x.T
	}
	var sb strings.Builder
	sb.WriteString(x.T)
	for _, r := range x.Runs {
		sb.WriteString(r.T)
	}
	return sb.String()
}

type xlsxRow struct {
	Cells []struct {
		Ref    string   `xml:"r,attr"`
		Type   string   `xml:"t,attr"`
		V      string   `xml:"v"`
		Inline xlsxText `xml:"is"`
	} `xml:"c"`
}

// values returns the row as a dense slice; cells skipped in the sheet come
// back as missing.
func (r xlsxRow) values(shared []string) []string {
	var out []string
	for _, c := range r.Cells {
		idx := len(out)
		if i := colIndexFromRef(c.Ref); i >= 0 {
			idx = i
		}
		for len(out) <= idx {
			out = append(out, "")
		}
		switch c.Type {
		case "s":
			if n, err := strconv.Atoi(strings.TrimSpace(c.V)); err == nil && n >= 0 && n < len(shared) {
				out[idx] = shared[n]
			}
		case "inlineStr":
			out[idx] = c.Inline.String()
		default:
			out[idx] = c.V
		}
	}
	return out
}

func sharedStrings(zr *zip.Reader) ([]string, error) {
	var sst struct {
		Items []xlsxText `xml:"si"`
	}
	if _, err := unmarshalEntry(zr, "xl/sharedStrings.xml", &sst); err != nil {
		return nil, err
	}
	out := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		out[i] = si.String()
	}
	return out, nil
}

// unmarshalEntry decodes the named zip entry into v. A missing entry leaves v
// untouched and reports found=false.
func unmarshalEntry(zr *zip.Reader, name string, v any) (found bool, err error) {
	f, err := zr.Open(name)
	if err != nil {
		return false, nil
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return true, fmt.Errorf("xlsx: read %s: %w", name, err)
	}
	if err := xml.Unmarshal(b, v); err != nil {
		return true, fmt.Errorf("xlsx: decode %s: %w", name, err)
	}
	return true, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// colIndexFromRef maps a cell reference like "C12" to a 0-based column, or
// -1 when the reference has no column letters.
func colIndexFromRef(ref string) int {
	idx := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1
}

// normalizeRelPath maps a relationship target to its zip entry name.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
