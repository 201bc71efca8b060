package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WriteCSV serializes t as comma-separated UTF-8 with a leading byte-order
// mark and a header row, the format spreadsheet tools expect.
func WriteCSV(w io.Writer, t *Table) error {
	enc := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(enc)
	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range t.rows {
		if err := cw.Write(r); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return enc.Close()
}

// CSVBytes is WriteCSV into memory.
func CSVBytes(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteText renders t as an aligned text grid. maxRows <= 0 prints every
// row; maxWidth <= 0 leaves cells untruncated.
func WriteText(w io.Writer, t *Table, maxRows, maxWidth int) error {
	rows := t.rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	widths := make([]int, len(t.columns))
	clip := func(s string) string {
		s = strings.ReplaceAll(strings.ReplaceAll(s, "\r", " "), "\n", " ")
		if maxWidth > 0 && utf8.RuneCountInString(s) > maxWidth {
			r := []rune(s)
			if maxWidth > 3 {
				return string(r[:maxWidth-3]) + "..."
			}
			return string(r[:maxWidth])
		}
		return s
	}
	for i, c := range t.columns {
		widths[i] = utf8.RuneCountInString(clip(c))
	}
	for _, r := range rows {
		for i, v := range r {
			if n := utf8.RuneCountInString(clip(v)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	line := func(cells []string) string {
		var b strings.Builder
		for i, v := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			v = clip(v)
			b.WriteString(v)
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(v)))
			}
		}
		b.WriteString("\n")
		return b.String()
	}
	if _, err := io.WriteString(w, line(t.columns)); err != nil {
		return err
	}
	sep := make([]string, len(widths))
	for i, n := range widths {
		sep[i] = strings.Repeat("-", n)
	}
	if _, err := io.WriteString(w, line(sep)); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := io.WriteString(w, line(r)); err != nil {
			return err
		}
	}
	return nil
}
