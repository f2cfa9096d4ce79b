package format

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Tabular is implemented by CLI payloads that have a table rendering.
type Tabular interface {
	TableHeader() []string
	TableRows() [][]string
}

// Rows is a ready-made Tabular.
type Rows struct {
	Header []string   `json:"header"`
	Data   [][]string `json:"rows"`
}

func (r Rows) TableHeader() []string { return r.Header }
func (r Rows) TableRows() [][]string { return r.Data }

func WriteTable(w io.Writer, t Tabular) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault

	header := t.TableHeader()
	hr := make(table.Row, len(header))
	for i, h := range header {
		hr[i] = h
	}
	tw.AppendHeader(hr)
	for _, row := range t.TableRows() {
		r := make(table.Row, len(row))
		for i, c := range row {
			r[i] = c
		}
		tw.AppendRow(r)
	}
	tw.Render()
	return nil
}
