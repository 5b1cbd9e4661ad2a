package export

import "fmt"

// Format names a supported output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Renderer encodes a dataset into a file body.
type Renderer interface {
	Format() Format
	ContentType() string
	Render(Dataset) ([]byte, error)
}

// Registry resolves renderers by format.
type Registry struct {
	renderers map[Format]Renderer
}

// NewRegistry indexes the given renderers by their format.
func NewRegistry(renderers ...Renderer) *Registry {
	reg := &Registry{renderers: make(map[Format]Renderer, len(renderers))}
	for _, r := range renderers {
		reg.renderers[r.Format()] = r
	}
	return reg
}

// DefaultRegistry returns csv, xlsx and pdf renderers.
func DefaultRegistry() *Registry {
	return NewRegistry(NewCSVExporter(), NewXLSXExporter(), NewPDFExporter())
}

// Lookup returns the renderer for format.
func (r *Registry) Lookup(format Format) (Renderer, error) {
	renderer, ok := r.renderers[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	return renderer, nil
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}
