package export

// Table is tabular export content. Rows are keyed by header.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Renderer turns a table into a downloadable document.
type Renderer interface {
	Render(data Table, title string) ([]byte, error)
	ContentType() string
	Extension() string
}
