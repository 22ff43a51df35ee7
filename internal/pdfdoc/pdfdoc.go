// Package pdfdoc abstracts a source document as an ordered sequence of pages
// supporting full-text and bounding-box text extraction. Coordinates are PDF
// points with the origin at the bottom-left corner, y increasing upward.
package pdfdoc

// Rect is a bounding box in page coordinate space.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// Page is one page of a source document.
type Page interface {
	// Text extracts the full plain text of the page.
	Text() string

	// TextInRect extracts the text whose anchor falls within the
	// bounding box, top-down and left-to-right.
	TextInRect(r Rect) string
}

// Document is an ordered sequence of pages, 0-indexed.
type Document interface {
	// Name returns the document's base filename.
	Name() string

	// Pages returns the document's pages in order.
	Pages() []Page

	// Close releases the underlying file.
	Close() error
}
