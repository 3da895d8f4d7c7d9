package domain

// BlogPost is a CMS article surfaced by the blog endpoints. Excerpt is a
// plain-text reduction of Body used on list views; Body is omitted there.
type BlogPost struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	Body        string `json:"body,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}
