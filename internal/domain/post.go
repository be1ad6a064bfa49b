package domain

// DigestPost describes one blog post included in a digest email.
// It is built per request from blog content and never persisted.
type DigestPost struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	URL     string `json:"url"`
	Date    string `json:"date"`
}

// BlogPost is the front matter and body of a post in the content directory.
type BlogPost struct {
	Slug    string
	Title   string
	Date    string
	Excerpt string
	Tags    []string
	Draft   bool
	Body    string
}
