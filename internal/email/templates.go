package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/agemilang/portfolio-api/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	templateContact = "contact.html"
	templateConfirm = "confirm.html"
	templateWelcome = "welcome.html"
	templateDigest  = "digest.html"
)

// Renderer turns template data into HTML bodies. html/template escapes every
// interpolated value, so names, messages and post content are safe to embed.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("email").
		Funcs(template.FuncMap{"longDate": longDate}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing email templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

type contactData struct {
	SiteName     string
	Name         string
	Email        string
	MessageLines []string
}

type confirmData struct {
	SiteName   string
	ConfirmURL string
}

type welcomeData struct {
	SiteName string
	SiteURL  string
}

type digestData struct {
	SiteName       string
	BlogURL        string
	Posts          []domain.DigestPost
	UnsubscribeURL string
}

func (r *Renderer) Contact(d contactData) (string, error) {
	return r.render(templateContact, d)
}

func (r *Renderer) Confirm(d confirmData) (string, error) {
	return r.render(templateConfirm, d)
}

func (r *Renderer) Welcome(d welcomeData) (string, error) {
	return r.render(templateWelcome, d)
}

func (r *Renderer) Digest(d digestData) (string, error) {
	return r.render(templateDigest, d)
}

func (r *Renderer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// splitLines breaks free text on newlines so the template can join the
// escaped pieces with <br>.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// longDate formats post dates like "January 2, 2006". Unparseable values are
// shown as-is.
func longDate(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return s
}
