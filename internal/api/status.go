package api

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type statusText struct {
	Title   string
	Message string
}

type statusDictionary struct {
	Confirmed    statusText
	Unsubscribed statusText
	Error        statusText
	GoToBlog     string
}

var statusDictionaries = map[string]statusDictionary{
	"en": {
		Confirmed:    statusText{"Subscription confirmed", "Thanks for confirming. You'll get an email when new posts are published."},
		Unsubscribed: statusText{"You've been unsubscribed", "You won't receive any more newsletter emails."},
		Error:        statusText{"Something went wrong", "We couldn't process your request. Please try again."},
		GoToBlog:     "Go to blog",
	},
	"id": {
		Confirmed:    statusText{"Langganan dikonfirmasi", "Terima kasih telah mengonfirmasi. Anda akan menerima email saat ada tulisan baru."},
		Unsubscribed: statusText{"Anda telah berhenti berlangganan", "Anda tidak akan menerima email newsletter lagi."},
		Error:        statusText{"Terjadi kesalahan", "Permintaan Anda tidak dapat diproses. Silakan coba lagi."},
		GoToBlog:     "Ke blog",
	},
}

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body style="font-family: Arial, sans-serif; background: #fafafa;">
<main style="max-width: 28rem; margin: 6rem auto; padding: 2rem; border-radius: 8px; border: 1px solid #e5e5e5; background: {{.Background}}; text-align: center;">
<h1 style="font-size: 1.5rem;">{{.Title}}</h1>
<p style="color: #666;">{{.Message}}</p>
<p><a href="/{{.Lang}}/blogs" style="color: #0070f3;">{{.GoToBlog}}</a></p>
</main>
</body>
</html>
`))

type statusPageData struct {
	Lang       string
	Title      string
	Message    string
	GoToBlog   string
	Background template.CSS
}

// StatusPageHandler renders the landing page for confirm and unsubscribe
// redirects. Unknown types render as errors.
func StatusPageHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := chi.URLParam(r, "lang")
		dict, ok := statusDictionaries[lang]
		if !ok {
			lang = "en"
			dict = statusDictionaries[lang]
		}

		q := r.URL.Query()
		data := statusPageData{Lang: lang, GoToBlog: dict.GoToBlog}
		switch q.Get("type") {
		case "confirmed":
			data.Title, data.Message = dict.Confirmed.Title, dict.Confirmed.Message
			data.Background = "#f0fdf4"
		case "unsubscribed":
			data.Title, data.Message = dict.Unsubscribed.Title, dict.Unsubscribed.Message
			data.Background = "#fefce8"
		default:
			data.Title, data.Message = dict.Error.Title, dict.Error.Message
			if msg := q.Get("message"); msg != "" {
				data.Message = msg
			}
			data.Background = "#fef2f2"
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := statusPage.Execute(w, data); err != nil {
			logger.Error("render status page", "error", err)
		}
	}
}
