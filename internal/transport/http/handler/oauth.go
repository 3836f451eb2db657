package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/vetgate/internal/application/oauthflow"
)

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Body}}</p>
{{if .ApplyURL}}<p><a href="{{.ApplyURL}}">Apply for membership</a></p>{{end}}
<p>You can close this window and return to Discord.</p>
</body>
</html>
`))

type pageData struct {
	Title    string
	Body     string
	ApplyURL string
}

// OAuthHandler completes the delegated-authorization leg of verification and
// renders a small HTML result page for the browser.
type OAuthHandler struct {
	svc      *oauthflow.Service
	applyURL string
}

func NewOAuthHandler(svc *oauthflow.Service, applyURL string) *OAuthHandler {
	return &OAuthHandler{svc: svc, applyURL: applyURL}
}

func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.render(w, pageData{
			Title: "Verification incomplete",
			Body:  "No authorization code was provided. Please restart verification from Discord.",
		})
		return
	}

	res := h.svc.Complete(r.Context(), code)
	switch res.State {
	case oauthflow.StateVerified:
		h.render(w, pageData{
			Title: "You're verified!",
			Body:  "Your membership was confirmed and your roles have been assigned.",
		})
	case oauthflow.StateNotFound:
		h.render(w, pageData{
			Title:    "Not found",
			Body:     "Your email address was not found in the list of members.",
			ApplyURL: h.applyURL,
		})
	default:
		h.render(w, pageData{
			Title: "Something went wrong",
			Body:  "We couldn't complete verification right now. Please try again in a few minutes.",
		})
	}
}

func (h *OAuthHandler) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := resultPage.Execute(w, data); err != nil {
		slog.Error("rendering result page", "error", err)
	}
}
