package handler

import (
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var statusPage = template.Must(template.New("status").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>JagX Bot Pairing Server</title></head>
<body>
  <h2>JagX Bot Pairing Server is running.</h2>
  <div>
    <strong>Auto Pairing Code:</strong> {{.Code}} <br/>
    <strong>Expires:</strong> {{.Expires}} <br/>
    {{if .HasQR}}<img src="{{.QRPath}}" width="200" />{{end}}
    <br>
    <a href="/auto-pair">API: /auto-pair</a>
  </div>
</body>
</html>
`))

type statusView struct {
	Code    string
	Expires string
	HasQR   bool
	QRPath  string
}

// StatusPage handles GET /, a human-readable view of the current pairing.
func (h *Handler) StatusPage(w http.ResponseWriter, r *http.Request) {
	d, err := h.auth.Describe(r.Context())
	if err != nil {
		h.internalError(w, "describe pairing", err)
		return
	}
	view := statusView{Code: "N/A", Expires: "N/A", HasQR: d.HasQR, QRPath: QRPath}
	if d.Present() {
		view.Code = d.Code
		view.Expires = formatExpiry(d.ExpiresAt)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusPage.Execute(w, view); err != nil {
		h.log.Error("render status page", zap.Error(err))
	}
}

// formatExpiry renders an expiry in RFC 1123 GMT form (e.g. "Sun, 01 Mar 2026 12:00:00 GMT").
func formatExpiry(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
