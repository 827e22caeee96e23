package handlers

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/application/tags"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/transport/http/response"
)

type PagesHandler struct {
	logFile  string
	readFile func(string) ([]byte, error)
}

func NewPagesHandler(logFile string) *PagesHandler {
	return &PagesHandler{logFile: logFile, readFile: os.ReadFile}
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

// Index serves the campaign form. The script posts the eight fields as JSON
// and alerts Created or Failed from the response status.
func (h *PagesHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, indexHTML)
}

// Logs returns the service log file as plain text.
func (h *PagesHandler) Logs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.logFile == "" {
		_, _ = io.WriteString(w, "Log file not found.")
		return
	}
	b, err := h.readFile(h.logFile)
	if errors.Is(err, fs.ErrNotExist) {
		_, _ = io.WriteString(w, "Log file not found.")
		return
	}
	if err != nil {
		response.Err(w, r, err)
		return
	}
	_, _ = w.Write(b)
}

func (h *PagesHandler) Tags(w http.ResponseWriter, r *http.Request) {
	response.Data(w, http.StatusOK, tags.Supported)
}

const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Campaigns</title>
</head>
<body>
<h3>New campaign</h3>
<nav><a href="/api/dashboard">dashboard</a> | <a href="/api/campaigns">campaigns</a> | <a href="/history">history</a> | <a href="/tags">tags</a> | <a href="/logs">logs</a></nav>
<form id="campaign-form">
  <p><label>Name <input id="name" type="text"></label></p>
  <p><label>Recipients (one per line)<br><textarea id="recipients" rows="6" cols="60"></textarea></label></p>
  <p><label>Subjects (one per line)<br><textarea id="subjects" rows="3" cols="60"></textarea></label></p>
  <p><label>Plain body<br><textarea id="body_plain" rows="6" cols="60"></textarea></label></p>
  <p><label>HTML body<br><textarea id="body_html" rows="6" cols="60"></textarea></label></p>
  <p><label>HTML template<br><textarea id="html_template" rows="6" cols="60"></textarea></label></p>
  <p><label>Sender name <input id="sender_name" type="text"></label></p>
  <p><label>Sender email <input id="sender_email" type="email"></label></p>
  <p><button id="create" type="submit">Create</button></p>
</form>
<script>
document.getElementById('campaign-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const data = {};
  for (const id of ['name', 'recipients', 'subjects', 'body_plain', 'body_html', 'html_template', 'sender_name', 'sender_email']) {
    data[id] = document.getElementById(id).value;
  }
  try {
    const res = await fetch('/create_campaign', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify(data)
    });
    alert(res.ok ? 'Created' : 'Failed');
  } catch (err) {
    alert('Failed');
  }
});
</script>
</body>
</html>
`
