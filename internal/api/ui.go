package api

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vidbrief/internal/extractor"
)

var uiTemplates = template.Must(template.New("layout").Parse(`{{define "home"}}
<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>VidBrief</title>
  <style>
    body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,Cantarell,Noto Sans,sans-serif;max-width:880px;margin:32px auto;padding:0 16px;color:#0b0b0b;background:#fafafa}
    h1{font-size:22px;margin:0 0 8px}
    a{color:#0b63e5;text-decoration:none}
    .card{background:#fff;border:1px solid #e9e9e9;border-radius:10px;padding:16px;margin:12px 0}
    .row{display:flex;gap:12px}
    .btn{background:#0b63e5;color:#fff;border:none;padding:10px 14px;border-radius:8px;cursor:pointer}
    input[type=text]{padding:9px 10px;border:1px solid #dcdcdc;border-radius:8px;width:100%}
    .muted{color:#666}
    .mono{font-family:ui-monospace,SFMono-Regular,Menlo,Monaco,Consolas,monospace}
    .status{display:inline-block;padding:4px 8px;border-radius:6px;background:#efefef;font-size:12px}
    pre{white-space:pre-wrap;max-height:360px;overflow:auto}
  </style>
</head>
<body>
  <header>
    <h1><a href="/">VidBrief</a></h1>
    <div class="muted">Video info, transcripts and downloads</div>
  </header>

  {{if .Error}}
  <div class="card" style="border-color:#f2b8b5;background:#fff6f6">
    <strong style="color:#b3261e">Error:</strong> <span class="muted">{{.Error}}</span>
  </div>
  {{end}}

  <div class="card">
    <form method="post" action="/ui/info">
      <div class="row">
        <input type="text" name="url" placeholder="https://www.youtube.com/watch?v=..." value="{{.URL}}" required />
        <button class="btn" type="submit">Info</button>
        <button class="btn" type="submit" formaction="/ui/transcript">Transcript</button>
        <button class="btn" type="submit" formaction="/api/video/download">Download</button>
      </div>
    </form>
  </div>

  {{with .Info}}
  <div class="card">
    <h2>{{.Title}}</h2>
    {{if .Thumbnail}}<img src="{{.Thumbnail}}" alt="" style="max-width:320px"/>{{end}}
    <div class="muted">ID <span class="mono">{{.ID}}</span> · {{.DurationValue}}</div>
  </div>
  {{end}}

  {{if .Transcript}}
  <div class="card">
    <h3>Transcript</h3>
    <pre>{{.Transcript}}</pre>
  </div>
  {{end}}

  <div class="card">
    <h3>Download status</h3>
    {{with .Status}}
      {{if .Active}}
        <div>Active: <span class="mono">{{.URL}}</span></div>
        <div>Progress: <span class="status">{{printf "%.0f" .Progress}}% · {{.Stage}}</span></div>
      {{else}}
        <div class="muted">Idle</div>
      {{end}}
      {{with .Last}}
        <div class="muted">Last: {{.Result.Status}}{{if .Result.Filename}} · {{.Result.Filename}}{{end}}{{if .Result.Message}} · {{.Result.Message}}{{end}}</div>
      {{end}}
    {{end}}
    <div class="muted">GET /api/progress (event stream) · GET /api/process/status</div>
  </div>
</body>
</html>
{{end}}
`))

// RegisterUIRoutes registers minimal HTML UI without JS
func (a *API) RegisterUIRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(uiTemplates)
	router.GET("/", a.UIHome)
	router.POST("/ui/info", a.UIInfo)
	router.POST("/ui/transcript", a.UITranscript)
}

func (a *API) homeData(url string) gin.H {
	return gin.H{"URL": url, "Status": toStatusResponse(a.downloads.Status())}
}

// UIHome renders the home page
func (a *API) UIHome(c *gin.Context) { c.HTML(http.StatusOK, "home", a.homeData("")) }

// UIInfo renders video metadata for the submitted URL
func (a *API) UIInfo(c *gin.Context) {
	url := strings.TrimSpace(c.PostForm("url"))
	data := a.homeData(url)
	canonical, _, err := extractor.Canonicalize(url)
	if err != nil {
		data["Error"] = err.Error()
		c.HTML(http.StatusBadRequest, "home", data)
		return
	}
	info, err := a.extractor.Probe(c.Request.Context(), canonical)
	if err != nil {
		data["Error"] = err.Error()
		c.HTML(http.StatusBadGateway, "home", data)
		return
	}
	data["Info"] = info
	c.HTML(http.StatusOK, "home", data)
}

// UITranscript renders the transcript for the submitted URL
func (a *API) UITranscript(c *gin.Context) {
	url := strings.TrimSpace(c.PostForm("url"))
	data := a.homeData(url)
	text, err := a.transcripts.Get(c.Request.Context(), url)
	if err != nil {
		data["Error"] = err.Error()
		code := http.StatusBadGateway
		if errors.Is(err, extractor.ErrInvalidURL) {
			code = http.StatusBadRequest
		}
		c.HTML(code, "home", data)
		return
	}
	data["Transcript"] = text
	c.HTML(http.StatusOK, "home", data)
}
