package errors

import (
	"bytes"
	"html/template"
	"net/http"
)

// PageData carries the fields rendered on the built-in diagnostic page.
type PageData struct {
	Status     int
	StatusText string
	Resource   string
	Message    string
	StackTrace string
}

// ErrorPage renders the built-in diagnostic page for a status code. It is the
// fallback used when no error handler is registered for the status, and the
// unconditional fallback when a custom error handler fails itself. A nil err
// and empty stack degrade to the status line and resource path only.
func ErrorPage(status int, resource string, err error, stack string) []byte {
	data := PageData{
		Status:     status,
		StatusText: http.StatusText(status),
		Resource:   resource,
		StackTrace: stack,
	}
	if data.StatusText == "" {
		data.StatusText = "Unknown Status"
	}
	if err != nil {
		data.Message = err.Error()
	}

	var buf bytes.Buffer
	if execErr := pageTemplate.Execute(&buf, data); execErr != nil {
		// Template failure must never escape; fall back to the bare status line.
		return []byte(data.StatusText)
	}
	return buf.Bytes()
}

var pageTemplate = template.Must(template.New("errorPage").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Status}} {{.StatusText}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background-color: #f5f5f5;
            color: #333;
            margin: 0;
        }
        .container {
            max-width: 900px;
            margin: 0 auto;
            padding: 40px 20px;
        }
        .error-header {
            background-color: #dc3545;
            color: white;
            padding: 30px;
            border-radius: 8px 8px 0 0;
            text-align: center;
        }
        .error-header h1 {
            margin: 0;
            font-size: 56px;
            font-weight: 300;
        }
        .error-header p {
            margin: 10px 0 0 0;
            font-size: 22px;
            opacity: 0.95;
        }
        .error-content {
            background-color: white;
            padding: 30px;
            border-radius: 0 0 8px 8px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        .resource {
            font-family: Monaco, Consolas, 'Courier New', monospace;
            background-color: #f8f9fa;
            padding: 12px;
            border-radius: 6px;
            word-break: break-all;
        }
        .error-message {
            background-color: #f8d7da;
            color: #721c24;
            padding: 16px;
            border-radius: 6px;
            margin-top: 20px;
            border-left: 4px solid #dc3545;
            font-family: Monaco, Consolas, 'Courier New', monospace;
            word-break: break-word;
        }
        .stack-trace {
            background-color: #272822;
            color: #f8f8f2;
            padding: 16px;
            border-radius: 6px;
            margin-top: 20px;
            overflow-x: auto;
            font-family: Monaco, Consolas, 'Courier New', monospace;
            font-size: 13px;
            white-space: pre;
            line-height: 1.4;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="error-header">
            <h1>{{.Status}}</h1>
            <p>{{.StatusText}}</p>
        </div>
        <div class="error-content">
            <div class="resource">{{.Resource}}</div>
            {{if .Message}}<div class="error-message">{{.Message}}</div>{{end}}
            {{if .StackTrace}}<div class="stack-trace">{{.StackTrace}}</div>{{end}}
        </div>
    </div>
</body>
</html>
`))
