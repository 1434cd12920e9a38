package cmd

import (
	"text/template"
)

// usageTemplate renders a man-page style help text from the command's
// accessors; empty sections collapse.
var usageTemplate = template.Must(template.New("usage").Parse(`
NAME
	{{.GetName}}{{if .GetDesc}} - {{.GetDesc}}{{end}}

SYNOPSIS
	{{.GetName}} {{if .GetSynopsis}}{{.GetSynopsis}}{{else}}[<args>]{{end}}
{{if .GetOptionDesc}}
OPTIONS
{{.GetOptionDesc}}
{{end}}
{{if .GetDetails}}DESCRIPTION
{{.GetDetails}}
{{end}}
{{if .GetExample}}EXAMPLE
{{.GetExample}}
{{end}}
`))
