package render

import (
	"embed"
	"io/fs"
	"strings"

	"github.com/fumiama/go-docx"
)

// reportTemplate is the go-docx template name. Its directory only carries the
// files that differ from the library's default template.
const reportTemplate = "report"

//go:embed xml/report
var reportXML embed.FS

// templateFS serves xml/report/* from reportXML and falls back to the
// matching xml/default/* file bundled with go-docx.
type templateFS struct{}

func (templateFS) Open(name string) (fs.File, error) {
	f, err := reportXML.Open(name)
	if err == nil {
		return f, nil
	}
	prefix := "xml/" + reportTemplate + "/"
	if !strings.HasPrefix(name, prefix) {
		return nil, err
	}
	return docx.TemplateXMLFS.Open("xml/default/" + strings.TrimPrefix(name, prefix))
}

func newReportDocx() *docx.Docx {
	return docx.New().UseTemplate(reportTemplate, docx.DefaultTemplateFilesList, templateFS{})
}
