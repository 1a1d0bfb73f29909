package docs

import (
	_ "embed"
	"html/template"

	"github.com/drblury/restweaver/config"
)

var (
	//go:embed assets/redoc.html
	pageRedoc string
	//go:embed assets/stoplight.html
	pageStoplight string
	//go:embed assets/scalar.html
	pageScalar string
	//go:embed assets/swagger-ui.html
	pageSwaggerUI string
)

var (
	templateRedoc     = template.Must(template.New("docs-redoc").Parse(pageRedoc))
	templateStoplight = template.Must(template.New("docs-stoplight").Parse(pageStoplight))
	templateScalar    = template.Must(template.New("docs-scalar").Parse(pageScalar))
	templateSwaggerUI = template.Must(template.New("docs-swagger-ui").Parse(pageSwaggerUI))
)

// TemplateFor returns the embedded template of ui. Unknown values fall back
// to Redoc.
func TemplateFor(ui string) *template.Template {
	switch ui {
	case config.UIStoplight:
		return templateStoplight
	case config.UIScalar:
		return templateScalar
	case config.UISwaggerUI:
		return templateSwaggerUI
	default:
		return templateRedoc
	}
}

// PageData is passed to the documentation template.
type PageData struct {
	Title       string
	Description string
	FaviconURL  string
	LogoURL     string
	SpecURL     string
}

func pageData(docs config.DocsConfig, specURL string) PageData {
	docs = config.Config{DocsConfig: docs}.WithDefaults().DocsConfig
	return PageData{
		Title:       docs.Title,
		Description: docs.Description,
		FaviconURL:  docs.FaviconURL,
		LogoURL:     docs.LogoURL,
		SpecURL:     specURL,
	}
}
