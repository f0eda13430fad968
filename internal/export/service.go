package export

// Service renders proformas into downloadable files.
type Service struct{}

// NewService creates a new export service.
func NewService() *Service {
	return &Service{}
}

// ProformaPDF renders a proforma to PDF via headless Chrome.
func (s *Service) ProformaPDF(data TemplateData) (*Result, error) {
	html, err := RenderProformaHTML(data)
	if err != nil {
		return nil, err
	}
	return renderPDF(html, "proforma-"+data.Number)
}
