package core

import (
	"errors"

	"sprintify-backend-go/internal/templates"
)

type templateService struct {
	catalog *templates.Catalog
}

func NewTemplateService(catalog *templates.Catalog) TemplateService {
	return &templateService{catalog: catalog}
}

func (s *templateService) List() []templates.Config {
	return s.catalog.List()
}

func (s *templateService) Recommendations(templateID string, customDuration int) (templates.Recommendations, error) {
	if customDuration < 0 || customDuration > templates.MaxDurationDays {
		return templates.Recommendations{}, invalid("Duration must be between 1 and 365 days")
	}
	rec, err := s.catalog.CalculateRecommendations(templateID, customDuration)
	if errors.Is(err, templates.ErrUnknownTemplate) {
		return templates.Recommendations{}, invalid(err.Error())
	}
	return rec, err
}
