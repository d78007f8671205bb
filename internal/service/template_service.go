package service

import (
	"context"
	"fmt"
	"time"

	"prf-forms-be/internal/apperr"
	"prf-forms-be/internal/dto"
	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/registry"
	"prf-forms-be/internal/repository/unitofwork"

	"github.com/patrickmn/go-cache"
)

const (
	// Pinned template versions are immutable, so they stay cached until
	// eviction. Only the "latest" pointer needs a short TTL.
	pinnedTemplateTTL = cache.NoExpiration
	latestTemplateTTL = time.Minute
)

// ITemplateService serves template definitions: the built-in Patient
// Report Form catalogue plus dynamic templates stored remotely. It
// implements both store.RegistryResolver and reconciler.TemplateSource.
type ITemplateService interface {
	Template(ctx context.Context, id string, version int) (*entity.Template, error)
	LatestTemplate(ctx context.Context, id string) (*entity.Template, error)
	RegistryFor(templateId string, version int) (*registry.Registry, error)

	Create(ctx context.Context, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error)
	GetAll(ctx context.Context) ([]*dto.TemplateSummaryResponse, error)
	Show(ctx context.Context, id string) (*dto.TemplateResponse, error)
}

type templateService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *cache.Cache
	prf        *entity.Template
}

func NewTemplateService(uowFactory unitofwork.RepositoryFactory) ITemplateService {
	return &templateService{
		uowFactory: uowFactory,
		cache:      cache.New(latestTemplateTTL, 5*time.Minute),
		prf: &entity.Template{
			Id:       registry.PRFTemplateId,
			Version:  registry.PRFTemplateVersion,
			Name:     "Patient Report Form",
			Sections: registry.PRFSections(),
		},
	}
}

func pinnedKey(id string, version int) string {
	return fmt.Sprintf("tpl:%s:v%d", id, version)
}

func latestKey(id string) string {
	return "tpl:" + id + ":latest"
}

func (s *templateService) Template(ctx context.Context, id string, version int) (*entity.Template, error) {
	if id == registry.PRFTemplateId {
		return s.prf, nil
	}
	if x, found := s.cache.Get(pinnedKey(id, version)); found {
		return x.(*entity.Template), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	template, err := uow.TemplateRepository().FindVersion(ctx, id, version)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("template %s v%d: %w", id, version, apperr.ErrNotFound)
	}

	s.cache.Set(pinnedKey(id, version), template, pinnedTemplateTTL)
	return template, nil
}

func (s *templateService) LatestTemplate(ctx context.Context, id string) (*entity.Template, error) {
	if id == registry.PRFTemplateId {
		return s.prf, nil
	}
	if x, found := s.cache.Get(latestKey(id)); found {
		return x.(*entity.Template), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	template, err := uow.TemplateRepository().FindLatest(ctx, id)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("template %s: %w", id, apperr.ErrNotFound)
	}

	s.cache.Set(latestKey(id), template, latestTemplateTTL)
	s.cache.Set(pinnedKey(id, template.Version), template, pinnedTemplateTTL)
	return template, nil
}

// RegistryFor resolves the section registry for a bound template. The
// built-in PRF never hits the network.
func (s *templateService) RegistryFor(templateId string, version int) (*registry.Registry, error) {
	if templateId == registry.PRFTemplateId {
		return registry.PRF(), nil
	}
	template, err := s.Template(context.Background(), templateId, version)
	if err != nil {
		return nil, err
	}
	return template.Registry(), nil
}

// Create publishes a new template version. Versions are append-only;
// an existing id gets its latest version incremented.
func (s *templateService) Create(ctx context.Context, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	if req.Id == registry.PRFTemplateId {
		return nil, fmt.Errorf("template id %q is reserved", registry.PRFTemplateId)
	}

	seen := make(map[string]bool, len(req.Sections))
	for _, section := range req.Sections {
		if seen[section.Key] {
			return nil, fmt.Errorf("duplicate section key %q", section.Key)
		}
		seen[section.Key] = true
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	version := 1
	latest, err := uow.TemplateRepository().FindLatest(ctx, req.Id)
	if err != nil {
		uow.Rollback()
		return nil, err
	}
	if latest != nil {
		version = latest.Version + 1
	}

	template := &entity.Template{
		Id:        req.Id,
		Version:   version,
		Name:      req.Name,
		Sections:  req.Sections,
		CreatedAt: time.Now(),
	}
	if err := uow.TemplateRepository().Create(ctx, template); err != nil {
		uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Drop the stale latest pointer so reconciles see the new version.
	s.cache.Delete(latestKey(req.Id))

	return &dto.TemplateResponse{
		Id:        template.Id,
		Version:   template.Version,
		Name:      template.Name,
		Sections:  template.Sections,
		CreatedAt: template.CreatedAt,
	}, nil
}

func (s *templateService) GetAll(ctx context.Context) ([]*dto.TemplateSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	templates, err := uow.TemplateRepository().FindAllLatest(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.TemplateSummaryResponse, 0, len(templates)+1)
	result = append(result, &dto.TemplateSummaryResponse{
		Id:       s.prf.Id,
		Version:  s.prf.Version,
		Name:     s.prf.Name,
		Sections: len(s.prf.Sections),
	})
	for _, template := range templates {
		result = append(result, &dto.TemplateSummaryResponse{
			Id:       template.Id,
			Version:  template.Version,
			Name:     template.Name,
			Sections: len(template.Sections),
		})
	}
	return result, nil
}

func (s *templateService) Show(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	template, err := s.LatestTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.TemplateResponse{
		Id:        template.Id,
		Version:   template.Version,
		Name:      template.Name,
		Sections:  template.Sections,
		CreatedAt: template.CreatedAt,
	}, nil
}
