package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/magabrotheeeer/kyc-portal/internal/models"
	"github.com/magabrotheeeer/kyc-portal/internal/querycache"
)

var (
	listServicesQuery = Query[struct{}, []models.Service]{
		Name: "listServices",
		Path: fixed("/services"),
		Provides: func(items []models.Service, _ struct{}) []querycache.Tag {
			return listTags(TagService, items, func(s models.Service) string { return s.ID })
		},
	}
	getServiceQuery = Query[string, models.Service]{
		Name: "getService",
		Path: func(id string) string { return "/services/" + url.PathEscape(id) },
		Provides: func(_ models.Service, id string) []querycache.Tag {
			return []querycache.Tag{querycache.T(TagService, id)}
		},
	}
	createServiceMutation = Mutation[models.Service, models.Service]{
		Name:   "createService",
		Method: http.MethodPost,
		Path:   func(models.Service) string { return "/services" },
		Body:   func(s models.Service) any { return s },
		Invalidates: func(models.Service) []querycache.Tag {
			return []querycache.Tag{querycache.List(TagService)}
		},
	}
	updateServiceMutation = Mutation[models.Service, models.Service]{
		Name:   "updateService",
		Method: http.MethodPut,
		Path:   func(s models.Service) string { return "/services/" + url.PathEscape(s.ID) },
		Body:   func(s models.Service) any { return s },
		Invalidates: func(s models.Service) []querycache.Tag {
			return []querycache.Tag{querycache.T(TagService, s.ID), querycache.List(TagService)}
		},
	}
	deleteServiceMutation = Mutation[string, MessageResponse]{
		Name:   "deleteService",
		Method: http.MethodDelete,
		Path:   func(id string) string { return "/services/" + url.PathEscape(id) },
		Invalidates: func(id string) []querycache.Tag {
			return []querycache.Tag{querycache.T(TagService, id), querycache.List(TagService)}
		},
	}
)

// ListServices каталог сервисов верификации.
func (c *Client) ListServices(ctx context.Context) ([]models.Service, error) {
	return Fetch(ctx, c, listServicesQuery, struct{}{})
}

// GetService сервис по идентификатору.
func (c *Client) GetService(ctx context.Context, id string) (models.Service, error) {
	return Fetch(ctx, c, getServiceQuery, id)
}

// CreateService добавляет сервис в каталог.
func (c *Client) CreateService(ctx context.Context, s models.Service) (models.Service, error) {
	return Run(ctx, c, createServiceMutation, s)
}

// UpdateService обновляет сервис.
func (c *Client) UpdateService(ctx context.Context, s models.Service) (models.Service, error) {
	return Run(ctx, c, updateServiceMutation, s)
}

// DeleteService удаляет сервис.
func (c *Client) DeleteService(ctx context.Context, id string) error {
	_, err := Run(ctx, c, deleteServiceMutation, id)
	return err
}
