package samweb

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sbn-software/samsync/internal/domain/catalog"
)

func (c *Client) ListDefinitions(ctx context.Context) ([]string, error) {
	var names []string
	err := c.do(ctx, request{Method: http.MethodGet, Path: "/definitions/list", Query: jsonFormat}, &names)
	return names, err
}

func (c *Client) DescribeDefinition(ctx context.Context, name string) (*catalog.Definition, error) {
	var def catalog.Definition
	err := c.do(ctx, request{
		Method: http.MethodGet,
		Path:   namePath("/definitions/name/", name, "/describe"),
		Query:  jsonFormat,
	}, &def)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		def.Name = name
	}
	return &def, nil
}

func (c *Client) CreateDefinition(ctx context.Context, def *catalog.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	form := url.Values{
		"defname": {def.Name},
		"dims":    {def.Dimensions},
	}
	if def.Username != "" {
		form.Set("user", def.Username)
	}
	if def.Group != "" {
		form.Set("group", def.Group)
	}
	if def.Description != "" {
		form.Set("description", def.Description)
	}
	return c.do(ctx, request{Method: http.MethodPost, Path: "/definitions/create", Form: form}, nil)
}
