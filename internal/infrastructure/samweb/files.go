package samweb

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sbn-software/samsync/internal/domain/catalog"
	"github.com/sbn-software/samsync/internal/shared/errors"
)

func (c *Client) ListFiles(ctx context.Context, dimensions string) ([]string, error) {
	var names []string
	err := c.do(ctx, request{
		Method: http.MethodGet,
		Path:   "/files/list",
		Query:  url.Values{"dims": {dimensions}, "format": {"json"}},
	}, &names)
	return names, err
}

func (c *Client) GetFileMetadata(ctx context.Context, name string) (catalog.Metadata, error) {
	var md catalog.Metadata
	err := c.do(ctx, request{
		Method: http.MethodGet,
		Path:   namePath("/files/name/", name, "/metadata"),
		Query:  jsonFormat,
	}, &md)
	if err != nil {
		return nil, err
	}
	return md, nil
}

func (c *Client) DeclareFile(ctx context.Context, md catalog.Metadata) error {
	if md.FileName() == "" {
		return errors.NewValidationError("file_name is required to declare a file")
	}
	return c.do(ctx, request{Method: http.MethodPost, Path: "/files", JSON: md}, nil)
}

func (c *Client) ModifyFileMetadata(ctx context.Context, name string, md catalog.Metadata) error {
	return c.do(ctx, request{
		Method: http.MethodPut,
		Path:   namePath("/files/name/", name, "/metadata"),
		JSON:   md,
	}, nil)
}

// ModifyMetadataBulk sends all updates as one JSON list of metadata objects,
// each carrying its file_name.
func (c *Client) ModifyMetadataBulk(ctx context.Context, updates []catalog.MetadataUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	payload := make([]catalog.Metadata, 0, len(updates))
	for _, u := range updates {
		payload = append(payload, u.Payload())
	}
	return c.do(ctx, request{Method: http.MethodPut, Path: "/files/metadata", JSON: payload}, nil)
}

type locationResponse struct {
	Location     string `json:"location"`
	FullPath     string `json:"full_path"`
	LocationType string `json:"location_type"`
}

func (c *Client) LocateFile(ctx context.Context, name string) ([]catalog.Location, error) {
	var resp []locationResponse
	err := c.do(ctx, request{
		Method: http.MethodGet,
		Path:   namePath("/files/name/", name, "/locations"),
		Query:  jsonFormat,
	}, &resp)
	if err != nil {
		return nil, err
	}

	locs := make([]catalog.Location, 0, len(resp))
	for _, r := range resp {
		fullPath := r.FullPath
		if fullPath == "" {
			fullPath = r.Location
		}
		typ := catalog.LocationType(r.LocationType)
		if typ == "" {
			typ = catalog.ClassifyLocation(r.Location, fullPath, "")
		}
		locs = append(locs, catalog.Location{
			FileName: name,
			Location: r.Location,
			FullPath: fullPath,
			Type:     typ,
		})
	}
	return locs, nil
}

func (c *Client) AddFileLocation(ctx context.Context, name, location string) error {
	return c.do(ctx, request{
		Method: http.MethodPost,
		Path:   namePath("/files/name/", name, "/locations"),
		Form:   url.Values{"add": {location}},
	}, nil)
}

func (c *Client) RemoveFileLocation(ctx context.Context, name, location string) error {
	return c.do(ctx, request{
		Method: http.MethodPost,
		Path:   namePath("/files/name/", name, "/locations"),
		Form:   url.Values{"remove": {location}},
	}, nil)
}
