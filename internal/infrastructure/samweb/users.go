package samweb

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sbn-software/samsync/internal/domain/catalog"
)

func (c *Client) ListUsers(ctx context.Context) ([]string, error) {
	var names []string
	err := c.do(ctx, request{Method: http.MethodGet, Path: "/users", Query: jsonFormat}, &names)
	return names, err
}

func (c *Client) DescribeUser(ctx context.Context, username string) (*catalog.User, error) {
	var u catalog.User
	err := c.do(ctx, request{
		Method: http.MethodGet,
		Path:   namePath("/users/name/", username, ""),
		Query:  jsonFormat,
	}, &u)
	if err != nil {
		return nil, err
	}
	if u.Username == "" {
		u.Username = username
	}
	return &u, nil
}

func (c *Client) AddUser(ctx context.Context, user *catalog.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	form := url.Values{"username": {user.Username}}
	if user.FirstName != "" {
		form.Set("first_name", user.FirstName)
	}
	if user.LastName != "" {
		form.Set("last_name", user.LastName)
	}
	if user.Email != "" {
		form.Set("email", user.Email)
	}
	return c.do(ctx, request{Method: http.MethodPost, Path: "/users", Form: form}, nil)
}

func (c *Client) ModifyUser(ctx context.Context, username string, mod catalog.UserModification) error {
	if mod.Empty() {
		return nil
	}
	form := url.Values{}
	for _, g := range mod.AddGroups {
		form.Add("addgroups", g)
	}
	if mod.AddGridSubject != "" {
		form.Set("addgridsubject", mod.AddGridSubject)
	}
	return c.do(ctx, request{
		Method: http.MethodPut,
		Path:   namePath("/users/name/", username, ""),
		Form:   form,
	}, nil)
}
