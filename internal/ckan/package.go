package ckan

import (
	"context"
)

// PackageShow returns a dataset with its resources.
func (c *Client) PackageShow(ctx context.Context, id string) (*Package, error) {
	var pkg Package
	payload := map[string]string{"id": id}

	if err := c.action(ctx, "package_show", payload, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// PackageCreate creates a new dataset.
func (c *Client) PackageCreate(ctx context.Context, params *PackageCreateParams) (*Package, error) {
	var pkg Package
	if err := c.action(ctx, "package_create", params, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}
