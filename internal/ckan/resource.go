package ckan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ckanutils/ckansync/internal/utils"
)

// ResourceShow returns metadata for a single filestore resource.
// Results are cached briefly since a sync run looks resources up repeatedly.
func (c *Client) ResourceShow(ctx context.Context, id string) (*Resource, error) {
	if res, ok := c.resCache.Get(id); ok {
		return res, nil
	}

	var res Resource
	payload := map[string]string{"id": id}

	if err := c.action(ctx, "resource_show", payload, &res); err != nil {
		return nil, err
	}

	c.resCache.Add(id, &res)
	return &res, nil
}

// ResourceCreate creates a filestore resource, either linking a URL or
// uploading a local file as multipart form data.
func (c *Client) ResourceCreate(ctx context.Context, params *ResourceCreateParams) (*Resource, error) {
	if params.URL == "" && params.FilePath == "" {
		return nil, fmt.Errorf("ckan: resource_create: %w: either url or file path required", ErrValidation)
	}

	if params.FilePath == "" {
		var res Resource
		if err := c.action(ctx, "resource_create", params, &res); err != nil {
			return nil, err
		}
		c.resCache.Remove(res.ID)
		return &res, nil
	}

	// file uploads go through multipart form encoding, not the JSON body
	form := map[string]string{"package_id": params.PackageID}
	if params.Name != "" {
		form["name"] = params.Name
	}
	if params.Description != "" {
		form["description"] = params.Description
	}
	if params.Format != "" {
		form["format"] = params.Format
	}
	if params.Hash != "" {
		form["hash"] = params.Hash
	}
	// CKAN rejects uploads without a url field even though it ignores it
	form["url"] = "upload"

	var res Resource
	env := actionEnvelope{Result: &res}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetFile("upload", params.FilePath).
		SetSuccessResult(&env).
		SetErrorResult(&env).
		Post(actionBasePath + "resource_create")

	if err := handleActionError(resp, &env, err, "resource_create"); err != nil {
		return nil, err
	}

	slog.Debug("resource created", "id", res.ID, "package", params.PackageID, "file", utils.ExtByPath(params.FilePath))
	c.resCache.Remove(res.ID)
	return &res, nil
}
