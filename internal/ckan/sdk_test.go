package ckan

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(&Config{
		Remote:    srv.URL,
		APIKey:    "test-key",
		UserAgent: "ckanny-test/0.0",
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	// keep failing tests fast
	client.http.SetCommonRetryCount(0)
	return client
}

func writeEnvelope(w http.ResponseWriter, status int, env map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(&Config{UserAgent: "ua"})
	assert.ErrorIs(t, err, ErrNoRemote)

	_, err = New(&Config{Remote: "http://127.0.0.1:8081"})
	assert.ErrorIs(t, err, ErrNoUserAgent)
}

func TestPackageShow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/package_show", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get(HeaderAPIKey))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "hash-table", payload["id"])

		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"result": map[string]any{
				"id":   "pkg-1",
				"name": "hash-table",
				"resources": []map[string]any{
					{"id": "res-1", "format": "CSV"},
				},
			},
		})
	})

	c := newTestClient(t, mux)
	pkg, err := c.PackageShow(t.Context(), "hash-table")
	require.NoError(t, err)
	assert.Equal(t, "pkg-1", pkg.ID)
	require.Len(t, pkg.Resources, 1)
	assert.Equal(t, "res-1", pkg.Resources[0].ID)
}

func TestPackageCreate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/package_create", func(w http.ResponseWriter, r *http.Request) {
		var params PackageCreateParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, "hash-table", params.Name)
		assert.Equal(t, "org-1", params.OwnerOrg)

		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"id": "pkg-9", "name": "hash-table"},
		})
	})

	c := newTestClient(t, mux)
	pkg, err := c.PackageCreate(t.Context(), &PackageCreateParams{Name: "hash-table", OwnerOrg: "org-1"})
	require.NoError(t, err)
	assert.Equal(t, "pkg-9", pkg.ID)
}

func TestResourceCreate_Link(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/resource_create", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var params ResourceCreateParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, "pkg-1", params.PackageID)
		assert.Equal(t, "http://example.com/a.csv", params.URL)

		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"id": "res-7", "package_id": "pkg-1", "url": params.URL},
		})
	})

	c := newTestClient(t, mux)
	res, err := c.ResourceCreate(t.Context(), &ResourceCreateParams{
		PackageID: "pkg-1",
		URL:       "http://example.com/a.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, "res-7", res.ID)
}

func TestResourceCreate_Upload(t *testing.T) {
	content := "a,b\n1,2\n"
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/resource_create", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "pkg-1", r.FormValue("package_id"))
		assert.Equal(t, "traffic counts", r.FormValue("name"))
		assert.Equal(t, "upload", r.FormValue("url"), "multipart uploads still carry a url field")

		file, header, err := r.FormFile("upload")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
		assert.Equal(t, "data.csv", header.Filename)

		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"id": "res-8", "package_id": "pkg-1"},
		})
	})

	c := newTestClient(t, mux)
	res, err := c.ResourceCreate(t.Context(), &ResourceCreateParams{
		PackageID: "pkg-1",
		Name:      "traffic counts",
		FilePath:  path,
	})
	require.NoError(t, err)
	assert.Equal(t, "res-8", res.ID)
}

func TestResourceCreate_RequiresSource(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())
	_, err := c.ResourceCreate(t.Context(), &ResourceCreateParams{PackageID: "pkg-1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAction_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/package_show", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error": map[string]any{
				"__type":  "Not Found Error",
				"message": "Not found",
			},
		})
	})

	c := newTestClient(t, mux)
	_, err := c.PackageShow(t.Context(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAction_ValidationResourceNotFound(t *testing.T) {
	// CKAN reports a missing datastore resource as a validation error
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/datastore_search", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, map[string]any{
			"success": false,
			"error": map[string]any{
				"__type":      "Validation Error",
				"resource_id": []string{"Not found: Resource"},
			},
		})
	})

	c := newTestClient(t, mux)
	_, err := c.DatastoreSearch(t.Context(), &DatastoreSearchParams{ResourceID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAction_ValidationOther(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/datastore_create", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, map[string]any{
			"success": false,
			"error": map[string]any{
				"__type": "Validation Error",
				"fields": []string{"Duplicate column names are not supported"},
			},
		})
	})

	c := newTestClient(t, mux)
	err := c.DatastoreCreate(t.Context(), &DatastoreCreateParams{
		ResourceID: "res-1",
		Fields:     []Field{{ID: "a", Type: "text"}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Duplicate column names")
}

func TestDatastoreSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/datastore_search", func(w http.ResponseWriter, r *http.Request) {
		var params DatastoreSearchParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, "hash-res", params.ResourceID)
		assert.Equal(t, map[string]string{"datastore_id": "abc"}, params.Filters)
		assert.Equal(t, 1, params.Limit)

		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"result": map[string]any{
				"resource_id": "hash-res",
				"records":     []map[string]any{{"hash": "deadbeef"}},
				"total":       1,
			},
		})
	})

	c := newTestClient(t, mux)
	result, err := c.DatastoreSearch(t.Context(), &DatastoreSearchParams{
		ResourceID: "hash-res",
		Filters:    map[string]string{"datastore_id": "abc"},
		Fields:     "hash",
		Limit:      1,
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "deadbeef", result.Records[0]["hash"])
}

func TestDatastoreUpsert_DefaultsToInsert(t *testing.T) {
	var gotMethod string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/datastore_upsert", func(w http.ResponseWriter, r *http.Request) {
		var params DatastoreUpsertParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		gotMethod = string(params.Method)
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "result": nil})
	})

	c := newTestClient(t, mux)
	err := c.DatastoreUpsert(t.Context(), &DatastoreUpsertParams{
		ResourceID: "res-1",
		Records:    []Record{{"a": "1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "insert", gotMethod)
}

func TestResourceShow_Cached(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/resource_show", func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"id": "res-1", "url": "http://example.com/a.csv"},
		})
	})

	c := newTestClient(t, mux)
	for range 3 {
		res, err := c.ResourceShow(t.Context(), "res-1")
		require.NoError(t, err)
		assert.Equal(t, "res-1", res.ID)
	}
	assert.Equal(t, 1, calls)
}

func TestFetchResource(t *testing.T) {
	content := "a,b\n1,2\n"

	mux := http.NewServeMux()
	var downloadURL string
	mux.HandleFunc("/api/3/action/resource_show", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"id": "res-1", "url": downloadURL, "format": "CSV"},
		})
	})
	mux.HandleFunc("/download/a.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(content))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	downloadURL = srv.URL + "/download/a.csv"

	client, err := New(&Config{Remote: srv.URL, UserAgent: "ckanny-test/0.0"})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	fetched, err := client.FetchResource(t.Context(), "res-1")
	require.NoError(t, err)
	t.Cleanup(func() { fetched.Discard() })

	assert.Equal(t, int64(len(content)), fetched.Size)
	assert.Equal(t, "csv", fetched.Ext())

	data, err := os.ReadFile(fetched.Path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	require.NoError(t, fetched.Discard())
	assert.NoFileExists(t, fetched.Path)
}

func TestFetchResource_Denied(t *testing.T) {
	mux := http.NewServeMux()
	var downloadURL string
	mux.HandleFunc("/api/3/action/resource_show", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"id": "res-2", "url": downloadURL},
		})
	})
	mux.HandleFunc("/download/secret.csv", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	downloadURL = srv.URL + "/download/secret.csv"

	client, err := New(&Config{Remote: srv.URL, UserAgent: "ckanny-test/0.0"})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	_, err = client.FetchResource(t.Context(), "res-2")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestFetchResource_FailureLeavesNoTempFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TMPDIR", tmpDir)

	mux := http.NewServeMux()
	var downloadURL string
	mux.HandleFunc("/api/3/action/resource_show", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  map[string]any{"id": "res-3", "url": downloadURL},
		})
	})
	mux.HandleFunc("/download/gone.csv", http.NotFound)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	downloadURL = srv.URL + "/download/gone.csv"

	client, err := New(&Config{Remote: srv.URL, UserAgent: "ckanny-test/0.0"})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	_, err = client.FetchResource(t.Context(), "res-3")
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed fetches must clean up their temp file")
}

func TestActionError_Unwrap(t *testing.T) {
	notFound := &ActionError{Type: "Not Found Error", Message: "nope"}
	assert.True(t, errors.Is(notFound, ErrNotFound))

	denied := &ActionError{Type: "Authorization Error"}
	assert.True(t, errors.Is(denied, ErrNotAuthorized))

	validation := &ActionError{Type: "Validation Error", Fields: map[string][]string{
		"resource_id": {"Not found: Resource"},
	}}
	assert.True(t, errors.Is(validation, ErrNotFound))
}
