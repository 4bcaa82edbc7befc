package main

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"postfile/storage/models"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	openapi3_routers "github.com/getkin/kin-openapi/routers"
	openapi3_legacy "github.com/getkin/kin-openapi/routers/legacy"
	"github.com/motemen/go-loghttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

//go:embed api.yaml
var apiSpec []byte

var ctx = context.Background()

func TestAPI(t *testing.T) {
	suite.Run(t, &APISuite{})
}

type APISuite struct {
	suite.Suite

	client        http.Client
	apiSpecRouter openapi3_routers.Router

	cfg    Config
	server *httptest.Server
}

func (s *APISuite) SetupSuite() {
	spec, err := openapi3.NewLoader().LoadFromData(apiSpec)
	s.Require().NoError(err)
	s.Require().NoError(spec.Validate(ctx))
	router, err := openapi3_legacy.NewRouter(spec)
	s.Require().NoError(err)
	s.apiSpecRouter = router
	s.client.Transport = s.specValidating(&loghttp.Transport{})
}

func (s *APISuite) SetupTest() {
	publicDir := s.T().TempDir()
	s.cfg = Config{
		Port:        "0",
		PublicDir:   publicDir,
		PostsFile:   filepath.Join(publicDir, "posts.json"),
		StorageMode: File,
	}
	s.writePosts(`[{"id":1,"title":"A"}]`)

	s.server = httptest.NewServer(CreateRouter(s.cfg, CreateHandler(s.cfg, CreateStorage(s.cfg))))
	log.Printf("Start serving on %s", s.server.URL)
}

func (s *APISuite) TearDownTest() {
	s.server.Close()
}

func (s *APISuite) specValidating(transport http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		log.Println("Send HTTP request:")
		reqBody := s.printReq(req)

		// validate request
		route, params, err := s.apiSpecRouter.FindRoute(req)
		s.Require().NoError(err)
		reqDescriptor := &openapi3filter.RequestValidationInput{
			Request:     req,
			PathParams:  params,
			QueryParams: req.URL.Query(),
			Route:       route,
		}
		s.Require().NoError(openapi3filter.ValidateRequest(ctx, reqDescriptor))

		// do request
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
		resp, err := transport.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		log.Println("Got HTTP response:")
		respBody := s.printResp(resp)

		// Validate response against OpenAPI spec
		s.Require().NoError(openapi3filter.ValidateResponse(ctx, &openapi3filter.ResponseValidationInput{
			RequestValidationInput: reqDescriptor,
			Status:                 resp.StatusCode,
			Header:                 resp.Header,
			Body:                   io.NopCloser(bytes.NewReader(respBody)),
		}))

		return resp, nil
	})
}

func (s *APISuite) printReq(req *http.Request) []byte {
	body := s.readAll(req.Body)

	req.Body = io.NopCloser(bytes.NewReader(body))
	s.Require().NoError(req.Write(os.Stdout))
	fmt.Println()

	req.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

func (s *APISuite) printResp(resp *http.Response) []byte {
	body := s.readAll(resp.Body)

	resp.Body = io.NopCloser(bytes.NewReader(body))
	s.Require().NoError(resp.Write(os.Stdout))
	fmt.Println()

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

func (s *APISuite) readAll(in io.Reader) []byte {
	if in == nil {
		return nil
	}
	data, err := io.ReadAll(in)
	s.Require().NoError(err)
	return data
}

type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (fn RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

func (s *APISuite) writePosts(raw string) {
	s.Require().NoError(os.WriteFile(s.cfg.PostsFile, []byte(raw), 0644))
}

func (s *APISuite) readPosts() models.Collection {
	data, err := os.ReadFile(s.cfg.PostsFile)
	s.Require().NoError(err)
	var posts models.Collection
	s.Require().NoError(json.Unmarshal(data, &posts))
	return posts
}

func (s *APISuite) send(method, path, body string) (int, string) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	return resp.StatusCode, string(s.readAll(resp.Body))
}

// --------------- // TESTS // --------------- //

func (s *APISuite) TestSimple() {
	// Create post
	status, body := s.send("POST", "/posts", `{"title":"B"}`)
	s.Require().Equal(http.StatusOK, status)
	s.JSONEq(`{"id":2,"title":"B"}`, body)
	s.Require().Len(s.readPosts(), 2)

	// Modify post
	status, body = s.send("PUT", "/posts/1", `{"title":"A2"}`)
	s.Require().Equal(http.StatusOK, status)
	s.JSONEq(`{"id":1,"title":"A2"}`, body)

	// Delete post
	status, body = s.send("DELETE", "/posts/2", "")
	s.Require().Equal(http.StatusOK, status)
	s.JSONEq(`{"success":true}`, body)

	s.Equal(models.Collection{{"id": float64(1), "title": "A2"}}, s.readPosts())
}

func (s *APISuite) TestListAfterCreate() {
	status, before := s.send("GET", "/posts", "")
	s.Require().Equal(http.StatusOK, status)
	var listed []map[string]interface{}
	s.Require().NoError(json.Unmarshal([]byte(before), &listed))

	_, created := s.send("POST", "/posts", `{"title":"C","tags":["go"]}`)

	status, after := s.send("GET", "/posts", "")
	s.Require().Equal(http.StatusOK, status)
	var relisted []json.RawMessage
	s.Require().NoError(json.Unmarshal([]byte(after), &relisted))
	s.Require().Len(relisted, len(listed)+1)
	s.JSONEq(created, string(relisted[len(relisted)-1]))
}

func (s *APISuite) TestFileKeepsTwoSpaceIndent() {
	status, _ := s.send("PUT", "/posts/1", `{"title":"A & B"}`)
	s.Require().Equal(http.StatusOK, status)

	data, err := os.ReadFile(s.cfg.PostsFile)
	s.Require().NoError(err)
	s.Equal("[\n  {\n    \"id\": 1,\n    \"title\": \"A & B\"\n  }\n]", string(data))
}

func (s *APISuite) TestUpdateMissingPost() {
	before, err := os.ReadFile(s.cfg.PostsFile)
	s.Require().NoError(err)

	status, body := s.send("PUT", "/posts/5", `{"title":"X"}`)

	s.Equal(http.StatusNotFound, status)
	s.JSONEq(`{"error":"Post not found"}`, body)
	after, err := os.ReadFile(s.cfg.PostsFile)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *APISuite) TestDeleteMissingPost() {
	status, body := s.send("DELETE", "/posts/5", "")

	s.Equal(http.StatusOK, status)
	s.JSONEq(`{"success":true}`, body)
	s.Len(s.readPosts(), 1)
}

func (s *APISuite) TestBrokenFile() {
	s.writePosts(`[{"id":1,`)

	for _, call := range [][2]string{{"GET", "/posts"}, {"POST", "/posts"}, {"PUT", "/posts/1"}, {"DELETE", "/posts/1"}} {
		body := ""
		if call[0] == "POST" || call[0] == "PUT" {
			body = `{"title":"X"}`
		}
		status, resp := s.send(call[0], call[1], body)

		s.Equal(http.StatusInternalServerError, status, call[1])
		s.JSONEq(`{"error":"Internal Server Error"}`, resp, call[1])
	}
}

func (s *APISuite) TestMissingFile() {
	s.Require().NoError(os.Remove(s.cfg.PostsFile))

	status, body := s.send("GET", "/posts", "")

	s.Equal(http.StatusInternalServerError, status)
	s.JSONEq(`{"error":"Internal Server Error"}`, body)
}

func (s *APISuite) TestPing() {
	status, body := s.send("GET", "/maintenance/ping", "")

	s.Equal(http.StatusOK, status)
	s.JSONEq(`{"status":"ok"}`, body)
}

func (s *APISuite) TestStaticFiles() {
	s.Require().NoError(os.WriteFile(filepath.Join(s.cfg.PublicDir, "hello.txt"), []byte("hello"), 0644))

	// static files are outside the API contract, so skip validation
	resp, err := http.Get(s.server.URL + "/hello.txt")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("hello", string(s.readAll(resp.Body)))
	s.NotEmpty(resp.Header.Get("X-Request-Id"))
}

func (s *APISuite) TestStaticDirectoriesAreNotListed() {
	s.Require().NoError(os.Mkdir(filepath.Join(s.cfg.PublicDir, "docs"), 0755))
	s.Require().NoError(os.WriteFile(filepath.Join(s.cfg.PublicDir, "docs", "note.txt"), []byte("note"), 0644))

	for _, url := range []string{"/", "/docs/"} {
		resp, err := http.Get(s.server.URL + url)
		s.Require().NoError(err)
		body := string(s.readAll(resp.Body))
		resp.Body.Close()

		s.Equal(http.StatusNotFound, resp.StatusCode, url)
		s.NotContains(body, "posts.json", url)
		s.NotContains(body, "note.txt", url)
	}

	s.Require().NoError(os.WriteFile(filepath.Join(s.cfg.PublicDir, "index.html"), []byte("<h1>posts</h1>"), 0644))
	resp, err := http.Get(s.server.URL + "/")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("<h1>posts</h1>", string(s.readAll(resp.Body)))
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "PUBLIC_DIR", "POSTS_FILE", "STORAGE_MODE", "SERIALIZE_REQUESTS", "BROKER_URL"} {
		old, found := os.LookupEnv(key)
		os.Unsetenv(key)
		if found {
			key, old := key, old
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}

	cfg := LoadConfig()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, filepath.Join("public", "posts.json"), cfg.PostsFile)
	assert.Equal(t, File, cfg.StorageMode)
	assert.False(t, cfg.SerializeRequests, "requests must not be serialized unless asked for")
	assert.Empty(t, cfg.BrokerUrl)
}

func TestCreateServerHasNoTimeouts(t *testing.T) {
	dir := t.TempDir()
	srv := CreateServer(Config{
		Port:        "5000",
		PublicDir:   dir,
		PostsFile:   filepath.Join(dir, "posts.json"),
		StorageMode: File,
	})

	assert.Equal(t, "0.0.0.0:5000", srv.Addr)
	assert.Zero(t, srv.ReadTimeout)
	assert.Zero(t, srv.WriteTimeout)
}
