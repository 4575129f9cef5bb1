// Package testsuite holds the godog step library used by the API feature tests.
package testsuite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// DBSeeder inserts the rows of a data table into the named collection.
type DBSeeder interface {
	Seed(document string, data *godog.Table) error
}

type TestSuite struct {
	T           *testing.T
	Router      *gin.Engine
	Resp        *http.Response
	RespBody    []byte
	Storage     map[string]string
	RequestBody []byte
	BaseURL     string
	DbSeeders   map[string]DBSeeder
	// Reset runs before every scenario, typically to empty the store.
	Reset func() error
	// Steps registers project specific steps next to the generic ones.
	Steps func(ts *TestSuite, ctx *godog.ScenarioContext)
}

type TestLogger struct {
	T *testing.T
}

func New(t *testing.T, router *gin.Engine) *TestSuite {
	return &TestSuite{
		T:         t,
		Router:    router,
		Storage:   make(map[string]string),
		DbSeeders: make(map[string]DBSeeder),
	}
}

func (ts *TestSuite) RegisterDBSeeder(document string, seeder DBSeeder) {
	ts.DbSeeders[document] = seeder
}

func (ts *TestSuite) SetBaseURL(baseURL string) {
	ts.BaseURL = baseURL
}

func (ts *TestSuite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		if ts.Storage == nil {
			ts.Storage = make(map[string]string)
		}
	})
}

func (ts *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.BeforeScenario(func(sc *godog.Scenario) {
		ts.Resp = nil
		ts.RespBody = nil
		ts.RequestBody = nil
		ts.Storage = make(map[string]string)
		if ts.Reset != nil {
			if err := ts.Reset(); err != nil {
				ts.T.Errorf("reset before %q: %v", sc.Name, err)
			}
		}
	})

	ctx.Step(`^document "([^"]*)" has the following items$`, ts.documentHasTheFollowingItems)
	ctx.Step(`^I send a (GET|DELETE) request to "([^"]*)"$`, ts.iSendARequestTo)
	ctx.Step(`^I send a (POST|PUT) request to "([^"]*)" with body$`, ts.iSendARequestToWithBody)
	ctx.Step(`^I send a (POST|PUT) request to "([^"]*)" with JSON$`, ts.iSendARequestToWithJSON)
	ctx.Step(`^I send an authenticated (GET|DELETE) request to "([^"]*)" as "([^"]*)"$`, ts.iSendAnAuthenticatedRequestTo)
	ctx.Step(`^I send an authenticated (POST|PUT) request to "([^"]*)" as "([^"]*)" with body$`, ts.iSendAnAuthenticatedRequestToWithBody)
	ctx.Step(`^the response status should be (\d+)$`, ts.theResponseStatusShouldBe)
	ctx.Step(`^the response "([^"]*)" field is stored as "([^"]*)"$`, ts.theResponseFieldIsStoredAs)
	ctx.Step(`^the response should contain an item with$`, ts.theResponseShouldContainAnItemWith)
	ctx.Step(`^the response "([^"]*)" should have (\d+) items?$`, ts.theResponseFieldShouldHaveItems)

	if ts.Steps != nil {
		ts.Steps(ts, ctx)
	}
}

func (ts *TestSuite) documentHasTheFollowingItems(document string, data *godog.Table) error {
	seeder, ok := ts.DbSeeders[document]
	if !ok {
		return fmt.Errorf("no seeder registered for document %s", document)
	}
	return seeder.Seed(document, data)
}

func (ts *TestSuite) iSendARequestTo(method, path string) error {
	ts.RequestBody = nil
	return ts.send(method, path, "")
}

func (ts *TestSuite) iSendARequestToWithBody(method, path string, body *godog.Table) error {
	var err error
	if ts.RequestBody, err = ts.parseDataTableToJSON(body); err != nil {
		return err
	}
	return ts.send(method, path, "")
}

func (ts *TestSuite) iSendARequestToWithJSON(method, path string, body *godog.DocString) error {
	ts.RequestBody = []byte(ts.expand(body.Content))
	return ts.send(method, path, "")
}

func (ts *TestSuite) iSendAnAuthenticatedRequestTo(method, path, user string) error {
	ts.RequestBody = nil
	return ts.send(method, path, ts.tokenFor(user))
}

func (ts *TestSuite) iSendAnAuthenticatedRequestToWithBody(method, path, user string, body *godog.Table) error {
	var err error
	if ts.RequestBody, err = ts.parseDataTableToJSON(body); err != nil {
		return err
	}
	return ts.send(method, path, ts.tokenFor(user))
}

// Send issues a request with the current RequestBody, authenticated with token
// when it is not empty.
func (ts *TestSuite) Send(method, path, token string) error {
	return ts.send(method, path, token)
}

// Lookup resolves a dotted path in the last response body.
func (ts *TestSuite) Lookup(path string) (interface{}, error) {
	return ts.lookup(path)
}

// tokenFor reads the access token stored for user, falling back to the
// generic authToken key.
func (ts *TestSuite) tokenFor(user string) string {
	if token, ok := ts.Storage[user+".token"]; ok {
		return token
	}
	return ts.Storage["authToken"]
}

func (ts *TestSuite) send(method, path, token string) error {
	path = ts.expand(path)
	if ts.BaseURL != "" {
		path = ts.BaseURL + path
	}

	var body io.Reader
	if ts.RequestBody != nil {
		body = bytes.NewReader(ts.RequestBody)
	}
	req, err := http.NewRequest(method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if ts.BaseURL != "" {
		client := &http.Client{}
		ts.Resp, err = client.Do(req)
		if err != nil {
			return err
		}
	} else {
		w := httptest.NewRecorder()
		ts.Router.ServeHTTP(w, req)
		ts.Resp = w.Result()
	}
	defer ts.Resp.Body.Close()

	ts.RespBody, err = io.ReadAll(ts.Resp.Body)
	return err
}

func (ts *TestSuite) theResponseStatusShouldBe(status int) error {
	if ts.Resp == nil {
		return fmt.Errorf("no request has been sent")
	}
	if ts.Resp.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, ts.Resp.StatusCode, ts.RespBody)
	}
	return nil
}

func (ts *TestSuite) theResponseFieldIsStoredAs(field, key string) error {
	val, err := ts.lookup(field)
	if err != nil {
		return err
	}
	ts.Storage[key] = fmt.Sprintf("%v", val)
	return nil
}

// theResponseShouldContainAnItemWith compares each column of the single data
// row to the response field at the same (dotted) path.
func (ts *TestSuite) theResponseShouldContainAnItemWith(body *godog.Table) error {
	if len(body.Rows) < 2 {
		return fmt.Errorf("table must have at least two rows")
	}
	headers := body.Rows[0].Cells
	for j, cell := range body.Rows[1].Cells {
		key := headers[j].Value
		actual, err := ts.lookup(key)
		if err != nil {
			return err
		}
		expected := ts.expand(cell.Value)
		if fmt.Sprintf("%v", actual) != expected {
			return fmt.Errorf("field %s: expected %q, got %q", key, expected, fmt.Sprintf("%v", actual))
		}
	}
	return nil
}

func (ts *TestSuite) theResponseFieldShouldHaveItems(field string, count int) error {
	val, err := ts.lookup(field)
	if err != nil {
		return err
	}
	items, ok := val.([]interface{})
	if !ok {
		return fmt.Errorf("field %s is not a list", field)
	}
	if !assert.Len(ts.T, items, count) {
		return fmt.Errorf("field %s: expected %d items, got %d", field, count, len(items))
	}
	return nil
}

// lookup resolves a dotted path such as "post.slug" or "posts.0.title" in the
// last response body.
func (ts *TestSuite) lookup(path string) (interface{}, error) {
	var data interface{}
	if err := json.Unmarshal(ts.RespBody, &data); err != nil {
		return nil, err
	}
	current := data
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			val, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %s not found in response", path)
			}
			current = val
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("index %s out of range in %s", part, path)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("field %s not found in response", path)
		}
	}
	return current, nil
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_.]+)\}`)

// expand replaces {key} with the stored value of key.
func (ts *TestSuite) expand(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := ts.Storage[match[1:len(match)-1]]; ok {
			return val
		}
		return match
	})
}

func (ts *TestSuite) parseDataTableToJSON(body *godog.Table) ([]byte, error) {
	if len(body.Rows) < 2 {
		return nil, fmt.Errorf("table must have at least two rows")
	}
	headers := body.Rows[0].Cells
	data := make(map[string]interface{})
	for j, cell := range body.Rows[1].Cells {
		data[headers[j].Value] = ts.expand(cell.Value)
	}
	return json.Marshal(data)
}

// Rows turns a data table into one map per row keyed by the header cells.
func Rows(data *godog.Table) ([]map[string]string, error) {
	if len(data.Rows) < 2 {
		return nil, fmt.Errorf("table must have at least two rows")
	}
	headers := data.Rows[0].Cells
	out := make([]map[string]string, 0, len(data.Rows)-1)
	for _, row := range data.Rows[1:] {
		item := make(map[string]string, len(headers))
		for j, cell := range row.Cells {
			item[headers[j].Value] = cell.Value
		}
		out = append(out, item)
	}
	return out, nil
}

func (tl *TestLogger) Write(p []byte) (n int, err error) {
	if tl.T != nil {
		tl.T.Logf("%s", p)
	}
	return len(p), nil
}

// Run executes the feature files under paths against the suite.
func Run(t *testing.T, suite *TestSuite, paths ...string) {
	suite.T = t
	if len(paths) == 0 {
		paths = []string{"features"}
	}
	opts := godog.Options{
		Format:    "pretty",
		Output:    colors.Colored(&TestLogger{T: t}),
		Paths:     paths,
		Strict:    true,
		Randomize: 0,
	}

	status := godog.TestSuite{
		Name:                 "miniblog",
		TestSuiteInitializer: suite.InitializeTestSuite,
		ScenarioInitializer:  suite.InitializeScenario,
		Options:              &opts,
	}.Run()
	if status != 0 {
		t.Fatalf("feature tests failed with status %d", status)
	}
}
