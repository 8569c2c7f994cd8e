package handler_test

// End-to-end tests against the fully wired router: real sqlite (in
// memory), real services, real cookies. Each test client is a separate
// browser with its own cookie jar; redirects are not followed so the
// tests can assert on the 303s themselves.

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahmid/screenroom/internal/config"
	"github.com/tahmid/screenroom/internal/model"
	"github.com/tahmid/screenroom/internal/server"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		Port:          0,
		DBPath:        ":memory:",
		SessionSecret: "e2e-test-secret-0123456789",
		SessionTTL:    1,
		BcryptCost:    4, // bcrypt.MinCost, registration would crawl otherwise
	}

	srv, err := server.New(cfg, nil, testLogger())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return ts
}

// newBrowser returns a client with a cookie jar that reports redirects
// instead of following them.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, c *http.Client, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.Post(target, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, c *http.Client, target string) *http.Response {
	t.Helper()
	resp, err := c.Get(target)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// signUp registers and logs in a user, leaving the session cookie in the
// client's jar.
func signUp(t *testing.T, ts *httptest.Server, c *http.Client, username string) {
	t.Helper()

	resp := postForm(t, c, ts.URL+"/register", url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {"correct horse battery"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp = postForm(t, c, ts.URL+"/login", url.Values{
		"username": {username},
		"password": {"correct horse battery"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/screenplays", resp.Header.Get("Location"))
}

// createScreenplay returns the new screenplay's ID, parsed from the
// redirect target.
func createScreenplay(t *testing.T, ts *httptest.Server, c *http.Client, title string) string {
	t.Helper()
	resp := postForm(t, c, ts.URL+"/screenplays", url.Values{"title": {title}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/screenplays/"), "unexpected redirect %q", loc)
	return strings.TrimPrefix(loc, "/screenplays/")
}

// createScene returns the new scene's ID.
func createScene(t *testing.T, ts *httptest.Server, c *http.Client, screenplayID, slugline string) string {
	t.Helper()
	resp := postForm(t, c, ts.URL+"/screenplays/"+screenplayID+"/scenes",
		url.Values{"slugline": {slugline}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/scenes/"), "unexpected redirect %q", loc)
	return strings.TrimPrefix(loc, "/scenes/")
}

func listScenes(t *testing.T, ts *httptest.Server, c *http.Client, screenplayID string) []model.Scene {
	t.Helper()
	resp := get(t, c, ts.URL+"/screenplays/"+screenplayID+"/scenes")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Scenes []model.Scene `json:"scenes"`
	}
	require.NoError(t, decodeJSON(resp, &body))
	return body.Scenes
}

// TestWriterLifecycle walks the whole happy path: register, log in,
// start a screenplay, write two scenes, cut the first, and see the
// survivor renumbered to position 1.
func TestWriterLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := newBrowser(t)

	signUp(t, ts, alice, "alice")

	spID := createScreenplay(t, ts, alice, "Pilot")

	first := createScene(t, ts, alice, spID, "INT. WRITERS ROOM - DAY")
	second := createScene(t, ts, alice, spID, "EXT. STUDIO LOT - NIGHT")

	scenes := listScenes(t, ts, alice, spID)
	require.Len(t, scenes, 2)
	assert.Equal(t, first, scenes[0].ID)
	assert.Equal(t, 1, scenes[0].Sequence)
	assert.Equal(t, second, scenes[1].ID)
	assert.Equal(t, 2, scenes[1].Sequence)

	// Cut the opening scene.
	resp := postForm(t, alice, ts.URL+"/scenes/"+first+"/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/screenplays/"+spID+"/scenes", resp.Header.Get("Location"))

	scenes = listScenes(t, ts, alice, spID)
	require.Len(t, scenes, 1)
	assert.Equal(t, second, scenes[0].ID)
	assert.Equal(t, 1, scenes[0].Sequence, "survivor takes over position 1")

	// The denormalized count followed along.
	resp = get(t, alice, ts.URL+"/screenplays/"+spID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		Screenplay model.Screenplay `json:"screenplay"`
	}
	require.NoError(t, decodeJSON(resp, &detail))
	assert.Equal(t, 1, detail.Screenplay.TotalScenes)
}

func TestAnonymousRedirectsToLogin(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)

	resp := get(t, c, ts.URL+"/screenplays")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fscreenplays", resp.Header.Get("Location"))
}

func TestOwnershipIsEnforcedOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	alice := newBrowser(t)
	signUp(t, ts, alice, "alice")
	spID := createScreenplay(t, ts, alice, "Pilot")
	sceneID := createScene(t, ts, alice, spID, "INT. WRITERS ROOM - DAY")

	mallory := newBrowser(t)
	signUp(t, ts, mallory, "mallory")

	assert.Equal(t, http.StatusForbidden,
		get(t, mallory, ts.URL+"/screenplays/"+spID).StatusCode)
	assert.Equal(t, http.StatusForbidden,
		get(t, mallory, ts.URL+"/scenes/"+sceneID).StatusCode)
	assert.Equal(t, http.StatusForbidden,
		postForm(t, mallory, ts.URL+"/scenes/"+sceneID+"/delete", url.Values{}).StatusCode)
	assert.Equal(t, http.StatusForbidden,
		postForm(t, mallory, ts.URL+"/screenplays/"+spID+"/delete", url.Values{}).StatusCode)

	// Mallory's own list does not leak Alice's work.
	resp := get(t, mallory, ts.URL+"/screenplays")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Screenplays []model.Screenplay `json:"screenplays"`
	}
	require.NoError(t, decodeJSON(resp, &body))
	assert.Empty(t, body.Screenplays)
}

func TestLoginFailureFlashesBack(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)
	signUp(t, ts, c, "alice")

	// Log out, then fail a login.
	resp := postForm(t, c, ts.URL+"/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = postForm(t, c, ts.URL+"/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// The form page carries the notice and the entered username, never
	// the password.
	resp = get(t, c, ts.URL+"/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Flash *struct {
			Message string            `json:"message"`
			Values  map[string]string `json:"values"`
		} `json:"flash"`
	}
	require.NoError(t, decodeJSON(resp, &page))
	require.NotNil(t, page.Flash)
	assert.Equal(t, "invalid username or password", page.Flash.Message)
	assert.Equal(t, "alice", page.Flash.Values["username"])
	assert.NotContains(t, page.Flash.Values, "password")

	// Flash is one-shot.
	resp = get(t, c, ts.URL+"/login")
	var again struct {
		Flash interface{} `json:"flash"`
	}
	require.NoError(t, decodeJSON(resp, &again))
	assert.Nil(t, again.Flash)
}

func TestDuplicateUsernameFlashesBack(t *testing.T) {
	ts := newTestServer(t)
	alice := newBrowser(t)
	signUp(t, ts, alice, "alice")

	other := newBrowser(t)
	resp := postForm(t, other, ts.URL+"/register", url.Values{
		"username": {"alice"},
		"email":    {"second@example.com"},
		"password": {"correct horse battery"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/register", resp.Header.Get("Location"))

	resp = get(t, other, ts.URL+"/register")
	var page struct {
		Flash *struct {
			Message string            `json:"message"`
			Field   string            `json:"field"`
			Values  map[string]string `json:"values"`
		} `json:"flash"`
	}
	require.NoError(t, decodeJSON(resp, &page))
	require.NotNil(t, page.Flash)
	assert.Equal(t, "username", page.Flash.Field)
	assert.Equal(t, "second@example.com", page.Flash.Values["email"])
}

func TestNextRedirectPreserved(t *testing.T) {
	ts := newTestServer(t)
	alice := newBrowser(t)
	signUp(t, ts, alice, "alice")
	spID := createScreenplay(t, ts, alice, "Pilot")

	// A fresh browser hits the protected detail page.
	c := newBrowser(t)
	target := "/screenplays/" + spID
	resp := get(t, c, ts.URL+target)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login?next="+url.QueryEscape(target), resp.Header.Get("Location"))

	// Registering and logging in with next lands on the original page.
	postForm(t, c, ts.URL+"/register", url.Values{
		"username": {"bob"},
		"email":    {"bob@example.com"},
		"password": {"correct horse battery"},
	})
	resp = postForm(t, c, ts.URL+"/login", url.Values{
		"username": {"bob"},
		"password": {"correct horse battery"},
		"next":     {target},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, target, resp.Header.Get("Location"))
}

// Open-redirect attempts fall back to the default landing page.
func TestLoginNextCannotLeaveTheSite(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)
	signUp(t, ts, c, "alice")
	postForm(t, c, ts.URL+"/logout", url.Values{})

	for _, next := range []string{"https://evil.example", "//evil.example", "javascript:alert(1)"} {
		resp := postForm(t, c, ts.URL+"/login", url.Values{
			"username": {"alice"},
			"password": {"correct horse battery"},
			"next":     {next},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/screenplays", resp.Header.Get("Location"), "next=%q", next)
	}
}

func TestSceneMoveOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	alice := newBrowser(t)
	signUp(t, ts, alice, "alice")
	spID := createScreenplay(t, ts, alice, "Pilot")

	var ids []string
	for _, slug := range []string{"SCENE A", "SCENE B", "SCENE C"} {
		ids = append(ids, createScene(t, ts, alice, spID, slug))
	}

	resp := postForm(t, alice, ts.URL+"/scenes/"+ids[2]+"/move",
		url.Values{"position": {"1"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	scenes := listScenes(t, ts, alice, spID)
	require.Len(t, scenes, 3)
	assert.Equal(t, []string{ids[2], ids[0], ids[1]},
		[]string{scenes[0].ID, scenes[1].ID, scenes[2].ID})
	for i, sc := range scenes {
		assert.Equal(t, i+1, sc.Sequence)
	}
}

// Tags in form input are stripped before anything is stored.
func TestInputIsSanitized(t *testing.T) {
	ts := newTestServer(t)
	alice := newBrowser(t)
	signUp(t, ts, alice, "alice")

	resp := postForm(t, alice, ts.URL+"/screenplays", url.Values{
		"title":   {`Pilot <script>alert("xss")</script>`},
		"logline": {"<b>bold</b> claim"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	spID := strings.TrimPrefix(resp.Header.Get("Location"), "/screenplays/")

	detail := get(t, alice, ts.URL+"/screenplays/"+spID)
	var body struct {
		Screenplay model.Screenplay `json:"screenplay"`
	}
	require.NoError(t, decodeJSON(detail, &body))
	assert.NotContains(t, body.Screenplay.Title, "<script>")
	assert.Equal(t, "bold claim", body.Screenplay.Logline)
}
