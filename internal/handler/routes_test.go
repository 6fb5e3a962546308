package handler

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"html"
	"image"
	"image/png"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderlust/wanderlust-go/internal/crypto"
	"github.com/wanderlust/wanderlust-go/internal/model"
	"github.com/wanderlust/wanderlust-go/internal/repository"
	"github.com/wanderlust/wanderlust-go/internal/service"
	"github.com/wanderlust/wanderlust-go/internal/session"
	"github.com/wanderlust/wanderlust-go/internal/view"
	"github.com/wanderlust/wanderlust-go/web"
)

type testApp struct {
	srv   *httptest.Server
	store *repository.MemoryStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := repository.NewMemoryStore()
	hasher := crypto.NewPasswordHasher(crypto.HashParams{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16,
	})

	renderer, err := view.New(web.FS)
	require.NoError(t, err)
	static, err := fs.Sub(web.FS, "static")
	require.NoError(t, err)

	router := NewRouter(Deps{
		Listings: service.NewListingService(store.Listings(), store.Reviews(), store.Users(), store.Images()),
		Reviews:  service.NewReviewService(store.Listings(), store.Reviews()),
		Auth:     service.NewAuthService(store.Users(), hasher),
		Images:   service.NewImageService(store.Images()),
		Sessions: session.NewManager(session.NewMemoryStore(), session.Options{
			Secret: "test-secret", MaxAge: time.Hour, TouchAfter: time.Hour,
		}),
		View:           renderer,
		Static:         static,
		MaxUploadBytes: 1 << 20,
		LoginRate:      100,
		LoginBurst:     100,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testApp{srv: srv, store: store}
}

func (a *testApp) client(t *testing.T) *http.Client {
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

func (a *testApp) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(a.srv.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(a.srv.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) postMultipart(t *testing.T, c *http.Client, path string, fields map[string]string, img []byte) (*http.Response, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if img != nil {
		part, err := mw.CreateFormFile("listing[image]", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := c.Post(a.srv.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

// follow fetches the page a redirect points at.
func (a *testApp) follow(t *testing.T, c *http.Client, resp *http.Response) string {
	t.Helper()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	_, body := a.get(t, c, resp.Header.Get("Location"))
	return body
}

func (a *testApp) signup(t *testing.T, name string) *http.Client {
	t.Helper()
	c := a.client(t)
	resp, _ := a.post(t, c, "/signup", url.Values{
		"username": {name},
		"email":    {name + "@example.com"},
		"password": {"secret"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/listings", resp.Header.Get("Location"))
	return c
}

func (a *testApp) createListing(t *testing.T, c *http.Client, title string) *model.Listing {
	t.Helper()
	resp, _ := a.postMultipart(t, c, "/listings", listingFields(title), pngBytes(t, 8, 4))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/listings", resp.Header.Get("Location"))

	all, err := a.store.Listings().List(context.Background())
	require.NoError(t, err)
	for i := range all {
		if all[i].Title == title {
			return &all[i]
		}
	}
	require.Failf(t, "listing not stored", "title %q", title)
	return nil
}

func (a *testApp) review(t *testing.T, c *http.Client, l *model.Listing, rating string) *http.Response {
	t.Helper()
	resp, _ := a.post(t, c, "/listings/"+l.ID.Hex()+"/reviews", url.Values{
		"review[rating]":  {rating},
		"review[comment]": {"lovely stay"},
	})
	return resp
}

func listingFields(title string) map[string]string {
	return map[string]string{
		"listing[title]":       title,
		"listing[description]": "A quiet place",
		"listing[price]":       "1200",
		"listing[location]":    "Manali",
		"listing[country]":     "India",
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// oversizedPNG is a grayscale PNG header declaring a 12000×12000 canvas.
func oversizedPNG() []byte {
	ihdr := []byte("IHDR")
	ihdr = binary.BigEndian.AppendUint32(ihdr, 12000)
	ihdr = binary.BigEndian.AppendUint32(ihdr, 12000)
	ihdr = append(ihdr, 8, 0, 0, 0, 0)

	out := []byte("\x89PNG\r\n\x1a\n")
	out = binary.BigEndian.AppendUint32(out, 13)
	out = append(out, ihdr...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(ihdr))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func escaped(s string) string {
	return html.EscapeString(s)
}

func TestCreateListingShowsOwnerAndImage(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice")
	l := a.createListing(t, alice, "Cosy Cabin")

	_, body := a.get(t, alice, "/listings")
	assert.Contains(t, body, "New Listing Added!")
	assert.Contains(t, body, "Cosy Cabin")
	assert.Contains(t, body, "1,200")

	resp, body := a.get(t, alice, "/listings/"+l.ID.Hex())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Owned by <i>alice</i>")
	assert.Contains(t, body, l.Image.URL)
	assert.Contains(t, body, "/listings/"+l.ID.Hex()+"/edit")
}

func TestCreateListingRejectsInvalidPayload(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice")

	fields := listingFields("")
	resp, body := a.postMultipart(t, alice, "/listings", fields, pngBytes(t, 2, 2))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, escaped(`"listing.title" is required`))
	assert.Zero(t, a.store.Images().Len())

	resp, body = a.postMultipart(t, alice, "/listings", listingFields("No photo"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, escaped(`"listing.image" is required`))

	resp, _ = a.postMultipart(t, alice, "/listings", listingFields("Text"), []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, a.store.Images().Len())

	resp, body = a.postMultipart(t, alice, "/listings", listingFields("Huge"), oversizedPNG())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, service.ErrImageTooLarge.Error())
	assert.Zero(t, a.store.Images().Len())
}

func TestAnonymousRedirectedToLoginAndBack(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, "alice")
	anon := a.client(t)

	resp, _ := a.get(t, anon, "/listings/new")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Contains(t, a.follow(t, anon, resp), "you must be logged in")

	resp, _ = a.post(t, anon, "/login", url.Values{"username": {"alice"}, "password": {"secret"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/listings/new", resp.Header.Get("Location"))
	assert.Contains(t, a.follow(t, anon, resp), "Welcome back to WanderLust!")
}

func TestLoginFailure(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, "alice")
	c := a.client(t)

	resp, _ := a.post(t, c, "/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Contains(t, a.follow(t, c, resp), "Password or username is incorrect")
}

func TestSignupDuplicateUsername(t *testing.T) {
	a := newTestApp(t)
	a.signup(t, "alice")
	c := a.client(t)

	resp, _ := a.post(t, c, "/signup", url.Values{
		"username": {"alice"}, "email": {"other@example.com"}, "password": {"pw"},
	})
	assert.Equal(t, "/signup", resp.Header.Get("Location"))
	assert.Contains(t, a.follow(t, c, resp), service.ErrUsernameTaken.Error())
}

func TestLogout(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice")

	resp, _ := a.get(t, alice, "/logout")
	assert.Contains(t, a.follow(t, alice, resp), "you are logged out!")

	resp, _ = a.get(t, alice, "/listings/new")
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestNonOwnerCannotDeleteListing(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice")
	bob := a.signup(t, "bob")
	l := a.createListing(t, alice, "Cabin")

	resp, _ := a.post(t, bob, "/listings/"+l.ID.Hex()+"?_method=DELETE", nil)
	assert.Equal(t, "/listings/"+l.ID.Hex(), resp.Header.Get("Location"))
	assert.Contains(t, a.follow(t, bob, resp), "you are not the owner")

	_, err := a.store.Listings().GetByID(context.Background(), l.ID)
	assert.NoError(t, err)
}

func TestNonOwnerCannotUpdateListing(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice")
	bob := a.signup(t, "bob")
	l := a.createListing(t, alice, "Cabin")

	resp, _ := a.postMultipart(t, bob, "/listings/"+l.ID.Hex()+"?_method=PUT", listingFields("Hijacked"), nil)
	assert.Equal(t, "/listings/"+l.ID.Hex(), resp.Header.Get("Location"))

	got, err := a.store.Listings().GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cabin", got.Title)
}

func TestOwnerUpdateIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice")
	l := a.createListing(t, alice, "Cabin")
	path := "/listings/" + l.ID.Hex() + "?_method=PUT"

	resp, _ := a.postMultipart(t, alice, path, listingFields("Treehouse"), nil)
	assert.Equal(t, "/listings/"+l.ID.Hex(), resp.Header.Get("Location"))
	first, err := a.store.Listings().GetByID(context.Background(), l.ID)
	require.NoError(t, err)

	a.postMultipart(t, alice, path, listingFields("Treehouse"), nil)
	second, err := a.store.Listings().GetByID(context.Background(), l.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Treehouse", second.Title)
	assert.Equal(t, l.Image, second.Image)
}

func TestEditFormShowsThumbnail(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice")
	l := a.createListing(t, alice, "Cabin")

	resp, body := a.get(t, alice, "/listings/"+l.ID.Hex()+"/edit")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/upload/w_250/"+l.Image.Filename)
}

func TestReviewRatingOutOfRange(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice")
	bob := a.signup(t, "bob")
	l := a.createListing(t, alice, "Cabin")

	for _, rating := range []string{"6", "0", "3.5", "abc"} {
		resp := a.review(t, bob, l, rating)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "rating %s", rating)
	}
	assert.Zero(t, a.store.Reviews().Count())

	_, body := a.post(t, bob, "/listings/"+l.ID.Hex()+"/reviews", url.Values{
		"review[rating]": {"6"}, "review[comment]": {"x"},
	})
	assert.Contains(t, body, escaped(`"review.rating" must be less than or equal to 5`))
}

func TestReviewLifecycle(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice")
	bob := a.signup(t, "bob")
	l := a.createListing(t, alice, "Cabin")

	resp := a.review(t, alice, l, "5")
	assert.Contains(t, a.follow(t, alice, resp), "you cannot review your own listing")

	resp = a.review(t, bob, l, "4")
	assert.Equal(t, "/listings/"+l.ID.Hex(), resp.Header.Get("Location"))
	body := a.follow(t, bob, resp)
	assert.Contains(t, body, "Review Added!")
	assert.Contains(t, body, "@bob")

	got, err := a.store.Listings().GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	require.Len(t, got.Reviews, 1)
	reviewPath := "/listings/" + l.ID.Hex() + "/reviews/" + got.Reviews[0].Hex() + "?_method=DELETE"

	resp, _ = a.post(t, alice, reviewPath, nil)
	assert.Contains(t, a.follow(t, alice, resp), "you are not the author of this review!")

	resp, _ = a.post(t, bob, reviewPath, nil)
	assert.Contains(t, a.follow(t, bob, resp), "Review Deleted!")
	assert.Zero(t, a.store.Reviews().Count())
}

func TestDeleteListingRemovesReviews(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice")
	bob := a.signup(t, "bob")
	carol := a.signup(t, "carol")
	l := a.createListing(t, alice, "Cabin")

	a.review(t, bob, l, "4")
	a.review(t, carol, l, "5")
	require.Equal(t, 2, a.store.Reviews().Count())

	resp, _ := a.post(t, alice, "/listings/"+l.ID.Hex()+"?_method=DELETE", nil)
	assert.Equal(t, "/listings", resp.Header.Get("Location"))
	assert.Contains(t, a.follow(t, alice, resp), "Listing Deleted!")

	assert.Zero(t, a.store.Reviews().Count())
	assert.Zero(t, a.store.Images().Len())
}

func TestMissingListing(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)

	for _, id := range []string{"000000000000000000000000", "not-an-id"} {
		resp, _ := a.get(t, c, "/listings/"+id)
		assert.Equal(t, "/listings", resp.Header.Get("Location"))
		assert.Contains(t, a.follow(t, c, resp), escaped("Listing doesn't exist!"))
	}
}

func TestUnknownRoute(t *testing.T) {
	a := newTestApp(t)

	resp, body := a.get(t, a.client(t), "/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page Not Found!..")
}

func TestServeImages(t *testing.T) {
	a := newTestApp(t)
	alice := a.signup(t, "alice")
	l := a.createListing(t, alice, "Cabin")
	c := a.client(t)

	resp, _ := a.get(t, c, l.Image.URL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, body := a.get(t, c, "/upload/w_4/"+l.Image.Filename)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cfg, err := png.DecodeConfig(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 2, cfg.Height)

	resp, _ = a.get(t, c, "/upload/w_0/"+l.Image.Filename)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = a.get(t, c, "/upload/000000000000000000000000")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndStatic(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)

	resp, body := a.get(t, c, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)

	resp, _ = a.get(t, c, "/static/css/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, "/listings/new", localPath("/listings/new"))
	assert.Equal(t, "/listings", localPath(""))
	assert.Equal(t, "/listings", localPath("//evil.test"))
	assert.Equal(t, "/listings", localPath("https://evil.test"))
}
