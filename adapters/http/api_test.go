package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	authUC "github.com/khoahotran/mediahub/internal/application/usecase/auth"
	commentUC "github.com/khoahotran/mediahub/internal/application/usecase/comment"
	mediaUC "github.com/khoahotran/mediahub/internal/application/usecase/media"
	ratingUC "github.com/khoahotran/mediahub/internal/application/usecase/rating"
	"github.com/khoahotran/mediahub/internal/application/usecase/usecasetest"
	"github.com/khoahotran/mediahub/internal/domain/user"
	"github.com/khoahotran/mediahub/pkg/auth"
	"github.com/khoahotran/mediahub/pkg/logger"
)

const testUploadLimit = 1 << 20

type APITestSuite struct {
	suite.Suite
	Router   *gin.Engine
	jwtSvc   *auth.JWTService
	mediaRep *usecasetest.MediaRepo
	userRepo *usecasetest.UserRepo
	storage  *usecasetest.Storage

	creator      *user.User
	otherCreator *user.User
	viewer       *user.User
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	s.creator = &user.User{ID: uuid.New(), Email: "ana@example.com", Name: "Ana", Role: user.RoleCreator}
	s.otherCreator = &user.User{ID: uuid.New(), Email: "bo@example.com", Name: "Bo", Role: user.RoleCreator}
	s.viewer = &user.User{ID: uuid.New(), Email: "cy@example.com", Name: "Cy", Role: user.RoleViewer}

	s.mediaRep = usecasetest.NewMediaRepo()
	s.userRepo = usecasetest.NewUserRepo(s.creator, s.otherCreator, s.viewer)
	s.storage = usecasetest.NewStorage()
	pub := &usecasetest.Publisher{}
	s.jwtSvc = auth.NewJWTService("test-secret", time.Hour)

	h := Handlers{
		Auth: NewAuthHandler(
			authUC.NewRegisterUseCase(s.userRepo, s.jwtSvc, log),
			authUC.NewLoginUseCase(s.userRepo, s.jwtSvc, log),
			log,
		),
		Media: NewMediaHandler(
			mediaUC.NewUploadMediaUseCase(s.mediaRep, s.storage, pub, testUploadLimit, log),
			mediaUC.NewGetMediaUseCase(s.mediaRep, s.userRepo),
			mediaUC.NewListMediaUseCase(s.mediaRep, s.userRepo),
			mediaUC.NewSearchMediaUseCase(s.mediaRep, s.userRepo),
			mediaUC.NewDeleteMediaUseCase(s.mediaRep, s.storage, pub, log),
			testUploadLimit,
			log,
		),
		Comment: NewCommentHandler(
			commentUC.NewAddCommentUseCase(s.mediaRep, s.userRepo, pub, log),
			commentUC.NewListCommentsUseCase(s.mediaRep, s.userRepo),
			commentUC.NewDeleteCommentUseCase(s.mediaRep, log),
		),
		Rating: NewRatingHandler(
			ratingUC.NewUpsertRatingUseCase(s.mediaRep, pub, log),
			ratingUC.NewListRatingsUseCase(s.mediaRep, s.userRepo),
			ratingUC.NewDeleteRatingUseCase(s.mediaRep, pub, log),
		),
		RSS: NewRSSHandler(mediaUC.NewFeedMediaUseCase(s.mediaRep, s.userRepo, "https://media.example.com", log), log),
	}
	s.Router = NewRouter(h, s.jwtSvc, nil, log)
}

func (s *APITestSuite) token(u *user.User) string {
	tok, err := s.jwtSvc.GenerateToken(u.ID, string(u.Role))
	s.Require().NoError(err)
	return tok
}

func (s *APITestSuite) do(method, path string, body []byte, contentType string, as *user.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(as))
	}
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func (s *APITestSuite) doJSON(method, path string, payload any, as *user.User) *httptest.ResponseRecorder {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		s.Require().NoError(err)
	}
	return s.do(method, path, body, "application/json", as)
}

func uploadBody(t *testing.T, fileName, contentType string, data []byte, fields map[string]string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="media"; filename="`+fileName+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func (s *APITestSuite) upload(as *user.User, title string) MediaDTO {
	body, ct := uploadBody(s.T(), "beach day.mp4", "video/mp4", []byte("fake video bytes"), map[string]string{
		"title":    title,
		"caption":  "sunset",
		"location": "Da Nang",
		"tags":     `["beach","summer"]`,
	})
	rr := s.do(http.MethodPost, "/api/media/upload", body, ct, as)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var dto MediaDTO
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &dto))
	return dto
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func (s *APITestSuite) Test_Health() {
	rr := s.do(http.MethodGet, "/api/health", nil, "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("UP", decodeMap(s.T(), rr)["status"])
}

func (s *APITestSuite) Test_Metrics() {
	rr := s.do(http.MethodGet, "/metrics", nil, "", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "go_goroutines")
}

func (s *APITestSuite) Test_Feed_IsPublic() {
	s.upload(s.creator, "Sunset reel")

	rr := s.do(http.MethodGet, "/api/feed.rss", nil, "", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Header().Get("Content-Type"), "application/rss+xml")
	s.Contains(rr.Body.String(), "<title>Sunset reel</title>")
	s.Contains(rr.Body.String(), "https://media.example.com/api/media/")
}

func (s *APITestSuite) Test_Register_And_Login_Flow() {
	rr := s.doJSON(http.MethodPost, "/api/auth/register", gin.H{
		"email": "new@example.com", "name": "Neo", "password": "supersecret", "role": "creator",
	}, nil)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var reg AuthResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &reg))
	s.NotEmpty(reg.AccessToken)
	s.Equal("creator", reg.User.Role)

	rr = s.doJSON(http.MethodPost, "/api/auth/register", gin.H{
		"email": "new@example.com", "name": "Neo", "password": "supersecret",
	}, nil)
	s.Equal(http.StatusConflict, rr.Code)

	rr = s.doJSON(http.MethodPost, "/api/auth/login", gin.H{"email": "new@example.com", "password": "wrongpassword"}, nil)
	s.Equal(http.StatusUnauthorized, rr.Code)
	wrongPassword := decodeMap(s.T(), rr)

	rr = s.doJSON(http.MethodPost, "/api/auth/login", gin.H{"email": "nobody@example.com", "password": "wrongpassword"}, nil)
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(wrongPassword, decodeMap(s.T(), rr))

	rr = s.doJSON(http.MethodPost, "/api/auth/login", gin.H{"email": "new@example.com", "password": "supersecret"}, nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	var login AuthResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &login))

	req := httptest.NewRequest(http.MethodGet, "/api/media", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	got := httptest.NewRecorder()
	s.Router.ServeHTTP(got, req)
	s.Equal(http.StatusOK, got.Code)
}

func (s *APITestSuite) Test_Register_RejectsMissingFields() {
	rr := s.doJSON(http.MethodPost, "/api/auth/register", gin.H{"email": "x@example.com"}, nil)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("invalid input", decodeMap(s.T(), rr)["error"])
}

func (s *APITestSuite) Test_PrivateRoutes_RequireToken() {
	rr := s.do(http.MethodGet, "/api/media", nil, "", nil)
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal("unauthorized", decodeMap(s.T(), rr)["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/media", nil)
	req.Header.Set("Authorization", "Token abc")
	got := httptest.NewRecorder()
	s.Router.ServeHTTP(got, req)
	s.Equal(http.StatusUnauthorized, got.Code)
}

func (s *APITestSuite) Test_Upload_ViewerForbidden() {
	body, ct := uploadBody(s.T(), "a.mp4", "video/mp4", []byte("x"), map[string]string{"title": "t"})
	rr := s.do(http.MethodPost, "/api/media/upload", body, ct, s.viewer)
	s.Equal(http.StatusForbidden, rr.Code)
	s.Equal(0, s.storage.Len())
	s.Equal(0, s.mediaRep.Len())
}

func (s *APITestSuite) Test_Upload_StoresObjectAndDocument() {
	dto := s.upload(s.creator, "Beach")

	s.Equal("video", dto.Type)
	s.Equal("Beach", dto.Title)
	s.Equal([]string{"beach", "summer"}, dto.Tags)
	s.Equal(s.creator.ID, dto.Creator.ID)
	s.Contains(dto.URL, "https://cdn.example.com/")
	s.Contains(dto.URL, "beach-day.mp4")
	s.Equal(1, s.storage.Len())
	s.Equal(1, s.mediaRep.Len())
}

func (s *APITestSuite) Test_Upload_Rejections() {
	// missing file
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	s.Require().NoError(w.WriteField("title", "x"))
	s.Require().NoError(w.Close())
	rr := s.do(http.MethodPost, "/api/media/upload", buf.Bytes(), w.FormDataContentType(), s.creator)
	s.Equal(http.StatusBadRequest, rr.Code)

	body, ct := uploadBody(s.T(), "notes.txt", "text/plain", []byte("hello"), map[string]string{"title": "x"})
	rr = s.do(http.MethodPost, "/api/media/upload", body, ct, s.creator)
	s.Equal(http.StatusBadRequest, rr.Code)

	body, ct = uploadBody(s.T(), "a.mp4", "video/mp4", []byte("v"), map[string]string{"title": "x", "tags": "beach,summer"})
	rr = s.do(http.MethodPost, "/api/media/upload", body, ct, s.creator)
	s.Equal(http.StatusBadRequest, rr.Code)

	body, ct = uploadBody(s.T(), "big.mp4", "video/mp4", make([]byte, testUploadLimit+1), map[string]string{"title": "x"})
	rr = s.do(http.MethodPost, "/api/media/upload", body, ct, s.creator)
	s.Equal(http.StatusRequestEntityTooLarge, rr.Code)
	s.Equal("payload too large", decodeMap(s.T(), rr)["error"])

	s.Equal(0, s.storage.Len())
	s.Equal(0, s.mediaRep.Len())
}

func (s *APITestSuite) Test_List_And_Get() {
	for i := 0; i < 3; i++ {
		s.upload(s.creator, "clip")
	}

	rr := s.do(http.MethodGet, "/api/media?page=2&limit=2", nil, "", s.viewer)
	s.Require().Equal(http.StatusOK, rr.Code)
	var list MediaListResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &list))
	s.Len(list.Media, 1)
	s.Equal(2, list.CurrentPage)
	s.Equal(2, list.TotalPages)
	s.Equal(int64(3), list.TotalMedia)
	s.Equal("Ana", list.Media[0].Creator.Name)
	s.Equal("ana@example.com", list.Media[0].Creator.Email)

	rr = s.do(http.MethodGet, "/api/media?page=abc&limit=-3", nil, "", s.viewer)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &list))
	s.Equal(1, list.CurrentPage)
	s.Len(list.Media, 3)

	id := list.Media[0].ID
	rr = s.do(http.MethodGet, "/api/media/"+id.String(), nil, "", s.viewer)
	s.Equal(http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/api/media/"+uuid.NewString(), nil, "", s.viewer)
	s.Equal(http.StatusNotFound, rr.Code)

	rr = s.do(http.MethodGet, "/api/media/not-a-uuid", nil, "", s.viewer)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *APITestSuite) Test_Search() {
	s.upload(s.creator, "Beach")

	rr := s.do(http.MethodGet, "/api/media/search?query=beach&type=video", nil, "", s.viewer)
	s.Require().Equal(http.StatusOK, rr.Code)
	var items []MediaDTO
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &items))
	s.Len(items, 1)

	rr = s.do(http.MethodGet, "/api/media/search?query=beach&type=image", nil, "", s.viewer)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &items))
	s.Empty(items)

	rr = s.do(http.MethodGet, "/api/media/search?type=audio", nil, "", s.viewer)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *APITestSuite) Test_Delete_OwnershipEnforced() {
	dto := s.upload(s.creator, "Mine")
	path := "/api/media/" + dto.ID.String()

	rr := s.do(http.MethodDelete, path, nil, "", s.otherCreator)
	s.Equal(http.StatusForbidden, rr.Code)
	s.Equal(1, s.mediaRep.Len())
	s.Equal(1, s.storage.Len())

	rr = s.do(http.MethodDelete, path, nil, "", s.viewer)
	s.Equal(http.StatusForbidden, rr.Code)

	rr = s.do(http.MethodDelete, path, nil, "", s.creator)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal("Media deleted successfully", decodeMap(s.T(), rr)["message"])
	s.Equal(0, s.mediaRep.Len())
	s.Equal(0, s.storage.Len())

	rr = s.do(http.MethodGet, path, nil, "", s.creator)
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *APITestSuite) Test_Comments() {
	dto := s.upload(s.creator, "Talk")
	path := "/api/comments/" + dto.ID.String()

	rr := s.doJSON(http.MethodPost, path, gin.H{"text": "  "}, s.viewer)
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.doJSON(http.MethodPost, path, gin.H{"text": "nice shot"}, s.viewer)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	var comment CommentDTO
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &comment))
	s.Equal("nice shot", comment.Text)
	s.Equal("Cy", comment.User.Name)

	rr = s.do(http.MethodGet, path, nil, "", s.creator)
	s.Require().Equal(http.StatusOK, rr.Code)
	var comments []CommentDTO
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &comments))
	s.Len(comments, 1)

	rr = s.do(http.MethodDelete, path+"/"+comment.ID.String(), nil, "", s.creator)
	s.Equal(http.StatusForbidden, rr.Code)

	rr = s.do(http.MethodDelete, path+"/"+comment.ID.String(), nil, "", s.viewer)
	s.Equal(http.StatusOK, rr.Code)

	rr = s.do(http.MethodDelete, path+"/"+comment.ID.String(), nil, "", s.viewer)
	s.Equal(http.StatusNotFound, rr.Code)

	rr = s.doJSON(http.MethodPost, "/api/comments/"+uuid.NewString(), gin.H{"text": "hi"}, s.viewer)
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *APITestSuite) Test_Ratings() {
	dto := s.upload(s.creator, "Rate me")
	path := "/api/ratings/" + dto.ID.String()

	for _, v := range []int{4, 4} {
		rr := s.doJSON(http.MethodPost, path, gin.H{"value": v}, s.viewer)
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	}
	rr := s.doJSON(http.MethodPost, path, gin.H{"value": 2}, s.creator)
	s.Require().Equal(http.StatusOK, rr.Code)
	var summary RatingSummaryResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &summary))
	s.Equal(2, summary.TotalRatings)
	s.InDelta(3.0, summary.AverageRating, 1e-9)

	rr = s.doJSON(http.MethodPost, path, gin.H{"value": 9}, s.viewer)
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.doJSON(http.MethodPost, path, gin.H{}, s.viewer)
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodGet, path, nil, "", s.viewer)
	s.Require().Equal(http.StatusOK, rr.Code)
	var list RatingListResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &list))
	s.Len(list.Ratings, 2)
	s.Equal(2, list.TotalRatings)

	rr = s.do(http.MethodDelete, path, nil, "", s.viewer)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &summary))
	s.Equal(1, summary.TotalRatings)
	s.InDelta(2.0, summary.AverageRating, 1e-9)
}

type fakeCounter struct {
	mu   sync.Mutex
	hits map[string]int64
	err  error
}

func (f *fakeCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.hits == nil {
		f.hits = make(map[string]int64)
	}
	f.hits[key]++
	return f.hits[key], nil
}

func newLimitedRouter(counter HitCounter, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(counter, "rl", limit, time.Minute, logger.NewNop())
	r := gin.New()
	r.Use(ErrorMiddleware(logger.NewNop()))
	r.GET("/ping", limiter.Middleware(), func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	counter := &fakeCounter{}
	r := newLimitedRouter(counter, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, rr.Code)
		if i == 1 {
			assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Len(t, counter.hits, 1)
	for key := range counter.hits {
		assert.Contains(t, key, "rl:ip:")
	}
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	r := newLimitedRouter(&fakeCounter{err: errors.New("redis down")}, 1)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimiter_KeysOnUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	counter := &fakeCounter{}
	limiter := NewRateLimiter(counter, "rl", 5, time.Minute, logger.NewNop())
	id := uuid.New()

	r := gin.New()
	r.GET("/ping", func(c *gin.Context) { c.Set(GinContextKeyUserID, id) }, limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, int64(1), counter.hits["rl:user:"+id.String()])
}

func TestParseTags(t *testing.T) {
	tags, err := parseTags("")
	require.NoError(t, err)
	assert.Empty(t, tags)

	tags, err = parseTags(`["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tags)

	_, err = parseTags("a,b")
	assert.Error(t, err)
}
