package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MediaType string

const (
	TypeVideo MediaType = "video"
	TypeImage MediaType = "image"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrURLRequired     = errors.New("url is required")
	ErrCreatorRequired = errors.New("creator is required")
	ErrInvalidType     = errors.New("type must be 'video' or 'image'")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrEmptyComment    = errors.New("comment text is required")
	ErrUnsupportedFile = errors.New("only video and image files are allowed")
)

type Rating struct {
	UserID  uuid.UUID `json:"user_id"`
	Value   int       `json:"value"`
	RatedAt time.Time `json:"rated_at"`
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Media struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Caption      string    `json:"caption"`
	Type         MediaType `json:"type"`
	URL          string    `json:"url"`
	StorageKey   string    `json:"storage_key"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	ThumbnailKey string    `json:"thumbnail_key"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	Location     string    `json:"location"`
	Tags         []string  `json:"tags"`
	CreatorID    uuid.UUID `json:"creator_id"`
	Ratings      []Rating  `json:"ratings"`
	Comments     []Comment `json:"comments"`
	CreatedAt    time.Time `json:"created_at"`
}

// RatingSummary is derived on read and never stored.
type RatingSummary struct {
	Average float64 `json:"average_rating"`
	Count   int     `json:"total_ratings"`
}

// TypeFromContentType maps a MIME type onto a media type.
func TypeFromContentType(contentType string) (MediaType, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "video/"):
		return TypeVideo, nil
	case strings.HasPrefix(ct, "image/"):
		return TypeImage, nil
	}
	return "", ErrUnsupportedFile
}

func ParseType(s string) (MediaType, error) {
	switch MediaType(s) {
	case TypeVideo, TypeImage:
		return MediaType(s), nil
	}
	return "", ErrInvalidType
}

// Normalize trims text fields and drops blank tags, keeping tag order.
func (m *Media) Normalize() {
	m.Title = strings.TrimSpace(m.Title)
	m.Caption = strings.TrimSpace(m.Caption)
	m.Location = strings.TrimSpace(m.Location)

	tags := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	m.Tags = tags
}

func (m *Media) Validate() error {
	if m.Title == "" {
		return ErrTitleRequired
	}
	if _, err := ParseType(string(m.Type)); err != nil {
		return err
	}
	if m.URL == "" {
		return ErrURLRequired
	}
	if m.CreatorID == uuid.Nil {
		return ErrCreatorRequired
	}
	return nil
}

func (m *Media) IsCreatedBy(userID uuid.UUID) bool {
	return m.CreatorID == userID
}

// ParticipantIDs lists the creator, comment authors and raters. Repeats are kept.
func (m *Media) ParticipantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 1+len(m.Comments)+len(m.Ratings))
	ids = append(ids, m.CreatorID)
	for _, c := range m.Comments {
		ids = append(ids, c.UserID)
	}
	for _, r := range m.Ratings {
		ids = append(ids, r.UserID)
	}
	return ids
}

func (m *Media) FindComment(id uuid.UUID) (*Comment, bool) {
	for i := range m.Comments {
		if m.Comments[i].ID == id {
			return &m.Comments[i], true
		}
	}
	return nil, false
}

func (m *Media) RatingSummary() RatingSummary {
	return Summarize(m.Ratings)
}

// Summarize averages rating values; an empty list averages to 0.
func Summarize(ratings []Rating) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Value
	}
	return RatingSummary{
		Average: float64(sum) / float64(len(ratings)),
		Count:   len(ratings),
	}
}

// SortRatings orders ratings by time, then user id, so keyed storage reads back stable.
func SortRatings(ratings []Rating) {
	sort.Slice(ratings, func(i, j int) bool {
		if !ratings[i].RatedAt.Equal(ratings[j].RatedAt) {
			return ratings[i].RatedAt.Before(ratings[j].RatedAt)
		}
		return ratings[i].UserID.String() < ratings[j].UserID.String()
	})
}

func ValidateRating(value int) error {
	if value < MinRating || value > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// ObjectKeys lists every stored object that belongs to the media item.
func (m *Media) ObjectKeys() []string {
	keys := make([]string, 0, 2)
	if k := m.StorageKey; k != "" {
		keys = append(keys, k)
	} else if k := KeyFromURL(m.URL); k != "" {
		keys = append(keys, k)
	}
	if m.ThumbnailKey != "" {
		keys = append(keys, m.ThumbnailKey)
	}
	return keys
}

const thumbnailSuffix = "_thumb.jpg"

// ObjectKey builds "<unix millis>-<base name>" for an uploaded file.
func ObjectKey(at time.Time, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = strings.Join(strings.Fields(base), "-")
	if base == "" || base == "." || base == "/" {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s", at.UnixMilli(), base)
}

func ThumbnailKey(objectKey string) string {
	return objectKey + thumbnailSuffix
}

// KeyFromURL returns the unescaped last path segment of a stored object URL.
func KeyFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return ""
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return ""
	}
	return base
}

// SearchFilter holds optional, conjunctive search criteria.
type SearchFilter struct {
	Query    string
	Type     MediaType
	Location string
}

type Repository interface {
	Save(ctx context.Context, m *Media) error
	FindByID(ctx context.Context, id uuid.UUID) (*Media, error)
	List(ctx context.Context, limit, offset int) ([]*Media, error)
	Count(ctx context.Context) (int64, error)
	Search(ctx context.Context, filter SearchFilter) ([]*Media, error)
	Delete(ctx context.Context, id uuid.UUID, creatorID uuid.UUID) error

	AddComment(ctx context.Context, mediaID uuid.UUID, c Comment) error
	RemoveComment(ctx context.Context, mediaID, commentID, authorID uuid.UUID) error

	// UpsertRating and RemoveRating are single atomic updates keyed by user and
	// return the document as it is after the write.
	UpsertRating(ctx context.Context, mediaID uuid.UUID, r Rating) (*Media, error)
	RemoveRating(ctx context.Context, mediaID, userID uuid.UUID) (*Media, error)
}
