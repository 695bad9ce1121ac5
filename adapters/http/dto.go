package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/mediahub/internal/domain/media"
	"github.com/khoahotran/mediahub/internal/domain/user"
)

// User DTOs

type UserRefDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToUserDTO(u *user.User) UserDTO {
	return UserDTO{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role), CreatedAt: u.CreatedAt}
}

// userRef keeps the bare id when the user could not be resolved.
func userRef(id uuid.UUID, users map[uuid.UUID]*user.User, withEmail bool) UserRefDTO {
	ref := UserRefDTO{ID: id}
	if u, ok := users[id]; ok {
		ref.Name = u.Name
		if withEmail {
			ref.Email = u.Email
		}
	}
	return ref
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string  `json:"access_token"`
	User        UserDTO `json:"user"`
}

// Media DTOs

type CommentDTO struct {
	ID        uuid.UUID  `json:"id"`
	User      UserRefDTO `json:"user"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"createdAt"`
}

type RatingDTO struct {
	User    UserRefDTO `json:"user"`
	Value   int        `json:"value"`
	RatedAt time.Time  `json:"ratedAt"`
}

type MediaDTO struct {
	ID            uuid.UUID    `json:"id"`
	Title         string       `json:"title"`
	Caption       string       `json:"caption"`
	Type          string       `json:"type"`
	URL           string       `json:"url"`
	ThumbnailURL  *string      `json:"thumbnailUrl,omitempty"`
	ContentType   string       `json:"contentType,omitempty"`
	Size          int64        `json:"size"`
	Location      string       `json:"location"`
	Tags          []string     `json:"tags"`
	Creator       UserRefDTO   `json:"creator"`
	Ratings       []RatingDTO  `json:"ratings"`
	Comments      []CommentDTO `json:"comments"`
	AverageRating float64      `json:"averageRating"`
	TotalRatings  int          `json:"totalRatings"`
	CreatedAt     time.Time    `json:"createdAt"`
}

func ToCommentDTO(c media.Comment, users map[uuid.UUID]*user.User) CommentDTO {
	return CommentDTO{ID: c.ID, User: userRef(c.UserID, users, false), Text: c.Text, CreatedAt: c.CreatedAt}
}

func ToCommentDTOs(comments []media.Comment, users map[uuid.UUID]*user.User) []CommentDTO {
	dtos := make([]CommentDTO, len(comments))
	for i, c := range comments {
		dtos[i] = ToCommentDTO(c, users)
	}
	return dtos
}

func ToRatingDTOs(ratings []media.Rating, users map[uuid.UUID]*user.User) []RatingDTO {
	dtos := make([]RatingDTO, len(ratings))
	for i, r := range ratings {
		dtos[i] = RatingDTO{User: userRef(r.UserID, users, false), Value: r.Value, RatedAt: r.RatedAt}
	}
	return dtos
}

func ToMediaDTO(m *media.Media, users map[uuid.UUID]*user.User) MediaDTO {
	summary := m.RatingSummary()
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return MediaDTO{
		ID:            m.ID,
		Title:         m.Title,
		Caption:       m.Caption,
		Type:          string(m.Type),
		URL:           m.URL,
		ThumbnailURL:  m.ThumbnailURL,
		ContentType:   m.ContentType,
		Size:          m.Size,
		Location:      m.Location,
		Tags:          tags,
		Creator:       userRef(m.CreatorID, users, true),
		Ratings:       ToRatingDTOs(m.Ratings, users),
		Comments:      ToCommentDTOs(m.Comments, users),
		AverageRating: summary.Average,
		TotalRatings:  summary.Count,
		CreatedAt:     m.CreatedAt,
	}
}

func ToMediaDTOs(items []*media.Media, users map[uuid.UUID]*user.User) []MediaDTO {
	dtos := make([]MediaDTO, len(items))
	for i, m := range items {
		dtos[i] = ToMediaDTO(m, users)
	}
	return dtos
}

type MediaListResponse struct {
	Media       []MediaDTO `json:"media"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
	TotalMedia  int64      `json:"totalMedia"`
}

// Comment & rating DTOs

type AddCommentRequest struct {
	Text string `json:"text"`
}

type RatingRequest struct {
	Value *int `json:"value" binding:"required"`
}

type RatingSummaryResponse struct {
	Message       string  `json:"message,omitempty"`
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
}

type RatingListResponse struct {
	Ratings       []RatingDTO `json:"ratings"`
	AverageRating float64     `json:"averageRating"`
	TotalRatings  int         `json:"totalRatings"`
}
