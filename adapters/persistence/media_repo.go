package persistence

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/domain/media"
	"github.com/khoahotran/mediahub/pkg/apperror"
	"github.com/khoahotran/mediahub/pkg/logger"
)

type ratingDocument struct {
	Value   int       `bson:"value"`
	RatedAt time.Time `bson:"rated_at"`
}

type commentDocument struct {
	ID        string    `bson:"id"`
	User      string    `bson:"user"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
}

// mediaDocument keeps ratings keyed by user id so one user owns at most one entry.
type mediaDocument struct {
	ID           string                    `bson:"_id"`
	Title        string                    `bson:"title"`
	Caption      string                    `bson:"caption,omitempty"`
	Type         string                    `bson:"type"`
	URL          string                    `bson:"url"`
	StorageKey   string                    `bson:"storage_key,omitempty"`
	ThumbnailURL *string                   `bson:"thumbnail_url,omitempty"`
	ThumbnailKey string                    `bson:"thumbnail_key,omitempty"`
	ContentType  string                    `bson:"content_type,omitempty"`
	Size         int64                     `bson:"size"`
	Location     string                    `bson:"location,omitempty"`
	Tags         []string                  `bson:"tags"`
	Creator      string                    `bson:"creator"`
	Ratings      map[string]ratingDocument `bson:"ratings"`
	Comments     []commentDocument         `bson:"comments"`
	CreatedAt    time.Time                 `bson:"createdAt"`
}

type mongoMediaRepo struct {
	col    *mongo.Collection
	logger logger.Logger
}

func NewMongoMediaRepo(db *mongo.Database, collection string, log logger.Logger) media.Repository {
	return &mongoMediaRepo{col: db.Collection(collection), logger: log}
}

// EnsureMediaIndexes creates the indexes used by listing and ownership checks.
func EnsureMediaIndexes(ctx context.Context, db *mongo.Database, collection string) error {
	_, err := db.Collection(collection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "creator", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func toMediaDocument(m *media.Media) mediaDocument {
	doc := mediaDocument{
		ID:           m.ID.String(),
		Title:        m.Title,
		Caption:      m.Caption,
		Type:         string(m.Type),
		URL:          m.URL,
		StorageKey:   m.StorageKey,
		ThumbnailURL: m.ThumbnailURL,
		ThumbnailKey: m.ThumbnailKey,
		ContentType:  m.ContentType,
		Size:         m.Size,
		Location:     m.Location,
		Tags:         m.Tags,
		Creator:      m.CreatorID.String(),
		Ratings:      make(map[string]ratingDocument, len(m.Ratings)),
		Comments:     make([]commentDocument, 0, len(m.Comments)),
		CreatedAt:    m.CreatedAt,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	for _, r := range m.Ratings {
		doc.Ratings[r.UserID.String()] = ratingDocument{Value: r.Value, RatedAt: r.RatedAt}
	}
	for _, c := range m.Comments {
		doc.Comments = append(doc.Comments, toCommentDocument(c))
	}
	return doc
}

func toCommentDocument(c media.Comment) commentDocument {
	return commentDocument{
		ID:        c.ID.String(),
		User:      c.UserID.String(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (d mediaDocument) toDomain() *media.Media {
	m := &media.Media{
		ID:           parseID(d.ID),
		Title:        d.Title,
		Caption:      d.Caption,
		Type:         media.MediaType(d.Type),
		URL:          d.URL,
		StorageKey:   d.StorageKey,
		ThumbnailURL: d.ThumbnailURL,
		ThumbnailKey: d.ThumbnailKey,
		ContentType:  d.ContentType,
		Size:         d.Size,
		Location:     d.Location,
		Tags:         d.Tags,
		CreatorID:    parseID(d.Creator),
		Ratings:      make([]media.Rating, 0, len(d.Ratings)),
		Comments:     make([]media.Comment, 0, len(d.Comments)),
		CreatedAt:    d.CreatedAt,
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	for userID, r := range d.Ratings {
		m.Ratings = append(m.Ratings, media.Rating{UserID: parseID(userID), Value: r.Value, RatedAt: r.RatedAt})
	}
	media.SortRatings(m.Ratings)
	for _, c := range d.Comments {
		m.Comments = append(m.Comments, media.Comment{
			ID:        parseID(c.ID),
			UserID:    parseID(c.User),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return m
}

func (r *mongoMediaRepo) decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]*media.Media, error) {
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []mediaDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperror.NewPersistence("failed to decode media documents", err)
	}
	items := make([]*media.Media, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toDomain())
	}
	return items, nil
}

func (r *mongoMediaRepo) Save(ctx context.Context, m *media.Media) error {
	if _, err := r.col.InsertOne(ctx, toMediaDocument(m)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.NewConflict("media", "id", m.ID.String())
		}
		return apperror.NewPersistence("failed to insert media", err)
	}
	return nil
}

func (r *mongoMediaRepo) FindByID(ctx context.Context, id uuid.UUID) (*media.Media, error) {
	var doc mediaDocument
	err := r.col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NewNotFound("media", id.String())
		}
		return nil, apperror.NewPersistence("failed to find media", err)
	}
	return doc.toDomain(), nil
}

func (r *mongoMediaRepo) List(ctx context.Context, limit, offset int) ([]*media.Media, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperror.NewPersistence("failed to list media", err)
	}
	return r.decodeAll(ctx, cursor)
}

func (r *mongoMediaRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperror.NewPersistence("failed to count media", err)
	}
	return n, nil
}

// containsFold matches s literally anywhere in a field, ignoring case.
func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func buildSearchFilter(f media.SearchFilter) bson.M {
	filter := bson.M{}
	if f.Query != "" {
		rx := containsFold(f.Query)
		filter["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"caption": rx},
			bson.M{"tags": rx},
		}
	}
	if f.Type != "" {
		filter["type"] = string(f.Type)
	}
	if f.Location != "" {
		filter["location"] = containsFold(f.Location)
	}
	return filter
}

func (r *mongoMediaRepo) Search(ctx context.Context, f media.SearchFilter) ([]*media.Media, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.col.Find(ctx, buildSearchFilter(f), opts)
	if err != nil {
		return nil, apperror.NewPersistence("failed to search media", err)
	}
	return r.decodeAll(ctx, cursor)
}

func (r *mongoMediaRepo) Delete(ctx context.Context, id uuid.UUID, creatorID uuid.UUID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id.String(), "creator": creatorID.String()})
	if err != nil {
		return apperror.NewPersistence("failed to delete media", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NewNotFound("media", id.String())
	}
	return nil
}

func (r *mongoMediaRepo) AddComment(ctx context.Context, mediaID uuid.UUID, c media.Comment) error {
	update := bson.M{"$push": bson.M{"comments": toCommentDocument(c)}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": mediaID.String()}, update)
	if err != nil {
		return apperror.NewPersistence("failed to add comment", err)
	}
	if res.MatchedCount == 0 {
		return apperror.NewNotFound("media", mediaID.String())
	}
	return nil
}

func (r *mongoMediaRepo) RemoveComment(ctx context.Context, mediaID, commentID, authorID uuid.UUID) error {
	update := bson.M{"$pull": bson.M{"comments": bson.M{"id": commentID.String(), "user": authorID.String()}}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": mediaID.String()}, update)
	if err != nil {
		return apperror.NewPersistence("failed to remove comment", err)
	}
	if res.MatchedCount == 0 {
		return apperror.NewNotFound("media", mediaID.String())
	}
	if res.ModifiedCount == 0 {
		return apperror.NewNotFound("comment", commentID.String())
	}
	return nil
}

func (r *mongoMediaRepo) updateAndReturn(ctx context.Context, mediaID uuid.UUID, update bson.M, op string) (*media.Media, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mediaDocument
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": mediaID.String()}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NewNotFound("media", mediaID.String())
		}
		r.logger.Error("rating update failed", err, zap.String("media_id", mediaID.String()), zap.String("op", op))
		return nil, apperror.NewPersistence("failed to "+op, err)
	}
	return doc.toDomain(), nil
}

func (r *mongoMediaRepo) UpsertRating(ctx context.Context, mediaID uuid.UUID, rating media.Rating) (*media.Media, error) {
	field := "ratings." + rating.UserID.String()
	update := bson.M{"$set": bson.M{field: ratingDocument{Value: rating.Value, RatedAt: rating.RatedAt}}}
	return r.updateAndReturn(ctx, mediaID, update, "upsert rating")
}

func (r *mongoMediaRepo) RemoveRating(ctx context.Context, mediaID, userID uuid.UUID) (*media.Media, error) {
	update := bson.M{"$unset": bson.M{"ratings." + userID.String(): ""}}
	return r.updateAndReturn(ctx, mediaID, update, "remove rating")
}
