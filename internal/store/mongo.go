package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/blog-platform/internal/apperror"
	"github.com/ayush/blog-platform/internal/models"
)

const (
	usersCollection = "users"
	blogsCollection = "blogs"
)

type userDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Username    string               `bson:"username"`
	Email       string               `bson:"email"`
	Password    string               `bson:"password"`
	BlogCreated []primitive.ObjectID `bson:"blogCreated"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

type blogDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Slug      string             `bson:"slug"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Excerpt   string             `bson:"excerpt,omitempty"`
	Category  string             `bson:"category,omitempty"`
	Featured  bool               `bson:"featured"`
	User      primitive.ObjectID `bson:"user"`
	Tags      []string           `bson:"tags"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// profileDoc is a user with its blogs joined by $lookup.
type profileDoc struct {
	User  userDoc   `bson:",inline"`
	Blogs []blogDoc `bson:"blogs"`
}

// MongoStore handles user and blog persistence in MongoDB.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	blogs  *mongo.Collection
}

// NewMongoStore wraps db. client may be nil when the caller owns the
// connection lifecycle.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client: client,
		users:  db.Collection(usersCollection),
		blogs:  db.Collection(blogsCollection),
	}
}

// Migrate creates the unique indexes on users.email and blogs.slug.
func (s *MongoStore) Migrate(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	}); err != nil {
		return fmt.Errorf("mongo users index: %w", err)
	}
	if _, err := s.blogs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_desc"),
		},
	}); err != nil {
		return fmt.Errorf("mongo blogs index: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateUser(ctx context.Context, username, email, hashedPw string) (*models.User, error) {
	now := time.Now().UTC()
	doc := userDoc{
		ID:          primitive.NewObjectID(),
		Username:    username,
		Email:       email,
		Password:    hashedPw,
		BlogCreated: []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return nil, mongoError(fmt.Errorf("mongo insert user: %w", err), "User")
	}
	return doc.toModel(), nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return nil, mongoError(err, "User")
	}
	return doc.toModel(), nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NewNotFound("User not found")
	}
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mongoError(err, "User")
	}
	return doc.toModel(), nil
}

// GetProfile loads a user and joins its blogCreated references.
func (s *MongoStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NewNotFound("User not found")
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": oid}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         blogsCollection,
			"localField":   "blogCreated",
			"foreignField": "_id",
			"as":           "blogs",
		}}},
		{{Key: "$limit", Value: 1}},
	}
	cur, err := s.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mongoError(fmt.Errorf("mongo profile: %w", err), "User")
	}
	defer cur.Close(ctx)

	var docs []profileDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongoError(fmt.Errorf("mongo profile decode: %w", err), "User")
	}
	if len(docs) == 0 {
		return nil, apperror.NewNotFound("User not found")
	}
	return docs[0].toModel(), nil
}

// UsersByIDs returns the users found among ids, keyed by id.
func (s *MongoStore) UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	out := make(map[string]models.User, len(oids))
	if len(oids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.M{"password": 0})
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, mongoError(err, "User")
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongoError(err, "User")
	}
	for _, d := range docs {
		out[d.ID.Hex()] = *d.toModel()
	}
	return out, nil
}

// CreateBlog inserts b and appends it to the author's blogCreated. The
// blog is removed again if the author update fails.
func (s *MongoStore) CreateBlog(ctx context.Context, b *models.Blog) (*models.Blog, error) {
	author, err := primitive.ObjectIDFromHex(b.Author)
	if err != nil {
		return nil, apperror.NewNotFound("User not found")
	}

	now := time.Now().UTC()
	doc := blogDoc{
		ID:        primitive.NewObjectID(),
		Slug:      b.Slug,
		Title:     b.Title,
		Content:   b.Content,
		Excerpt:   b.Excerpt,
		Category:  b.Category,
		Featured:  b.Featured,
		User:      author,
		Tags:      b.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if _, err := s.blogs.InsertOne(ctx, doc); err != nil {
		return nil, mongoError(fmt.Errorf("mongo insert blog: %w", err), "Slug")
	}

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": author},
		bson.M{
			"$push": bson.M{"blogCreated": doc.ID},
			"$set":  bson.M{"updatedAt": now},
		},
	)
	if err == nil && res.MatchedCount == 0 {
		err = apperror.NewNotFound("User not found")
	}
	if err != nil {
		if _, delErr := s.blogs.DeleteOne(ctx, bson.M{"_id": doc.ID}); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return nil, mongoError(err, "User")
	}
	return doc.toModel(), nil
}

func (s *MongoStore) GetBlogBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	var doc blogDoc
	if err := s.blogs.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc); err != nil {
		return nil, mongoError(err, "Blog")
	}
	return doc.toModel(), nil
}

// ListBlogs returns every blog, newest first.
func (s *MongoStore) ListBlogs(ctx context.Context) ([]models.Blog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.blogs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mongoError(err, "Blog")
	}
	defer cur.Close(ctx)

	var docs []blogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongoError(err, "Blog")
	}
	out := make([]models.Blog, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toModel())
	}
	return out, nil
}

// mongoError classifies a driver error. entity names the record for
// user-facing messages.
func mongoError(err error, entity string) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperror.NewNotFound(entity + " not found")
	case mongo.IsDuplicateKeyError(err):
		return apperror.NewConflict(entity+" already exists", err)
	default:
		return apperror.NewPersistence("Database error", err)
	}
}

func (d *userDoc) toModel() *models.User {
	ids := make([]string, len(d.BlogCreated))
	for i, oid := range d.BlogCreated {
		ids[i] = oid.Hex()
	}
	return &models.User{
		ID:          d.ID.Hex(),
		Username:    d.Username,
		Email:       d.Email,
		Password:    d.Password,
		BlogCreated: ids,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d *blogDoc) toModel() *models.Blog {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.Blog{
		ID:        d.ID.Hex(),
		Slug:      d.Slug,
		Title:     d.Title,
		Content:   d.Content,
		Excerpt:   d.Excerpt,
		Category:  d.Category,
		Featured:  d.Featured,
		Author:    d.User.Hex(),
		Tags:      tags,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// toModel orders the joined blogs by blogCreated; $lookup does not keep
// the order of the local array.
func (d *profileDoc) toModel() *models.Profile {
	byID := make(map[primitive.ObjectID]blogDoc, len(d.Blogs))
	for _, b := range d.Blogs {
		byID[b.ID] = b
	}
	blogs := make([]models.Blog, 0, len(d.User.BlogCreated))
	for _, id := range d.User.BlogCreated {
		if b, ok := byID[id]; ok {
			blogs = append(blogs, *b.toModel())
		}
	}
	return &models.Profile{
		ID:          d.User.ID.Hex(),
		Username:    d.User.Username,
		Email:       d.User.Email,
		BlogCreated: blogs,
		CreatedAt:   d.User.CreatedAt,
		UpdatedAt:   d.User.UpdatedAt,
	}
}
