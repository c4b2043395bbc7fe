package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoConnectTimeout = 10 * time.Second

type sessionDocument struct {
	VisitorID string    `bson:"visitor_id"`
	LastSeen  time.Time `bson:"last_seen"`
	CreatedAt time.Time `bson:"created_at"`
}

type siteStatDocument struct {
	Key        string    `bson:"key"`
	TotalViews int64     `bson:"total_views"`
	CreatedAt  time.Time `bson:"created_at"`
}

type postDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Content     string             `bson:"content"`
	Author      string             `bson:"author"`
	Tags        []string           `bson:"tags"`
	CoverImage  *string            `bson:"cover_image,omitempty"`
	PublishedAt time.Time          `bson:"published_at"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// MongoStore implements Store on a MongoDB database, using the same
// collection layout as the document store the API was first written against.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
	sessions *mongo.Collection
	stats    *mongo.Collection
	posts    *mongo.Collection
}

// NewMongoStore connects to uri, selects database and ensures indexes.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" || database == "" {
		return nil, errors.New("mongo store requires DATABASE_URL and DATABASE_NAME")
	}

	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(mongoConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	mdb := client.Database(database)
	s := &MongoStore{
		client:   client,
		database: mdb,
		sessions: mdb.Collection(CollectionSessions),
		stats:    mdb.Collection(CollectionSiteStats),
		posts:    mdb.Collection(CollectionPosts),
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure mongo indexes: %w", err)
	}

	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	if _, err := s.sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "visitor_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "last_seen", Value: -1}}},
	}); err != nil {
		return err
	}

	if _, err := s.stats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}

	_, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "published_at", Value: -1}},
	})
	return err
}

func (s *MongoStore) UpsertSession(ctx context.Context, visitorID string, now time.Time) (bool, error) {
	filter := bson.M{"visitor_id": visitorID}
	update := bson.M{
		"$set":         bson.M{"last_seen": now},
		"$setOnInsert": bson.M{"created_at": now},
	}

	res, err := s.sessions.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent upsert inserted the document first
		_, err = s.sessions.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"last_seen": now}})
		return false, err
	}
	if err != nil {
		return false, err
	}

	return res.UpsertedCount == 1, nil
}

func (s *MongoStore) FindSession(ctx context.Context, visitorID string) (*Session, error) {
	var doc sessionDocument
	err := s.sessions.FindOne(ctx, bson.M{"visitor_id": visitorID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &Session{
		VisitorID: doc.VisitorID,
		LastSeen:  doc.LastSeen.UTC(),
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

func (s *MongoStore) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	return s.sessions.CountDocuments(ctx, bson.M{"last_seen": bson.M{"$gte": since}})
}

func (s *MongoStore) IncrementCounter(ctx context.Context, key string, now time.Time) error {
	_, err := s.stats.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{
			"$inc":         bson.M{"total_views": int64(1)},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) CounterValue(ctx context.Context, key string) (int64, error) {
	var doc siteStatDocument
	err := s.stats.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.TotalViews, nil
}

func (s *MongoStore) CreatePost(ctx context.Context, post *Post) error {
	doc := postDocumentFrom(*post)
	res, err := s.posts.InsertOne(ctx, doc)
	if err != nil {
		return err
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	post.ID = oid.Hex()
	return nil
}

func (s *MongoStore) ListPosts(ctx context.Context, limit int) ([]Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.toPost())
	}
	return posts, nil
}

func (s *MongoStore) GetPost(ctx context.Context, id string) (*Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var doc postDocument
	err = s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	post := doc.toPost()
	return &post, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Collections(ctx context.Context) ([]string, error) {
	names, err := s.database.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *MongoStore) Name() string {
	return s.database.Name()
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func postDocumentFrom(post Post) postDocument {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	return postDocument{
		Title:       post.Title,
		Content:     post.Content,
		Author:      post.Author,
		Tags:        tags,
		CoverImage:  post.CoverImage,
		PublishedAt: post.PublishedAt,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

func (d postDocument) toPost() Post {
	return Post{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Content:     d.Content,
		Author:      d.Author,
		Tags:        d.Tags,
		CoverImage:  d.CoverImage,
		PublishedAt: d.PublishedAt.UTC(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}
