package mongodb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/klass-lk/miniblog/internal/model"
	"github.com/klass-lk/miniblog/internal/repository"
)

type PostRepository struct {
	posts *mongo.Collection
	users *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{
		posts: db.Collection(postsCollection),
		users: db.Collection(usersCollection),
	}
}

func (r *PostRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	count, err := r.posts.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	return count > 0, err
}

func (r *PostRepository) Create(ctx context.Context, post model.Post) (model.Post, error) {
	authors, err := r.users.CountDocuments(ctx, bson.M{"_id": post.AuthorID}, options.Count().SetLimit(1))
	if err != nil {
		return model.Post{}, err
	}
	if authors == 0 {
		return model.Post{}, repository.ErrNoAuthor
	}

	doc := newPostDocument(post)
	if _, err := r.posts.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Post{}, repository.ErrSlugTaken
		}
		return model.Post{}, err
	}
	return r.withAuthor(ctx, doc)
}

func (r *PostRepository) FindPublishedBySlug(ctx context.Context, slug string) (model.Post, error) {
	return r.findOne(ctx, bson.M{"slug": slug, "status": string(model.StatusPublished)})
}

func (r *PostRepository) FindByIDAndAuthor(ctx context.Context, id, authorID string) (model.Post, error) {
	return r.findOne(ctx, bson.M{"_id": id, "author_id": authorID})
}

func (r *PostRepository) FindByPaginated(ctx context.Context, req model.PageRequest, filter repository.PostFilter) (model.Page[model.Post], error) {
	query := buildFilter(filter)

	total, err := r.posts.CountDocuments(ctx, query)
	if err != nil {
		return model.Page[model.Post]{}, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(req.Offset())).
		SetLimit(int64(req.Size))

	cursor, err := r.posts.Find(ctx, query, opts)
	if err != nil {
		return model.Page[model.Post]{}, err
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return model.Page[model.Post]{}, err
	}

	authors, err := r.loadAuthors(ctx, docs)
	if err != nil {
		return model.Page[model.Post]{}, err
	}

	items := make([]model.Post, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toModel(authors[doc.AuthorID]))
	}
	return model.NewPage(items, req, int(total)), nil
}

func (r *PostRepository) Update(ctx context.Context, id, authorID string, patch model.PostPatch, updatedAt time.Time) (model.Post, error) {
	set := bson.M{"updated_at": updatedAt}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.Excerpt != nil {
		set["excerpt"] = *patch.Excerpt
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}

	var doc postDocument
	err := r.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "author_id": authorID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Post{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	return r.withAuthor(ctx, doc)
}

func (r *PostRepository) Delete(ctx context.Context, id, authorID string) error {
	result, err := r.posts.DeleteOne(ctx, bson.M{"_id": id, "author_id": authorID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostRepository) findOne(ctx context.Context, filter bson.M) (model.Post, error) {
	var doc postDocument
	err := r.posts.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Post{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	return r.withAuthor(ctx, doc)
}

func (r *PostRepository) withAuthor(ctx context.Context, doc postDocument) (model.Post, error) {
	var author userDocument
	err := r.users.FindOne(ctx, bson.M{"_id": doc.AuthorID}).Decode(&author)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc.toModel(nil), nil
	}
	if err != nil {
		return model.Post{}, err
	}
	return doc.toModel(&author), nil
}

func (r *PostRepository) loadAuthors(ctx context.Context, docs []postDocument) (map[string]*userDocument, error) {
	authors := make(map[string]*userDocument)
	if len(docs) == 0 {
		return authors, nil
	}

	ids := make([]string, 0, len(docs))
	seen := make(map[string]bool)
	for _, doc := range docs {
		if !seen[doc.AuthorID] {
			seen[doc.AuthorID] = true
			ids = append(ids, doc.AuthorID)
		}
	}

	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []userDocument
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for i := range users {
		authors[users[i].ID] = &users[i]
	}
	return authors, nil
}

// buildFilter is shared by the count and the page query.
func buildFilter(filter repository.PostFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.AuthorID != "" {
		query["author_id"] = filter.AuthorID
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"content": pattern},
		}
	}
	return query
}
