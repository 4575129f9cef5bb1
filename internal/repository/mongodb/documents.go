package mongodb

import (
	"time"

	"github.com/klass-lk/miniblog/internal/model"
)

const (
	postsCollection = "posts"
	usersCollection = "users"
)

type postDocument struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	Excerpt   string    `bson:"excerpt,omitempty"`
	Slug      string    `bson:"slug"`
	Status    string    `bson:"status"`
	AuthorID  string    `bson:"author_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newPostDocument(post model.Post) postDocument {
	return postDocument{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Excerpt:   post.Excerpt,
		Slug:      post.Slug,
		Status:    string(post.Status),
		AuthorID:  post.AuthorID,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

func (d postDocument) toModel(author *userDocument) model.Post {
	post := model.Post{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Excerpt:   d.Excerpt,
		Slug:      d.Slug,
		Status:    model.Status(d.Status),
		AuthorID:  d.AuthorID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if author != nil {
		post.Username = author.Username
		post.AuthorName = author.FullName
	}
	return post
}

type userDocument struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	FullName  string    `bson:"full_name,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newUserDocument(user model.User) userDocument {
	return userDocument{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.PasswordHash,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (d userDocument) toModel() model.User {
	return model.User{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		FullName:     d.FullName,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}
