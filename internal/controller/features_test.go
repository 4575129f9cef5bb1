package controller

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/klass-lk/miniblog/internal/model"
	"github.com/klass-lk/miniblog/internal/service"
	"github.com/klass-lk/miniblog/internal/testsuite"
)

type postSeeder struct {
	api func() *testAPI
}

// Seed creates one post per row. The author column holds a username.
func (s postSeeder) Seed(_ string, data *godog.Table) error {
	rows, err := testsuite.Rows(data)
	if err != nil {
		return err
	}
	api := s.api()
	ctx := context.Background()
	for _, row := range rows {
		author, err := api.store.Users().FindByLogin(ctx, row["author"])
		if err != nil {
			return fmt.Errorf("author %q: %w", row["author"], err)
		}
		_, err = api.posts.CreatePost(ctx, author.ID, service.CreatePostInput{
			Title:   row["title"],
			Content: row["content"],
			Excerpt: row["excerpt"],
			Status:  model.Status(row["status"]),
			Slug:    row["slug"],
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func TestFeatures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping feature tests in short mode")
	}

	api := newTestAPI(t)
	suite := testsuite.New(t, api.engine)
	suite.Reset = func() error {
		api = newTestAPI(t)
		suite.Router = api.engine
		return nil
	}
	suite.RegisterDBSeeder("posts", postSeeder{api: func() *testAPI { return api }})
	suite.Steps = func(ts *testsuite.TestSuite, ctx *godog.ScenarioContext) {
		ctx.Step(`^user "([^"]*)" is signed in$`, func(username string) error {
			session, err := api.users.Register(context.Background(), service.RegisterInput{
				Username: username,
				Email:    username + "@example.com",
				Password: "secret123",
				FullName: "User " + username,
			})
			if err != nil {
				return err
			}
			ts.Storage[username+".token"] = session.Token
			ts.Storage[username+".id"] = session.User.ID
			return nil
		})
	}

	testsuite.Run(t, suite, "features")
}
