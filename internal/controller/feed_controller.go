package controller

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/snabb/sitemap"

	"github.com/klass-lk/miniblog/internal/model"
	"github.com/klass-lk/miniblog/internal/server"
	"github.com/klass-lk/miniblog/internal/service"
)

const feedSize = 20

type FeedController struct {
	posts    *service.PostService
	siteURL  string
	siteName string
}

func NewFeedController(posts *service.PostService, siteURL, siteName string) *FeedController {
	return &FeedController{
		posts:    posts,
		siteURL:  strings.TrimRight(siteURL, "/"),
		siteName: siteName,
	}
}

func (c *FeedController) Register(group *server.ControllerGroup) {
	group.GET("/feed.rss", c.RSS)
	group.GET("/sitemap.xml", c.Sitemap)
}

func (c *FeedController) postURL(post model.Post) string {
	return c.siteURL + "/posts/" + post.Slug
}

func (c *FeedController) RSS(ctx *server.Context) {
	posts, err := c.posts.LatestPublished(ctx.Request.Context(), feedSize)
	if err != nil {
		ctx.SendError(err)
		return
	}

	feed := &feeds.Feed{
		Title:       c.siteName,
		Link:        &feeds.Link{Href: c.siteURL},
		Description: "Latest posts from " + c.siteName,
		Created:     time.Now().UTC(),
	}
	for _, post := range posts {
		author := post.AuthorName
		if author == "" {
			author = post.Username
		}
		description := post.Excerpt
		if description == "" {
			description = post.ContentHTML
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          post.ID,
			Title:       post.Title,
			Link:        &feeds.Link{Href: c.postURL(post)},
			Description: description,
			Content:     post.ContentHTML,
			Author:      &feeds.Author{Name: author},
			Created:     post.CreatedAt,
			Updated:     post.UpdatedAt,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		ctx.SendError(err)
		return
	}
	ctx.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func (c *FeedController) Sitemap(ctx *server.Context) {
	posts, err := c.posts.AllPublished(ctx.Request.Context())
	if err != nil {
		ctx.SendError(err)
		return
	}

	sm := sitemap.New()
	sm.Add(&sitemap.URL{
		Loc:        c.siteURL + "/",
		ChangeFreq: sitemap.Daily,
	})
	for _, post := range posts {
		lastMod := post.UpdatedAt
		sm.Add(&sitemap.URL{
			Loc:        c.postURL(post),
			LastMod:    &lastMod,
			ChangeFreq: sitemap.Weekly,
		})
	}

	buf := new(bytes.Buffer)
	if _, err := sm.WriteTo(buf); err != nil {
		ctx.SendError(err)
		return
	}
	ctx.Data(http.StatusOK, "application/xml; charset=utf-8", buf.Bytes())
}
