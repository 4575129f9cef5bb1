package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/klass-lk/miniblog/internal/model"
	"github.com/klass-lk/miniblog/internal/server"
	"github.com/klass-lk/miniblog/internal/service"
)

type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	Content string `json:"content" binding:"required"`
	Excerpt string `json:"excerpt" binding:"max=500"`
	Status  string `json:"status" binding:"omitempty,oneof=draft published"`
	Slug    string `json:"slug" binding:"omitempty,max=240,slug"`
}

func (r *CreatePostRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
	r.Excerpt = strings.TrimSpace(r.Excerpt)
	r.Slug = strings.TrimSpace(r.Slug)
}

// UpdatePostRequest carries a partial update; absent fields stay nil.
type UpdatePostRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=1,max=255"`
	Content *string `json:"content" binding:"omitempty,min=1"`
	Excerpt *string `json:"excerpt" binding:"omitempty,max=500"`
	Status  *string `json:"status" binding:"omitempty,oneof=draft published"`
}

func (r *UpdatePostRequest) Normalize() {
	for _, field := range []*string{r.Title, r.Content, r.Excerpt} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
}

func (r *UpdatePostRequest) patch() model.PostPatch {
	patch := model.PostPatch{
		Title:   r.Title,
		Content: r.Content,
		Excerpt: r.Excerpt,
	}
	if r.Status != nil {
		status := model.Status(*r.Status)
		patch.Status = &status
	}
	return patch
}

type PostController struct {
	posts       *service.PostService
	requireAuth gin.HandlerFunc
}

func NewPostController(posts *service.PostService, requireAuth gin.HandlerFunc) *PostController {
	return &PostController{
		posts:       posts,
		requireAuth: requireAuth,
	}
}

func (c *PostController) Register(group *server.ControllerGroup) {
	group.GET("", c.ListPublished)
	group.GET("/slug/:slug", c.GetBySlug)

	protected := group.Group("", c.requireAuth)
	{
		protected.GET("/my-posts", c.ListMine)
		protected.POST("", c.CreatePost)
		protected.GET("/:id", c.GetOwned)
		protected.PUT("/:id", c.UpdatePost)
		protected.DELETE("/:id", c.DeletePost)
	}
}

func (c *PostController) ListPublished(ctx *server.Context) {
	req, err := ctx.GetPageRequest()
	if err != nil {
		ctx.SendError(err)
		return
	}
	page, err := c.posts.ListPublished(ctx.Request.Context(), req, ctx.Query("search"))
	if err != nil {
		ctx.SendError(toApiError(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"posts": page.Items, "pagination": page.Pagination})
}

func (c *PostController) GetBySlug(ctx *server.Context) {
	post, err := c.posts.GetPublishedBySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		ctx.SendError(toApiError(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"post": post})
}

func (c *PostController) ListMine(ctx *server.Context) {
	authCtx, err := ctx.GetAuthContext()
	if err != nil {
		ctx.SendError(err)
		return
	}
	req, err := ctx.GetPageRequest()
	if err != nil {
		ctx.SendError(err)
		return
	}

	var status model.Status
	switch filter := ctx.DefaultQuery("status", "all"); filter {
	case "all":
	case string(model.StatusDraft), string(model.StatusPublished):
		status = model.Status(filter)
	default:
		ctx.SendError(server.ErrValidation.WithErrors(server.FieldError{
			Field:   "status",
			Message: "must be one of: all, draft, published",
		}))
		return
	}

	page, err := c.posts.ListMine(ctx.Request.Context(), authCtx.UserID, req, status)
	if err != nil {
		ctx.SendError(toApiError(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"posts": page.Items, "pagination": page.Pagination})
}

func (c *PostController) CreatePost(ctx *server.Context) {
	authCtx, err := ctx.GetAuthContext()
	if err != nil {
		ctx.SendError(err)
		return
	}
	var request CreatePostRequest
	if err := ctx.GetRequest(&request); err != nil {
		ctx.SendError(err)
		return
	}

	post, err := c.posts.CreatePost(ctx.Request.Context(), authCtx.UserID, service.CreatePostInput{
		Title:   request.Title,
		Content: request.Content,
		Excerpt: request.Excerpt,
		Status:  model.Status(request.Status),
		Slug:    request.Slug,
	})
	if err != nil {
		ctx.SendError(toApiError(err))
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "post": post})
}

func (c *PostController) GetOwned(ctx *server.Context) {
	authCtx, err := ctx.GetAuthContext()
	if err != nil {
		ctx.SendError(err)
		return
	}
	post, err := c.posts.GetOwnedPost(ctx.Request.Context(), authCtx.UserID, ctx.Param("id"))
	if err != nil {
		ctx.SendError(toApiError(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"post": post})
}

func (c *PostController) UpdatePost(ctx *server.Context) {
	authCtx, err := ctx.GetAuthContext()
	if err != nil {
		ctx.SendError(err)
		return
	}
	var request UpdatePostRequest
	if err := ctx.GetRequest(&request); err != nil {
		ctx.SendError(err)
		return
	}

	post, err := c.posts.UpdatePost(ctx.Request.Context(), authCtx.UserID, ctx.Param("id"), request.patch())
	if err != nil {
		ctx.SendError(toApiError(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Post updated successfully", "post": post})
}

func (c *PostController) DeletePost(ctx *server.Context) {
	authCtx, err := ctx.GetAuthContext()
	if err != nil {
		ctx.SendError(err)
		return
	}
	if err := c.posts.DeletePost(ctx.Request.Context(), authCtx.UserID, ctx.Param("id")); err != nil {
		ctx.SendError(toApiError(err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
