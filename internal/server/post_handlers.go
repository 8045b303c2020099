package server

import (
	"time"

	"ripple/internal/middleware"
	"ripple/internal/posts"

	"github.com/gofiber/fiber/v2"
)

// postJSON is the HTTP and websocket wire shape of a post.
type postJSON struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	AuthorID  string     `json:"authorId"`
	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

func toJSON(p posts.Post) postJSON {
	return postJSON{
		ID:        p.ID,
		Text:      p.Text,
		AuthorID:  p.AuthorID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toJSONList(list []posts.Post) []postJSON {
	out := make([]postJSON, 0, len(list))
	for _, p := range list {
		out = append(out, toJSON(p))
	}
	return out
}

// GetPosts handles GET /api/posts: the current view snapshot, newest first.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	return c.JSON(toJSONList(s.view.Posts()))
}

// CreatePost handles POST /api/posts. Preconditions (no identity, blank
// text) are absorbed as no-ops: the response reports acceptance either way
// and only a store failure surfaces as an error.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := s.gateway.Create(c.UserContext(), req.Text); err != nil {
		return genericFailure(c)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// UpdatePost handles PUT /api/posts/:id. The ownership gate lives here, in
// the presentation layer, exactly as the edit action is offered only on the
// caller's own posts; a request that fails the gate is absorbed silently.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	post, ok := s.ownedPost(c)
	if !ok {
		return c.SendStatus(fiber.StatusAccepted)
	}

	if err := s.gateway.Update(c.UserContext(), post.ID, req.Text); err != nil {
		return genericFailure(c)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// DeletePost handles DELETE /api/posts/:id, with the same ownership gate as
// UpdatePost.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	post, ok := s.ownedPost(c)
	if !ok {
		return c.SendStatus(fiber.StatusAccepted)
	}

	if err := s.gateway.Delete(c.UserContext(), post.ID); err != nil {
		return genericFailure(c)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// PurgePosts handles DELETE /api/posts. Without ?confirm=true it answers
// with the affected count and leaves the store untouched; the confirmed call
// deletes everything the caller authored in one atomic batch.
func (s *Server) PurgePosts(c *fiber.Ctx) error {
	confirmed := c.QueryBool("confirm")

	var matched int
	outcome, err := s.gateway.PurgeMine(c.UserContext(), func(count int) bool {
		matched = count
		return confirmed
	})
	if err != nil {
		return genericFailure(c)
	}

	body := fiber.Map{
		"state":   outcome.State.String(),
		"matched": outcome.Matched,
		"deleted": outcome.Deleted,
	}
	if outcome.State == posts.PurgeAborted && matched > 0 && !confirmed {
		body["confirm_required"] = true
	}
	return c.JSON(body)
}

// ownedPost resolves :id against the current view and checks the caller owns
// it. Posts outside the live window are not offered for modification.
func (s *Server) ownedPost(c *fiber.Ctx) (posts.Post, bool) {
	p, hasIdentity := middleware.Principal(c)
	if !hasIdentity {
		return posts.Post{}, false
	}

	id := c.Params("id")
	for _, post := range s.view.Posts() {
		if post.ID == id {
			return post, posts.CanModify(post, p)
		}
	}
	return posts.Post{}, false
}
