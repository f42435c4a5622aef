package handlers

import (
	"context"
	"time"

	"social-backend/internal/services"
	"social-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// maxPostAttachments caps the files accepted per post.
const maxPostAttachments = 12

func GetUserPostsHandler(feedService *services.FeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		posts, err := feedService.UserPosts(c.Context(), c.Params("userId"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"posts": nil, "error": err.Error(), "message": "An error occurred while retrieving posts.",
			})
		}
		return c.JSON(fiber.Map{
			"posts": posts, "error": nil, "message": "Posts retrieved successfully",
		})
	}
}

func NewsfeedHandler(feedService *services.FeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		posts, err := feedService.Newsfeed(c.Context(), c.Params("userId"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"posts": nil, "error": err.Error(), "message": "An error occurred while retrieving feeds.",
			})
		}
		return c.JSON(fiber.Map{
			"posts": posts, "error": nil, "message": "Feeds retrieved successfully",
		})
	}
}

func GetPostHandler(feedService *services.FeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		post, err := feedService.GetPost(c.Context(), c.Params("postId"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"post": nil, "error": err.Error(), "message": "An error occurred while retrieving the post.",
			})
		}
		return c.JSON(fiber.Map{
			"post": post, "error": nil, "message": "Post retrieved successfully",
		})
	}
}

// CreatePostHandler accepts a multipart form with "content" and up to twelve
// "postAttachments[]" files, stores the files, and creates the post and
// attachment documents in one transaction. Connected followers are notified
// afterwards.
func CreatePostHandler(postService *services.PostService, userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("userId")
		content := c.FormValue("content")

		var uploads []services.AttachmentUpload
		var stored []string
		if form, err := c.MultipartForm(); err == nil && form != nil {
			files := form.File["postAttachments[]"]
			if len(files) > maxPostAttachments {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"post": nil, "error": "too many attachments", "message": "An error occurred while creating the post.",
				})
			}
			for _, fileHeader := range files {
				filename, url, err := saveUpload(c, fileHeader, userID)
				if err != nil {
					cleanupUploads(stored)
					return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
						"post": nil, "error": err.Error(), "message": "An error occurred while uploading attachments.",
					})
				}
				stored = append(stored, filename)
				uploads = append(uploads, services.AttachmentUpload{
					FileName:    filename,
					URL:         url,
					Size:        fileHeader.Size,
					ContentType: fileHeader.Header.Get("Content-Type"),
				})
			}
		}

		post, err := postService.Create(c.Context(), userID, content, uploads)
		if err != nil {
			cleanupUploads(stored)
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"post": nil, "error": err.Error(), "message": "An error occurred while creating the post.",
			})
		}

		go notifyPostAdded(userService, userID)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"post": post, "error": nil, "message": "Post created successfully",
		})
	}
}

func SharePostHandler(postService *services.PostService, userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Params("userId")
		post, err := postService.Share(c.Context(), userID, c.Params("postId"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"post": nil, "error": err.Error(), "message": "An error occurred while sharing the post.",
			})
		}

		go notifyPostAdded(userService, userID)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"post": post, "error": nil, "message": "Post shared successfully",
		})
	}
}

func DeletePostHandler(postService *services.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := postService.Delete(c.Context(), c.Params("postId")); err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"post": nil, "error": err.Error(), "message": "An error occurred while deleting the post.",
			})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func LikePostHandler(postService *services.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		like, err := postService.Like(c.Context(), c.Params("postId"), c.Params("userId"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"like": nil, "error": err.Error(), "message": "An error occurred while liking the post.",
			})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"like": like, "error": nil, "message": "Post liked successfully",
		})
	}
}

func UnlikePostHandler(postService *services.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := postService.Unlike(c.Context(), c.Params("postId"), c.Params("userId")); err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"like": nil, "error": err.Error(), "message": "An error occurred while unliking the post.",
			})
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// notifyPostAdded pushes a post_added event to the author's currently
// connected followers.
func notifyPostAdded(userService *services.UserService, authorID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	followerIDs, err := userService.Followers(ctx, authorID)
	if err != nil {
		utils.LogError(err, "notifyPostAdded")
		return
	}

	online := followerIDs[:0]
	for _, id := range followerIDs {
		if Presence.IsOnline(id) {
			online = append(online, id)
		}
	}
	Presence.SendToUsers(online, WSEvent{Event: "post_added", UserID: authorID})
}

func cleanupUploads(filenames []string) {
	for _, name := range filenames {
		removeUpload(name)
	}
}
