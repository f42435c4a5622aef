package handlers

import (
	"social-backend/internal/models"
	"social-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RegisterUserHandler creates an account from a multipart form with an
// optional "profilePicture" file.
func RegisterUserHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := services.RegisterInput{
			FirstName: c.FormValue("firstName"),
			LastName:  c.FormValue("lastName"),
			Email:     c.FormValue("email"),
			Password:  c.FormValue("password"),
			Gender:    c.FormValue("gender"),
		}

		var picture *models.Picture
		if fileHeader, err := c.FormFile("profilePicture"); err == nil {
			filename, url, err := saveUpload(c, fileHeader, "profile")
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"user": nil, "error": err.Error(), "message": "Failed to store profile picture",
				})
			}
			picture = &models.Picture{
				FileName:    filename,
				URL:         url,
				Size:        fileHeader.Size,
				ContentType: fileHeader.Header.Get("Content-Type"),
			}
		}

		user, err := userService.Register(c.Context(), in, picture)
		if err != nil {
			if picture != nil {
				removeUpload(picture.FileName)
			}
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"user": nil, "error": err.Error(), "message": "Failed to create user",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"user": user, "error": nil, "message": "User created successfully",
		})
	}
}

func GetUsersHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := userService.GetAll(c.Context())
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"users": nil, "error": err.Error(), "message": "Failed to retrieve users",
			})
		}
		return c.JSON(fiber.Map{
			"users": users, "error": nil, "message": "Users retrieved successfully",
		})
	}
}

func GetUserHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := userService.GetByID(c.Context(), c.Params("userId"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"user": nil, "error": err.Error(), "message": "Failed to retrieve user",
			})
		}
		return c.JSON(fiber.Map{
			"user": user, "error": nil, "message": "User retrieved successfully",
		})
	}
}

func SearchUsersHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := userService.Search(c.Context(), c.Params("searchQuery"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"users": nil, "error": err.Error(), "message": "Failed to search users",
			})
		}
		return c.JSON(fiber.Map{
			"users": users, "error": nil, "message": "Users retrieved successfully",
		})
	}
}

// UpdateUserHandler patches the mutable profile fields; absent fields stay
// untouched.
func UpdateUserHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			FirstName          *string       `json:"firstName"`
			LastName           *string       `json:"lastName"`
			Email              *string       `json:"email"`
			Gender             *string       `json:"gender"`
			JobTitle           *string       `json:"jobTitle"`
			RelationshipStatus *string       `json:"relationshipStatus"`
			City               *string       `json:"city"`
			State              *string       `json:"state"`
			Country            *string       `json:"country"`
			Phone              *models.Phone `json:"phone"`
			AboutMe            *string       `json:"aboutMe"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"user": nil, "error": "invalid request body", "message": "Failed to update user",
			})
		}

		user, err := userService.Update(c.Context(), c.Params("userId"), services.UpdateInput{
			FirstName:          body.FirstName,
			LastName:           body.LastName,
			Email:              body.Email,
			Gender:             body.Gender,
			JobTitle:           body.JobTitle,
			RelationshipStatus: body.RelationshipStatus,
			City:               body.City,
			State:              body.State,
			Country:            body.Country,
			Phone:              body.Phone,
			AboutMe:            body.AboutMe,
		})
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"user": nil, "error": err.Error(), "message": "Failed to update user",
			})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"user": user, "error": nil, "message": "User updated successfully",
		})
	}
}

// FollowHandler makes :userId follow the user named in the body.
func FollowHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			UserID string `json:"userId"`
		}
		if err := c.BodyParser(&body); err != nil || body.UserID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"follower": nil, "error": "userId required", "message": "Failed to follow user",
			})
		}

		edge, err := userService.Follow(c.Context(), c.Params("userId"), body.UserID)
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"follower": nil, "error": err.Error(), "message": "Failed to follow user",
			})
		}
		return c.JSON(fiber.Map{
			"follower": edge, "error": nil, "message": "User followed successfully",
		})
	}
}

func UnfollowHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			UserID string `json:"userId"`
		}
		if err := c.BodyParser(&body); err != nil || body.UserID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"user": nil, "error": "userId required", "message": "Failed to unfollow user",
			})
		}

		if err := userService.Unfollow(c.Context(), c.Params("userId"), body.UserID); err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"user": nil, "error": err.Error(), "message": "Failed to unfollow user",
			})
		}
		return c.JSON(fiber.Map{
			"user": c.Params("userId"), "error": nil, "message": "User unfollowed successfully",
		})
	}
}

func GetFollowersHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		followers, err := userService.ListFollowers(c.Context(), c.Params("userId"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"followers": nil, "error": err.Error(), "message": "Failed to retrieve followers",
			})
		}
		return c.JSON(fiber.Map{
			"followers": followers, "error": nil, "message": "Followers retrieved successfully",
		})
	}
}

func GetFollowingsHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		followings, err := userService.ListFollowings(c.Context(), c.Params("userId"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"followings": nil, "error": err.Error(), "message": "Failed to retrieve followings",
			})
		}
		return c.JSON(fiber.Map{
			"followings": followings, "error": nil, "message": "Followings retrieved successfully",
		})
	}
}
