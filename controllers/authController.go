package controllers

import (
	"errors"
	"strings"

	"generalstore-backend/middlewares"
	"generalstore-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct {
	db *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var in LoginDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	var user models.User
	err := ac.db.Where("username = ?", strings.TrimSpace(in.Username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
		}
		return err
	}

	if err := user.ComparePassword(in.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	}

	token, err := middlewares.GenerateJWT(user.Id, user.Role)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":       user.Id,
			"username": user.Username,
			"name":     user.Name,
			"role":     user.Role,
		},
	})
}

// GET /api/auth/profile
func (ac *AuthController) Profile(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var user models.User
	if err := ac.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// POST /api/auth/change-password
func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	var in ChangePasswordDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	userID, _ := c.Locals("userID").(string)
	var user models.User
	if err := ac.db.First(&user, "id = ?", userID).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	if err := user.ComparePassword(in.CurrentPassword); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Current password is incorrect"})
	}

	user.SetPassword(in.NewPassword)
	if err := ac.db.Model(&user).Update("password", user.Password).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

type CreateUserDTO struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=owner staff"`
}

// POST /api/auth/users (owner only)
func (ac *AuthController) CreateUser(c *fiber.Ctx) error {
	var in CreateUserDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	user := models.User{
		Username: strings.TrimSpace(in.Username),
		Name:     strings.TrimSpace(in.Name),
		Role:     in.Role,
	}
	user.SetPassword(in.Password)

	if err := ac.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Username already exists"})
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    user,
	})
}
