package admin

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"clickmill/database"
	"clickmill/models"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expires_at"`
}

// Login authenticates an admin user
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Username and password are required",
		})
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("username = ? AND is_admin = ?", req.Username, true).First(&user).Error; err != nil {
		return c.Status(401).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(401).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	user.LastLogin = time.Now()
	db.Save(&user)

	expiresAt := time.Now().Add(12 * time.Hour)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "clickmill-secret-change-in-production"
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"is_admin": true,
		"exp":      expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.JSON(LoginResponse{
		Token:     token,
		Username:  user.Username,
		ExpiresAt: expiresAt.Unix(),
	})
}

// Logout is a client-side token discard; the endpoint exists for symmetry.
func Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}

// VerifyToken confirms the presented admin token is still valid.
func VerifyToken(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":  true,
		"username": c.Locals("username"),
	})
}
