// handlers/auth.go
package handlers

import (
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"clickmill/database"
	"clickmill/middleware"
	"clickmill/models"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GuestLoginRequest struct {
	GuestName string `json:"guest_name,omitempty"`
}

type AuthResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token,omitempty"`
	User    UserInfo `json:"user,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type UserInfo struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsGuest    bool      `json:"is_guest"`
	ClickTotal int64     `json:"click_total"`
	CreatedAt  time.Time `json:"created_at"`
}

func userInfo(user models.User) UserInfo {
	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	return UserInfo{
		ID:         user.ID,
		Username:   user.Username,
		Email:      email,
		IsGuest:    user.IsGuest,
		ClickTotal: user.ClickTotal,
		CreatedAt:  user.CreatedAt,
	}
}

// GuestLogin creates a new guest session
func GuestLogin(c *fiber.Ctx) error {
	var req GuestLoginRequest
	_ = c.BodyParser(&req) // empty body is fine for guests

	db := database.GetDB()
	if db == nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Error:   "Database not available",
		})
	}

	guestName := req.GuestName
	if guestName == "" {
		guestName = fmt.Sprintf("Guest_%s", uuid.New().String()[:8])
	}
	guestEmail := fmt.Sprintf("guest_%s@clickmill.local", uuid.New().String()[:8])

	user := models.User{
		Username:  guestName,
		Email:     &guestEmail,
		Password:  "",
		IsGuest:   true,
		CreatedAt: time.Now(),
	}

	if err := db.Create(&user).Error; err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Error:   "Failed to create guest account",
		})
	}

	token, err := generateToken(user)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Error:   "Failed to generate token",
		})
	}

	return c.JSON(AuthResponse{Success: true, Token: token, User: userInfo(user)})
}

// Login authenticates a registered user
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Invalid request body"})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Username and password required"})
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("username = ? AND is_guest = ?", req.Username, false).First(&user).Error; err != nil {
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Invalid credentials"})
	}

	db.Model(&user).Update("last_login", time.Now())

	token, err := generateToken(user)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}

	return c.JSON(AuthResponse{Success: true, Token: token, User: userInfo(user)})
}

// Register creates a new user account
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Invalid request body"})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Username and password required"})
	}
	if len(req.Password) < 6 {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Password must be at least 6 characters"})
	}

	db := database.GetDB()

	var existingUser models.User
	if err := db.Where("username = ?", req.Username).First(&existingUser).Error; err == nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Username already taken"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to hash password"})
	}

	user := models.User{
		Username:  req.Username,
		Email:     &req.Email,
		Password:  string(hashedPassword),
		IsGuest:   false,
		CreatedAt: time.Now(),
	}

	if err := db.Create(&user).Error; err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to create account"})
	}

	token, err := generateToken(user)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}

	return c.JSON(AuthResponse{Success: true, Token: token, User: userInfo(user)})
}

// RefreshToken issues a fresh token for the authenticated user. This is the
// endpoint the click aggregator hits for its single refresh-and-retry on an
// authentication failure.
func RefreshToken(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Unauthorized"})
	}

	db := database.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(AuthResponse{Success: false, Error: "User not found"})
	}

	token, err := generateToken(user)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}

	return c.JSON(AuthResponse{Success: true, Token: token, User: userInfo(user)})
}

func generateToken(user models.User) (string, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "clickmill-secret-change-in-production"
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"is_guest": user.IsGuest,
		"is_admin": user.IsAdmin,
		"exp":      time.Now().Add(time.Hour * 720).Unix(), // 30 days
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
