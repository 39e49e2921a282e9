package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/middlewares"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/services"
	"github.com/Kariqs/pizzaking-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// Default cost for bcrypt password hashing
	bcryptCost = 10

	msgInvalidInput          = "Invalid request body"
	msgUserAlreadyExists     = "An account with this email already exists"
	msgInvalidCredentials    = "Invalid email or password"
	msgFailedToGenerateToken = "Failed to generate token"
	msgInternalServerError   = "Internal server error"
	msgResetLinkSent         = "If an account exists for this email, a reset link has been sent"
	msgPasswordReset         = "Password has been reset successfully"
)

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	if _, ok := data["success"]; !ok {
		data["success"] = true
	}
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, code, message string) {
	ctx.JSON(status, gin.H{
		"success": false,
		"code":    code,
		"message": message,
	})
}

// respondWithError sends a service error with its mapped status. Wrapped causes
// are logged and never sent to the client.
func respondWithError(ctx *gin.Context, err error) {
	appErr := utils.AsAppError(err)
	if appErr.Err != nil {
		log.Printf("%s %s: %v", ctx.Request.Method, ctx.FullPath(), appErr.Err)
	}
	sendErrorResponse(ctx, utils.HTTPStatus(appErr.Code), appErr.Code, appErr.Message)
}

func bindJSON(ctx *gin.Context, obj any) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		log.Println("JSON binding error:", err)
		sendErrorResponse(ctx, http.StatusBadRequest, utils.CodeInvalidArgument, msgInvalidInput+": "+err.Error())
		return false
	}
	return true
}

func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		sendErrorResponse(ctx, http.StatusBadRequest, utils.CodeInvalidArgument, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func currentActor(ctx *gin.Context) services.Actor {
	return services.Actor{UserID: middlewares.UserID(ctx), Role: middlewares.Role(ctx)}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func generateJWT(user models.User) (string, error) {
	issuedAt := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"iat":     issuedAt.Unix(),
		"exp":     issuedAt.Add(initializers.Config.Auth.TokenTTL).Unix(),
		"jti":     uuid.NewString(),
	})

	return token.SignedString([]byte(initializers.Config.Auth.JWTSecret))
}

func findUserByEmail(email string) (models.User, error) {
	var user models.User
	result := initializers.DB.Where("email = ?", email).First(&user)
	return user, result.Error
}

func sendAuthResponse(ctx *gin.Context, status int, user models.User) {
	tokenString, err := generateJWT(user)
	if err != nil {
		log.Println("JWT generation error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, utils.CodeInternal, msgFailedToGenerateToken)
		return
	}
	sendJSONResponse(ctx, status, gin.H{"token": tokenString, "user": user})
}

// Signup handles user registration
func Signup(ctx *gin.Context) {
	var signUpData models.SignupData
	if !bindJSON(ctx, &signUpData) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(signUpData.Email))

	_, err := findUserByEmail(email)
	if err == nil {
		sendErrorResponse(ctx, http.StatusConflict, utils.CodeAlreadyExists, msgUserAlreadyExists)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Println("Database error during user check:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, utils.CodeInternal, msgInternalServerError)
		return
	}

	hashedPassword, err := hashPassword(signUpData.Password)
	if err != nil {
		log.Println("Password hashing error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, utils.CodeInternal, msgInternalServerError)
		return
	}

	user := models.User{
		Fullname: strings.TrimSpace(signUpData.Fullname),
		Email:    email,
		Phone:    signUpData.Phone,
		Password: hashedPassword,
		Role:     models.RoleCustomer,
	}
	if err := services.CreateAccount(ctx.Request.Context(), &user); err != nil {
		respondWithError(ctx, err)
		return
	}

	services.OnUserCreate(ctx.Request.Context(), &user)
	if fresh, err := services.GetUser(ctx.Request.Context(), user.ID); err == nil {
		user = *fresh
	}

	sendAuthResponse(ctx, http.StatusCreated, user)
}

// Login handles user authentication
func Login(ctx *gin.Context) {
	var loginData models.LoginData
	if !bindJSON(ctx, &loginData) {
		return
	}

	user, err := findUserByEmail(strings.ToLower(strings.TrimSpace(loginData.Email)))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Println("Database error during login:", err)
		}
		sendErrorResponse(ctx, http.StatusUnauthorized, utils.CodeUnauthenticated, msgInvalidCredentials)
		return
	}

	if err := comparePasswords(user.Password, loginData.Password); err != nil {
		sendErrorResponse(ctx, http.StatusUnauthorized, utils.CodeUnauthenticated, msgInvalidCredentials)
		return
	}

	sendAuthResponse(ctx, http.StatusOK, user)
}

// ForgotPassword mails a reset link to the account owner
func ForgotPassword(ctx *gin.Context) {
	var forgotPasswordData models.ForgotPasswordData
	if !bindJSON(ctx, &forgotPasswordData) {
		return
	}
	if err := services.RequestPasswordReset(ctx.Request.Context(), forgotPasswordData.Email); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": msgResetLinkSent})
}

// ResetPassword sets a new password using the token from the reset link
func ResetPassword(ctx *gin.Context) {
	var resetData models.ResetPasswordData
	if !bindJSON(ctx, &resetData) {
		return
	}

	hashedPassword, err := hashPassword(resetData.Password)
	if err != nil {
		log.Println("Password hashing error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, utils.CodeInternal, msgInternalServerError)
		return
	}
	if err := services.ResetPassword(ctx.Request.Context(), ctx.Param("resetToken"), hashedPassword); err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": msgPasswordReset})
}

func GetMe(ctx *gin.Context) {
	user, err := services.GetUser(ctx.Request.Context(), middlewares.UserID(ctx))
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"user": user})
}

func UpdateMe(ctx *gin.Context) {
	var update services.ProfileUpdate
	if !bindJSON(ctx, &update) {
		return
	}
	user, err := services.UpdateProfile(ctx.Request.Context(), middlewares.UserID(ctx), update)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"user": user})
}
