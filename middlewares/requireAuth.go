package middlewares

import (
	"errors"
	"log"
	"strings"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"
)

func abortWithError(ctx *gin.Context, err *utils.AppError) {
	if err.Err != nil {
		log.Printf("%s %s: %v", ctx.Request.Method, ctx.FullPath(), err.Err)
	}
	ctx.AbortWithStatusJSON(utils.HTTPStatus(err.Code), gin.H{
		"success": false,
		"code":    err.Code,
		"message": err.Message,
	})
}

// ParseToken validates an HS256 token signed with secret and returns the user
// id and role it carries.
func ParseToken(tokenString, secret string) (uint, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("unexpected claims type")
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, "", errors.New("token has no user_id")
	}
	role, _ := claims["role"].(string)
	return uint(id), role, nil
}

// Authenticate validates tokenString and returns the caller's id with the role
// currently stored for them. A role change or account deletion takes effect
// before the token expires.
func Authenticate(tokenString string) (uint, string, error) {
	userID, _, err := ParseToken(tokenString, initializers.Config.Auth.JWTSecret)
	if err != nil {
		return 0, "", utils.Unauthenticated("Invalid or expired token")
	}

	var user models.User
	if err := initializers.DB.Select("id", "role").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, "", utils.Unauthenticated("Account no longer exists")
		}
		return 0, "", utils.Internal("Failed to load account", err)
	}
	return user.ID, user.Role, nil
}

func RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			abortWithError(ctx, utils.Unauthenticated("Authentication required"))
			return
		}

		userID, role, err := Authenticate(tokenString)
		if err != nil {
			abortWithError(ctx, utils.AsAppError(err))
			return
		}

		ctx.Set(userIDKey, userID)
		ctx.Set(roleKey, role)
		ctx.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, found := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if found && tokenString != "" {
			if userID, role, err := Authenticate(tokenString); err == nil {
				ctx.Set(userIDKey, userID)
				ctx.Set(roleKey, role)
			}
		}
		ctx.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := Role(ctx)
		for _, allowed := range roles {
			if role == allowed {
				ctx.Next()
				return
			}
		}
		abortWithError(ctx, utils.PermissionDenied("This action requires one of the roles: %s", strings.Join(roles, ", ")))
	}
}

func UserID(ctx *gin.Context) uint {
	value, _ := ctx.Get(userIDKey)
	id, _ := value.(uint)
	return id
}

func Role(ctx *gin.Context) string {
	return ctx.GetString(roleKey)
}
