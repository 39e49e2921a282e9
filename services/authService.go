package services

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
	"gorm.io/gorm"
)

const msgAccountExists = "An account with this email already exists"

// CreateAccount inserts a new user. Losing a signup race on the email index is
// reported as already-exists.
func CreateAccount(ctx context.Context, user *models.User) error {
	if err := db(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.AlreadyExists(msgAccountExists)
		}
		return utils.Internal("Failed to create account", err)
	}
	return nil
}

// RequestPasswordReset stores a fresh reset token for the account behind email
// and mails the reset link. Unknown emails succeed silently.
func RequestPasswordReset(ctx context.Context, email string) error {
	var user models.User
	if err := db(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Password reset requested for unknown email %s", email)
			return nil
		}
		return utils.Internal("Failed to look up account", err)
	}

	token, err := utils.GenerateCode(16)
	if err != nil {
		return utils.Internal("Failed to generate reset token", err)
	}
	expiresAt := now().Add(initializers.Config.Auth.ResetTokenTTL)
	if err := db(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"password_reset_token":      token,
		"password_reset_expires_at": expiresAt,
	}).Error; err != nil {
		return utils.Internal("Failed to save reset token", err)
	}

	sendPasswordResetEmail(user, token)
	return nil
}

func sendPasswordResetEmail(user models.User, token string) {
	settings := mailSettings()
	if !settings.Configured() {
		log.Printf("Mail is not configured, password reset link for user %d was not sent", user.ID)
		return
	}
	data := utils.EmailData{
		Name:    user.Fullname,
		Message: "Vous avez demandé à réinitialiser votre mot de passe Pizza King.",
		Link:    strings.TrimRight(initializers.Config.Auth.ResetURL, "/") + "/" + token,
	}
	templatePath := filepath.Join(initializers.Config.Mail.Templates, "password_reset.html")
	if err := sendMail(settings, user.Email, "Pizza King - Password reset", data, templatePath); err != nil {
		log.Printf("Failed to send password reset email to user %d: %v", user.ID, err)
		return
	}
	log.Printf("Password reset email sent to user %d", user.ID)
}

// ResetPassword replaces the password of the account holding an unexpired reset
// token. The token is single use.
func ResetPassword(ctx context.Context, token, hashedPassword string) error {
	if token == "" {
		return utils.InvalidArgument("Invalid or expired reset token")
	}
	result := db(ctx).Model(&models.User{}).
		Where("password_reset_token = ? AND password_reset_expires_at > ?", token, now()).
		Updates(map[string]any{
			"password":                  hashedPassword,
			"password_reset_token":      "",
			"password_reset_expires_at": nil,
		})
	if result.Error != nil {
		return utils.Internal("Failed to reset password", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.InvalidArgument("Invalid or expired reset token")
	}
	return nil
}
