package services

import (
	"strings"
	"time"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
)

func (s *ServiceSuite) TestCreateAccountRejectsDuplicateEmail() {
	user := models.User{Fullname: "Awa Bis", Email: s.customer.Email, Password: "hash", Role: models.RoleCustomer}
	err := CreateAccount(s.ctx, &user)
	s.requireCode(err, utils.CodeAlreadyExists)

	fresh := models.User{Fullname: "Fatou Diop", Email: "fatou@example.com", Password: "hash", Role: models.RoleCustomer}
	s.Require().NoError(CreateAccount(s.ctx, &fresh))
	s.NotZero(fresh.ID)
}

func (s *ServiceSuite) TestPasswordResetFlow() {
	initializers.Config.Mail = initializers.MailConfig{From: "orders@pizzaking.ci", SMTPAddress: "smtp.test:587", Templates: "templates"}
	initializers.Config.Auth.ResetURL = "https://pizzaking.ci/reset-password/"

	var sentTo string
	var sent utils.EmailData
	sendMail = func(settings utils.MailSettings, to, subject string, data utils.EmailData, templatePath string) error {
		sentTo, sent = to, data
		return nil
	}
	s.T().Cleanup(func() { sendMail = utils.SendEmail })

	s.Require().NoError(RequestPasswordReset(s.ctx, " AWA@example.com "))
	s.Equal(s.customer.Email, sentTo)
	s.Require().True(strings.HasPrefix(sent.Link, "https://pizzaking.ci/reset-password/"))
	token := strings.TrimPrefix(sent.Link, "https://pizzaking.ci/reset-password/")

	stored := s.reloadUser(s.customer.ID)
	s.Equal(token, stored.PasswordResetToken)
	s.Require().NotNil(stored.PasswordResetExpiresAt)
	s.WithinDuration(time.Now().Add(time.Hour), *stored.PasswordResetExpiresAt, time.Minute)

	s.Require().NoError(ResetPassword(s.ctx, token, "new-hash"))
	stored = s.reloadUser(s.customer.ID)
	s.Equal("new-hash", stored.Password)
	s.Empty(stored.PasswordResetToken)
	s.Nil(stored.PasswordResetExpiresAt)

	s.requireCode(ResetPassword(s.ctx, token, "again"), utils.CodeInvalidArgument)
}

func (s *ServiceSuite) TestPasswordResetUnknownEmailAndExpiredToken() {
	sendMail = func(settings utils.MailSettings, to, subject string, data utils.EmailData, templatePath string) error {
		s.Fail("no email expected")
		return nil
	}
	s.T().Cleanup(func() { sendMail = utils.SendEmail })

	s.Require().NoError(RequestPasswordReset(s.ctx, "nobody@example.com"))

	expired := time.Now().Add(-time.Minute)
	s.Require().NoError(initializers.DB.Model(&models.User{}).Where("id = ?", s.other.ID).
		Updates(map[string]any{"password_reset_token": "stale", "password_reset_expires_at": expired}).Error)
	s.requireCode(ResetPassword(s.ctx, "stale", "new-hash"), utils.CodeInvalidArgument)
	s.requireCode(ResetPassword(s.ctx, "", "new-hash"), utils.CodeInvalidArgument)
}
