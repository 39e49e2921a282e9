package services

import (
	"sync"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/models"
	"github.com/Kariqs/pizzaking-api/utils"
)

func (s *ServiceSuite) TestOnUserCreateWelcomesAndCreditsBonus() {
	initializers.Config.Loyalty.WelcomeBonus = 50
	user := s.createUser("Fatou Diop", "fatou@example.com", models.RoleCustomer, 0)

	OnUserCreate(s.ctx, &user)
	s.Equal(int64(50), user.LoyaltyPoints)
	s.Equal(int64(50), s.reloadUser(user.ID).LoyaltyPoints)

	notifications, err := ListNotifications(s.ctx, user.ID, false)
	s.Require().NoError(err)
	s.Require().Len(notifications, 2)

	summary, err := GetLoyalty(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(int64(50), summary.Points)
	s.Equal(int64(5), summary.PointValue)
	s.Require().Len(summary.Transactions, 1)
	s.Equal(models.LoyaltyBonus, summary.Transactions[0].Type)
}

func (s *ServiceSuite) TestOnUserCreateWithoutBonus() {
	user := s.createUser("Fatou Diop", "fatou@example.com", models.RoleCustomer, 0)
	OnUserCreate(s.ctx, &user)

	notifications, err := ListNotifications(s.ctx, user.ID, false)
	s.Require().NoError(err)
	s.Require().Len(notifications, 1)
	s.Equal(models.NotificationWelcome, notifications[0].Type)
}

func (s *ServiceSuite) TestStatusChangeSendsEmailWhenConfigured() {
	initializers.Config.Mail = initializers.MailConfig{From: "orders@pizzaking.ci", SMTPAddress: "smtp.test:587", Templates: "templates"}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var sentTo []string
	sendMail = func(settings utils.MailSettings, to, subject string, data utils.EmailData, templatePath string) error {
		defer wg.Done()
		mu.Lock()
		sentTo = append(sentTo, to)
		mu.Unlock()
		return nil
	}
	s.T().Cleanup(func() { sendMail = utils.SendEmail })

	order := s.pickupOrder(models.PaymentMethodCash)
	wg.Add(1)
	_, err := UpdateOrderStatus(s.ctx, s.adminActor(), order.ID, UpdateStatusRequest{Status: models.OrderStatusConfirmed})
	s.Require().NoError(err)
	wg.Wait()

	s.Equal([]string{s.customer.Email}, sentTo)
}

func (s *ServiceSuite) TestNotificationsReadFlow() {
	s.pickupOrder(models.PaymentMethodCash)
	s.pickupOrder(models.PaymentMethodCash)

	unread, err := ListNotifications(s.ctx, s.customer.ID, true)
	s.Require().NoError(err)
	s.Require().Len(unread, 2)

	s.Require().NoError(MarkNotificationRead(s.ctx, s.customer.ID, unread[0].ID))
	s.requireCode(MarkNotificationRead(s.ctx, s.other.ID, unread[1].ID), utils.CodeNotFound)

	unread, err = ListNotifications(s.ctx, s.customer.ID, true)
	s.Require().NoError(err)
	s.Len(unread, 1)

	count, err := MarkAllNotificationsRead(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	unread, err = ListNotifications(s.ctx, s.customer.ID, true)
	s.Require().NoError(err)
	s.Empty(unread)
}
