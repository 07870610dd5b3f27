package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/app/repository"
	"github.com/foundersbridge/foundersbridge/internal/pkg/constants"
	"github.com/foundersbridge/foundersbridge/internal/pkg/env"
	"github.com/foundersbridge/foundersbridge/internal/pkg/hcaptcha"
	"github.com/foundersbridge/foundersbridge/internal/pkg/mail"
	"github.com/foundersbridge/foundersbridge/internal/pkg/orgcontext"
	"github.com/foundersbridge/foundersbridge/internal/pkg/session"
	"github.com/foundersbridge/foundersbridge/internal/pkg/utils"
)

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleAuthRegister creates a new inactive user and issues an activation
// token. Activation is a separate step so the email address is proven first.
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	// Captcha is enforced only when a secret is configured
	if env.GetEnv("HCAPTCHA_SECRET", "") != "" {
		if ok, capErr := hcaptcha.Verify(req.CaptchaToken); !ok {
			log.Warnf("[Auth] Captcha verification failed: %v", capErr)
			return badRequest(c, "captcha verification failed")
		}
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := user.GenerateActivationToken(); err != nil {
		return respondError(c, err)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, dupErr := repo.GetByEmail(user.Email); dupErr == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "conflict",
			"message": "an account with this email already exists",
		})
	}
	if err := repo.Create(user); err != nil {
		return respondError(c, err)
	}

	sendActivationMail(user)

	log.Infof("[Auth] Registered user %d (%s)", user.ID, user.Email)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     user.ID,
		"email":  user.Email,
		"status": user.Status,
	})
}

// HandleAuthActivate flips an inactive account to active when the token
// matches.
func HandleAuthActivate(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return badRequest(c, "activation token missing")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return badRequest(c, "invalid activation token")
		}
		return respondError(c, err)
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := repo.Update(user); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": user.Status})
}

// HandleAuthLogin verifies credentials and starts a session.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "invalid email or password",
		})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "account is not active",
		})
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return respondError(c, err)
	}
	sess.Set(orgcontext.AuthKey, true)
	sess.Set(orgcontext.KeyUserID, user.ID)
	if err := sess.Save(); err != nil {
		return respondError(c, err)
	}
	_ = session.SetSessionValue(c, orgcontext.KeyUserName, user.Name)

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Warnf("[Auth] Failed to record last login for user %d: %v", user.ID, err)
	}

	ipv4, ipv6 := GetClientIP(c)
	log.Infof("[Auth] User %d logged in (ipv4=%s ipv6=%s)", user.ID, ipv4, ipv6)

	return c.JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// HandleAuthLogout destroys the session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if destroyErr := sess.Destroy(); destroyErr != nil {
			log.Warnf("[Auth] Failed to destroy session: %v", destroyErr)
		}
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// HandleAuthMe returns the session's user and acting organization.
func HandleAuthMe(c *fiber.Ctx) error {
	ctx := orgcontext.GetOrgContext(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}

	avatarURL := ""
	if user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(ctx.UserID); err == nil {
		avatarURL = utils.GetGravatarURL(user.Email, 200)
	}

	return c.JSON(fiber.Map{
		"context":    ctx,
		"avatar_url": avatarURL,
	})
}

// sendActivationMail delivers the activation link. Registration succeeds even
// when delivery fails; the token can be re-sent by support.
func sendActivationMail(user *models.User) {
	appURL := env.GetEnv("APP_URL", "http://localhost:4000")
	link := fmt.Sprintf("%s%s?token=%s", appURL, constants.AuthActivatePath, user.ActivationToken)
	body := fmt.Sprintf("<p>Hi %s,</p><p>Please confirm your email address to activate your account:</p><p><a href=\"%s\">%s</a></p>", user.Name, link, link)
	if err := mail.SendMail(user.Email, "Activate your account", body); err != nil {
		log.Warnf("[Auth] Failed to send activation mail to user %d: %v", user.ID, err)
	}
}
