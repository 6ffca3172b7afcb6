package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"portfolio-chat/internal/usecase/chat"
)

func (s *Server) chatPage(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}
	return s.render(c, "chat", pageData{
		Title:  "Chatbot",
		Active: "/chat",
		Banner: s.cfg.CredentialWarning,
		Turns:  s.chat.History(id),
	})
}

func (s *Server) chatSubmit(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}
	if _, err := s.chat.HandleMessage(c.UserContext(), id, c.FormValue("message")); err != nil && !errors.Is(err, chat.ErrEmptyMessage) {
		return err
	}
	return c.Redirect("/chat", http.StatusSeeOther)
}

func (s *Server) chatReset(c *fiber.Ctx) error {
	id, err := s.endSession(c)
	if err != nil {
		return err
	}
	s.chat.Reset(id)
	return c.Redirect("/chat", http.StatusSeeOther)
}

func (s *Server) projectsPage(c *fiber.Ctx) error {
	return s.render(c, "projects", pageData{Title: "Portfolio Navigation", Active: "/projects"})
}

func (s *Server) faqPage(c *fiber.Ctx) error {
	return s.render(c, "faq", pageData{Title: "FAQ & Experience", Active: "/faq"})
}

func (s *Server) mediaPage(c *fiber.Ctx) error {
	return s.render(c, "media", pageData{Title: "Visuals & Multimedia", Active: "/media"})
}

func (s *Server) health(c *fiber.Ctx) error {
	return JSON(c, http.StatusOK, fiber.Map{
		"status":     "ok",
		"credential": s.cfg.OpenAIKey != "",
	})
}

func (s *Server) portfolioJSON(c *fiber.Ctx) error {
	return JSON(c, http.StatusOK, s.portfolio)
}

func (s *Server) chatHistory(c *fiber.Ctx) error {
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, fiber.Map{
		"messages": s.chat.History(id),
		"warning":  s.cfg.CredentialWarning,
	})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) chatSend(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	id, err := s.sessionID(c)
	if err != nil {
		return err
	}

	reply, err := s.chat.HandleMessage(c.UserContext(), id, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			return Error(c, http.StatusBadRequest, "message is required")
		}
		return err
	}
	return JSON(c, http.StatusOK, fiber.Map{
		"reply":    reply,
		"messages": s.chat.History(id),
	})
}

func (s *Server) chatDelete(c *fiber.Ctx) error {
	id, err := s.endSession(c)
	if err != nil {
		return err
	}
	s.chat.Reset(id)
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if strings.HasPrefix(c.Path(), "/api/") {
		return Error(c, code, err.Error())
	}
	return c.Status(code).SendString(err.Error())
}
