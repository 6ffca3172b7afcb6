package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"

	"portfolio-chat/internal/config"
	"portfolio-chat/internal/content"
	"portfolio-chat/internal/usecase/chat"
)

//go:embed templates/*.html
var templateFS embed.FS

type navItem struct {
	Path  string
	Label string
}

var nav = []navItem{
	{Path: "/chat", Label: "Chatbot"},
	{Path: "/projects", Label: "Portfolio Navigation"},
	{Path: "/faq", Label: "FAQ & Experience"},
	{Path: "/media", Label: "Visuals & Multimedia"},
}

// Server is the browser-facing surface: four panels plus a JSON API over
// the same chat service.
type Server struct {
	app       *fiber.App
	chat      *chat.Service
	portfolio content.Portfolio
	cfg       config.Config
	sessions  *session.Store
	pages     map[string]*template.Template
	log       *slog.Logger
}

func NewServer(cfg config.Config, chatSvc *chat.Service, portfolio content.Portfolio, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		chat:      chatSvc,
		portfolio: portfolio,
		cfg:       cfg,
		pages:     pages,
		log:       logger.With("component", "web"),
		sessions: session.New(session.Config{
			Expiration:     cfg.SessionTTL,
			KeyGenerator:   uuid.NewString,
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
		}),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "portfolio-chat",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,

		// Form values end up in stored turns and must outlive the request buffer.
		Immutable: true,
	})
	s.app.Use(s.requestLogger)
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/chat") })
	s.app.Get("/chat", s.chatPage)
	s.app.Post("/chat", s.chatSubmit)
	s.app.Post("/chat/reset", s.chatReset)
	s.app.Get("/projects", s.projectsPage)
	s.app.Get("/faq", s.faqPage)
	s.app.Get("/media", s.mediaPage)

	v1 := s.app.Group("/api/v1")
	v1.Get("/health", s.health)
	v1.Get("/portfolio", s.portfolioJSON)
	v1.Get("/chat", s.chatHistory)
	v1.Post("/chat", s.chatSend)
	v1.Delete("/chat", s.chatDelete)
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.log.Info("HTTP server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if err != nil {
		// Run the error handler here so the logged status is the one sent.
		if herr := s.handleError(c, err); herr != nil {
			return herr
		}
	}

	attrs := []any{
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		s.log.Error("request failed", attrs...)
		return nil
	}
	s.log.Debug("request completed", attrs...)
	return nil
}

// sessionID returns the caller's session key, issuing a cookie when the
// session is new.
func (s *Server) sessionID(c *fiber.Ctx) (string, error) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	id := sess.ID()
	if sess.Fresh() {
		sess.Set("started", time.Now().Unix())
		// Save releases sess back to the pool.
		if err := sess.Save(); err != nil {
			return "", fmt.Errorf("save session: %w", err)
		}
	}
	return id, nil
}

func (s *Server) endSession(c *fiber.Ctx) (string, error) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	id := sess.ID()
	if err := sess.Destroy(); err != nil {
		return "", fmt.Errorf("destroy session: %w", err)
	}
	return id, nil
}

type pageData struct {
	Title     string
	Active    string
	Nav       []navItem
	Banner    string
	Turns     any
	Portfolio content.Portfolio
}

func (s *Server) render(c *fiber.Ctx, page string, data pageData) error {
	tmpl, ok := s.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	data.Nav = nav
	data.Portfolio = s.portfolio

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func parsePages() (map[string]*template.Template, error) {
	funcs := template.FuncMap{"pct": percent}
	pages := make(map[string]*template.Template)
	for _, name := range []string{"chat", "projects", "faq", "media"} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

func percent(v, top int) int {
	if top <= 0 || v <= 0 {
		return 0
	}
	return v * 100 / top
}
