package server

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/diogo/finking/internal/models"
	"github.com/diogo/finking/internal/widget"
)

// SessionCookie names the cookie carrying the widget session id
const SessionCookie = "finking_session"

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type messageView struct {
	Role string
	HTML template.HTML
}

type indexData struct {
	Messages  []messageView
	Working   bool
	MaxLength int
}

func (s *Server) session(c *fiber.Ctx) *widget.Controller {
	id, controller := s.sessions.Get(c.Cookies(SessionCookie))
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(s.cfg.SessionIdle()),
	})
	return controller
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	// Sessions start with the first message; until then the page shows
	// the greeting of an unsaved controller.
	controller, ok := s.sessions.Lookup(c.Cookies(SessionCookie))
	if !ok {
		controller = s.sessions.Preview()
	}

	data := indexData{
		Working:   controller.Working(),
		MaxLength: models.MaxMessageLength,
	}
	for _, entry := range controller.Entries() {
		data.Messages = append(data.Messages, messageView{
			Role: string(entry.Message.Role),
			// Entry HTML comes from the renderer: escaped or sanitized.
			HTML: template.HTML(entry.HTML),
		})
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return err
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (s *Server) handleSend(c *fiber.Ctx) error {
	controller := s.session(c)

	out, err := controller.Send(c.UserContext(), c.FormValue("message"))
	switch {
	case errors.Is(err, widget.ErrEmptyMessage):
		// blank input is ignored
	case errors.Is(err, widget.ErrBusy):
		log.Debug().Msg("widget message ignored while another is in flight")
	case err != nil:
		return err
	default:
		log.Debug().Str("outcome", out.Kind.String()).Int("attempts", out.Attempts).Msg("widget message delivered")
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}
