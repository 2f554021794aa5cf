package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"driving-exam-service/internal/app"
	"driving-exam-service/internal/domain"
)

const sendBuffer = 16

type WSHandler struct {
	service  *app.ExamService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewWSHandler builds the exam websocket endpoint. An empty allowedOrigins
// accepts any origin.
func NewWSHandler(service *app.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[u.Scheme+"://"+u.Host]
		return ok
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	QuestionID int    `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type navigatePayload struct {
	QuestionID int `json:"questionId"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// questionView is a question as shown to the candidate, without the answer key.
type questionView struct {
	ID        int                     `json:"id"`
	Text      string                  `json:"text"`
	ImagePath string                  `json:"imagePath,omitempty"`
	Options   []domain.QuestionOption `json:"options"`
	Category  string                  `json:"category,omitempty"`
}

type sessionPayload struct {
	Session         domain.ExamSession `json:"session"`
	CurrentQuestion *questionView      `json:"currentQuestion"`
	TotalQuestions  int                `json:"totalQuestions"`
	TimeFormatted   string             `json:"timeFormatted"`
}

type tickPayload struct {
	TimeRemainingSeconds int    `json:"timeRemainingSeconds"`
	TimeFormatted        string `json:"timeFormatted"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS starts a fresh exam for the connection, streams countdown ticks
// and applies candidate actions until submission, expiry or disconnect.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	session, err := h.service.StartExam(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	sessionID := session.ID()
	defer h.service.Abandon(sessionID)
	log := h.log.With().Str("session_id", sessionID).Logger()

	send := make(chan outboundMessage, sendBuffer)
	closing := make(chan struct{})
	writerDone := make(chan struct{})

	push := func(msg outboundMessage) {
		select {
		case send <- msg:
		case <-closing:
		case <-writerDone:
		}
	}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write failed")
				conn.Close()
				return
			}
		}
	}()

	countdown, err := h.service.Countdown(sessionID,
		func(snap domain.ExamSession) {
			push(outboundMessage{Type: "tick", Payload: tickPayload{
				TimeRemainingSeconds: snap.TimeRemainingSeconds,
				TimeFormatted:        app.FormatTime(snap.TimeRemainingSeconds),
			}})
		},
		func(result domain.ExamResult) {
			push(outboundMessage{Type: "result", Payload: result})
		},
	)
	if err != nil {
		close(send)
		<-writerDone
		return
	}
	push(h.sessionMessage(session))

	ctx, cancel := context.WithCancel(context.Background())
	go countdown.Run(ctx)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(r.Context(), session, countdown, inbound) {
			push(msg)
		}
	}

	close(closing)
	cancel()
	countdown.Stop()
	<-countdown.Done()
	close(send)
	<-writerDone
	log.Debug().Str("state", string(session.State())).Msg("ws closed")
}

func (h *WSHandler) handle(ctx context.Context, session *app.Session, countdown *app.Countdown, in inboundMessage) []outboundMessage {
	id := session.ID()
	var err error

	switch in.Type {
	case "select":
		var p selectPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return []outboundMessage{errorMessage(errors.New("invalid select payload"))}
		}
		_, err = h.service.SelectOption(id, p.QuestionID, p.OptionID)
	case "navigate":
		var p navigatePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return []outboundMessage{errorMessage(errors.New("invalid navigate payload"))}
		}
		_, err = h.service.NavigateToQuestion(id, p.QuestionID)
	case "next":
		_, err = h.service.NextQuestion(id)
	case "previous":
		_, err = h.service.PreviousQuestion(id)
	case "skip":
		_, err = h.service.SkipToNextUnanswered(id)
	case "submit":
		countdown.Stop()
		result, err := h.service.CompleteExam(ctx, id)
		if err != nil {
			return []outboundMessage{errorMessage(err)}
		}
		return []outboundMessage{h.sessionMessage(session), {Type: "result", Payload: result}}
	default:
		return []outboundMessage{errorMessage(errors.New("unsupported message type"))}
	}

	if err != nil {
		return []outboundMessage{errorMessage(err), h.sessionMessage(session)}
	}
	return []outboundMessage{h.sessionMessage(session)}
}

func (h *WSHandler) sessionMessage(session *app.Session) outboundMessage {
	snap := session.Snapshot()
	payload := sessionPayload{
		Session:        snap,
		TotalQuestions: len(snap.SelectedQuestionIDs),
		TimeFormatted:  app.FormatTime(snap.TimeRemainingSeconds),
	}
	if q, ok := session.CurrentQuestion(); ok {
		payload.CurrentQuestion = &questionView{
			ID:        q.ID,
			Text:      q.Text,
			ImagePath: q.ImagePath,
			Options:   q.Options,
			Category:  q.Category,
		}
	}
	return outboundMessage{Type: "session", Payload: payload}
}

func errorMessage(err error) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
}
