package httpservice

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ark-network/ark-dice/internal/core/application"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
)

var (
	errFeedClosed = errors.New("event feed closed")

	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// The feed is public and read-only.
		CheckOrigin: func(*http.Request) bool { return true },
	}
)

// streamEvents upgrades the request to a websocket and pushes the replay snapshot followed
// by live game results and donations. Clients dropped by the broadcaster for being slow get
// a close frame and are expected to reconnect.
func (h *handler) streamEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Debug("failed to upgrade connection")
		return
	}
	// nolint:all
	defer conn.Close()

	sub := h.svc.SubscribeEvents()
	defer h.svc.UnsubscribeEvents(sub.Id)
	log.Debugf("feed subscriber %s connected", sub.Id)

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		return readPump(conn)
	})
	g.Go(func() error {
		// Unblocks the read pump.
		// nolint:all
		defer conn.Close()
		return writePump(ctx, conn, sub.Events)
	})

	if err := g.Wait(); err != nil && !isExpectedClose(err) {
		log.WithError(err).Debugf("feed subscriber %s disconnected", sub.Id)
		return
	}
	log.Debugf("feed subscriber %s disconnected", sub.Id)
}

// readPump discards client messages, it only keeps the read deadline moving and detects
// disconnections.
func readPump(conn *websocket.Conn) error {
	conn.SetReadLimit(512)
	// nolint:all
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
	}
}

func writePump(
	ctx context.Context, conn *websocket.Conn, events <-chan application.FeedEvent,
) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, open := <-events:
			// nolint:all
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				// nolint:all
				conn.WriteMessage(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "feed closed"),
				)
				return errFeedClosed
			}
			msg, ok := toFeedMessage(event)
			if !ok {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(
				websocket.PingMessage, nil, time.Now().Add(writeWait),
			); err != nil {
				return err
			}
		}
	}
}

func isExpectedClose(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, errFeedClosed) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
