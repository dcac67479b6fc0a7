package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/enunciate/internal/observe"
	"github.com/MrWong99/enunciate/internal/practice"
	"github.com/MrWong99/enunciate/pkg/types"
)

// Client message types on the live socket.
const (
	msgSelect     = "select"
	msgTranscript = "transcript"
	msgRecording  = "recording"
)

// Server message types on the live socket.
const (
	msgSelected = "selected"
	msgFeedback = "feedback"
	msgError    = "error"
)

const liveWriteTimeout = 5 * time.Second

// errSessionClosed ends a live connection whose session was deleted.
var errSessionClosed = errors.New("api: session closed")

// clientMessage is one JSON frame from the browser.
//
//	{"type":"select","item_id":3}
//	{"type":"transcript","text":"hello","confidence":0.9,"final":true}
//	{"type":"recording","duration_seconds":1.2,"size_bytes":38400}
type clientMessage struct {
	Type            string  `json:"type"`
	ItemID          int     `json:"item_id,omitempty"`
	Text            string  `json:"text,omitempty"`
	Confidence      float64 `json:"confidence,omitempty"`
	Final           bool    `json:"final,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	SizeBytes       int64   `json:"size_bytes,omitempty"`
}

// serverMessage is one JSON frame sent to the browser. "recording" echoes
// a submission; "feedback" carries every delivered recording of the session,
// including those submitted over other connections.
type serverMessage struct {
	Type      string              `json:"type"`
	Item      *types.PracticeItem `json:"item,omitempty"`
	Recording *practice.Recording `json:"recording,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// liveConn is the per-connection state of a live practice socket.
type liveConn struct {
	srv  *Server
	conn *websocket.Conn
	sess *practice.Session
	log  *slog.Logger

	writeMu sync.Mutex

	item       *types.PracticeItem
	transcript *clientMessage
}

// live upgrades to a WebSocket. The browser selects an item, streams
// recognizer transcripts and reports each finished recording; the server
// answers with the scored feedback.
func (s *Server) live(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Warn("api: websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	if s.metrics != nil {
		s.metrics.LiveConnections.Add(ctx, 1)
		defer s.metrics.LiveConnections.Add(context.WithoutCancel(ctx), -1)
	}

	lc := &liveConn{
		srv:  s,
		conn: conn,
		sess: sess,
		log:  observe.Logger(ctx).With("session_id", sess.ID()),
	}
	lc.log.Info("api: live connection opened")

	err = lc.run(ctx)
	switch {
	case errors.Is(err, errSessionClosed):
		conn.Close(websocket.StatusGoingAway, "session deleted")
	case err == nil, websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway:
		conn.Close(websocket.StatusNormalClosure, "")
	default:
		lc.log.Debug("api: live connection ended", "err", err)
		conn.Close(websocket.StatusInternalError, "")
	}
	lc.log.Info("api: live connection closed")
}

func (lc *liveConn) run(ctx context.Context) error {
	deliveries, unsubscribe := lc.sess.Subscribe()
	defer unsubscribe()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return lc.readLoop(ctx) })
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case rec, ok := <-deliveries:
				if !ok {
					return errSessionClosed
				}
				if err := lc.write(ctx, serverMessage{Type: msgFeedback, Recording: &rec}); err != nil {
					return err
				}
			}
		}
	})
	return g.Wait()
}

func (lc *liveConn) readLoop(ctx context.Context) error {
	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, lc.conn, &msg); err != nil {
			return err
		}
		if err := lc.handle(ctx, msg); err != nil {
			if werr := lc.write(ctx, serverMessage{Type: msgError, Error: err.Error()}); werr != nil {
				return werr
			}
		}
	}
}

// handle applies one client message. Returned errors are reported to the
// client and do not end the connection.
func (lc *liveConn) handle(ctx context.Context, msg clientMessage) error {
	switch msg.Type {
	case msgSelect:
		item, err := lc.srv.catalog.Get(ctx, msg.ItemID)
		if err != nil {
			return err
		}
		lc.item = &item
		lc.transcript = nil
		return lc.write(ctx, serverMessage{Type: msgSelected, Item: &item})

	case msgTranscript:
		// Interim results are superseded by the final one.
		if msg.Final {
			lc.transcript = &msg
		}
		return nil

	case msgRecording:
		if lc.item == nil {
			return badRequest("select an item before recording")
		}
		a := practice.Attempt{
			Item:     *lc.item,
			Metadata: types.RecordingMetadata{DurationSeconds: msg.DurationSeconds, SizeBytes: msg.SizeBytes},
		}
		if lc.transcript != nil {
			a.Recognition = recognize(a.Item, lc.transcript.Text, lc.transcript.Confidence)
		}
		lc.transcript = nil

		rec, err := lc.srv.coach.Submit(ctx, lc.sess.ID(), a)
		if err != nil {
			return err
		}
		return lc.write(ctx, serverMessage{Type: msgRecording, Recording: &rec})

	default:
		return badRequest("unknown message type %q", msg.Type)
	}
}

func (lc *liveConn) write(ctx context.Context, msg serverMessage) error {
	lc.writeMu.Lock()
	defer lc.writeMu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, lc.conn, msg)
}
