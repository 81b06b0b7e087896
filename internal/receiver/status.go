package receiver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/k3rn3ld3v/ClipTunnel/internal/observability"
)

// Snapshot is a point-in-time view of the receiver for the status
// endpoint.
type Snapshot struct {
	Active       bool      `json:"active"`
	TransferID   string    `json:"transfer_id,omitempty"`
	BaseName     string    `json:"base_name,omitempty"`
	State        string    `json:"state,omitempty"`
	PartCount    int       `json:"part_count,omitempty"`
	PartsDone    int       `json:"parts_done,omitempty"`
	ChunksStored int       `json:"chunks_stored,omitempty"`
	BytesStored  int64     `json:"bytes_stored,omitempty"`
	StartedAt    time.Time `json:"started_at,omitempty"`

	LastTransferID string    `json:"last_transfer_id,omitempty"`
	LastVerified   bool      `json:"last_verified,omitempty"`
	LastPath       string    `json:"last_path,omitempty"`
	LastFinishedAt time.Time `json:"last_finished_at,omitempty"`
}

// Snapshot returns the current session view; safe for concurrent use
// with the run loop.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var snap Snapshot
	if e.sess != nil {
		snap.Active = true
		snap.TransferID = e.sess.id
		snap.BaseName = e.sess.baseName
		snap.State = e.sess.state.String()
		snap.PartCount = e.sess.partCount
		snap.PartsDone = e.sess.parts.Count()
		snap.ChunksStored = e.sess.chunksStored
		snap.BytesStored = e.sess.bytesStored
		snap.StartedAt = e.sess.started
	}
	if e.last != nil {
		snap.LastTransferID = e.last.TransferID
		snap.LastVerified = e.last.Verified
		snap.LastPath = e.last.Path
		snap.LastFinishedAt = e.last.FinishedAt
	}
	return snap
}

// StatusServer builds the optional HTTP introspection server.
func (e *Engine) StatusServer(addr string) *http.Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	startedAt := time.Now()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(startedAt).String(),
			"component": "cliptunnel-receiver",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/transfer", func(c *gin.Context) {
		c.JSON(http.StatusOK, e.Snapshot())
	})

	return &http.Server{Addr: addr, Handler: r}
}
