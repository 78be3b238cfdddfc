package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dkeye/CodeSync/internal/app/orch"
	"github.com/dkeye/CodeSync/internal/compile"
	"github.com/dkeye/CodeSync/internal/core"
	"github.com/dkeye/CodeSync/internal/domain"
	"github.com/dkeye/CodeSync/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type CompileRequest struct {
	Code     string `json:"code"`
	Language string `json:"language" binding:"required,max=32"`
}

type RoomResponse struct {
	ID       domain.RoomID    `json:"roomId"`
	Language domain.Language  `json:"language"`
	Text     string           `json:"text"`
	Members  []core.MemberDTO `json:"members"`
}

const (
	defaultStoredPage = 50
	maxStoredPage     = 200
)

// RoomArchive lists rooms whose snapshot outlived them.
type RoomArchive interface {
	List(ctx context.Context, limit, offset int) ([]store.StoredRoom, error)
}

type handlers struct {
	orch     *orch.Orchestrator
	archive  RoomArchive
	compiler compile.Executor
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listRooms returns live rooms, or evicted ones with ?stored=1.
func (h *handlers) listRooms(c *gin.Context) {
	if stored, _ := strconv.ParseBool(c.Query("stored")); stored {
		h.listStoredRooms(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms.List()})
}

func (h *handlers) listStoredRooms(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusOK, gin.H{"rooms": []store.StoredRoom{}})
		return
	}
	limit := queryInt(c, "limit", defaultStoredPage)
	if limit <= 0 || limit > maxStoredPage {
		limit = defaultStoredPage
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	rooms, err := h.archive.List(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list stored rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list stored rooms"})
		return
	}
	if rooms == nil {
		rooms = []store.StoredRoom{}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "limit": limit, "offset": offset})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// getRoom is read-only: asking about a room never brings it to life.
func (h *handlers) getRoom(c *gin.Context) {
	room, ok := h.orch.Rooms.GetRoom(domain.RoomID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	st := room.State()
	c.JSON(http.StatusOK, RoomResponse{
		ID:       st.ID,
		Language: st.Snapshot.Language,
		Text:     st.Snapshot.Text,
		Members:  st.Members,
	})
}

func (h *handlers) listLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": domain.Languages(),
		"default":   domain.DefaultLanguage,
	})
}

func (h *handlers) compile(c *gin.Context) {
	var req CompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid language"})
		return
	}

	if !compile.Supported(domain.Language(req.Language)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported language"})
		return
	}

	out, err := h.compiler.Execute(c.Request.Context(), req.Code, domain.Language(req.Language))
	switch {
	case errors.Is(err, compile.ErrUnsupportedLanguage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported language"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Str("language", req.Language).Msg("compile failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to compile code"})
	default:
		c.Data(http.StatusOK, "application/json", out)
	}
}
