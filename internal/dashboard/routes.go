package dashboard

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JackMiao999/MCP-TMUX/internal/models"
	"github.com/JackMiao999/MCP-TMUX/internal/registry"
	"github.com/JackMiao999/MCP-TMUX/internal/store"
)

// defaultMessageLimit caps the /api/messages listing.
const defaultMessageLimit = 100

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, st *store.Store, reg *registry.Registry) {
	router.GET("/healthz", handleHealth())
	router.GET("/api/agents", handleAgents(reg))
	router.GET("/api/messages", handleMessages(st))
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleAgents(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		agents, err := reg.ListActive()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if agents == nil {
			agents = []models.Agent{}
		}
		c.JSON(http.StatusOK, agents)
	}
}

// handleMessages lists queued messages, newest first, optionally
// filtered to one agent's conversations via ?agent=<id>.
func handleMessages(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgs, err := store.ListAll[models.Message](st, store.Messages)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if agent := c.Query("agent"); agent != "" {
			var filtered []models.Message
			for _, m := range msgs {
				if m.From == agent || m.To == agent {
					filtered = append(filtered, m)
				}
			}
			msgs = filtered
		}

		sort.Slice(msgs, func(i, j int) bool {
			return msgs[i].Timestamp.After(msgs[j].Timestamp)
		})

		limit := defaultMessageLimit
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		if len(msgs) > limit {
			msgs = msgs[:limit]
		}
		if msgs == nil {
			msgs = []models.Message{}
		}
		c.JSON(http.StatusOK, msgs)
	}
}
