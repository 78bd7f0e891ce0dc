package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/moments/internal/queue"
	"github.com/your-org/moments/internal/storage"
)

type SystemHandler struct {
	store    storage.MomentStore
	objects  storage.ObjectStore
	producer *queue.Producer // nil when the pipeline runs in-process
}

func NewSystemHandler(store storage.MomentStore, objects storage.ObjectStore, producer *queue.Producer) *SystemHandler {
	return &SystemHandler{store: store, objects: objects, producer: producer}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	check := func(name string, err error) {
		if err != nil {
			checks[name] = err.Error()
			healthy = false
			return
		}
		checks[name] = "ok"
	}

	check("database", h.store.Ping(ctx))
	check("object_store", h.objects.Ping(ctx))
	if h.producer != nil {
		check("nats", h.producer.Ping())
	} else {
		checks["nats"] = "in-process"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": map[bool]string{true: "ready", false: "not ready"}[healthy],
		"checks": checks,
	})
}
