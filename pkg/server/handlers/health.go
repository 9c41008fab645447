package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/pathfinder"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

const serviceName = "pathfinder"

// HealthHandler handles health check requests
type HealthHandler struct {
	finder    pathfinder.PathFinder
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(f pathfinder.PathFinder) *HealthHandler {
	return &HealthHandler{
		finder:    f,
		startedAt: time.Now(),
	}
}

// HealthCheck handles GET /health - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready. The service is ready once the knowledge
// base answers a ping.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	response := gin.H{
		"status":    "ready",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}

	allHealthy := true
	if h.finder != nil {
		kbStartTime := time.Now()
		err := h.finder.Ping(ctx)
		kbDuration := time.Since(kbStartTime)

		if err != nil {
			checks["knowledge_base"] = gin.H{
				"status":   "unhealthy",
				"error":    err.Error(),
				"duration": kbDuration.String(),
			}
			allHealthy = false
		} else {
			checks["knowledge_base"] = gin.H{
				"status":   "healthy",
				"duration": kbDuration.String(),
			}
		}
	} else {
		checks["knowledge_base"] = gin.H{
			"status": "unhealthy",
			"error":  "pathfinder client not initialized",
		}
		allHealthy = false
	}

	checks["system"] = gin.H{
		"status": "healthy",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	}

	if !allHealthy {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// LivenessCheck handles GET /live - Kubernetes liveness probe endpoint
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthCheck handles GET /health/detailed - build and runtime information
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	startTime := time.Now()
	checks := gin.H{}
	response := gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": Version,
		"build_info": gin.H{
			"git_commit": GitCommit,
			"build_time": BuildTime,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"environment": gin.H{
			"go_version": GoVersion,
		},
		"checks": checks,
	}

	allHealthy := true
	if h.finder != nil {
		kbStartTime := time.Now()
		err := h.finder.Ping(ctx)
		kbStatus := gin.H{
			"status":      "healthy",
			"duration_ms": time.Since(kbStartTime).Milliseconds(),
			"operation":   "Ping",
		}
		if err != nil {
			kbStatus["status"] = "unhealthy"
			kbStatus["error"] = err.Error()
			allHealthy = false
		}
		checks["knowledge_base"] = kbStatus
	} else {
		checks["pathfinder_client"] = gin.H{
			"status": "unhealthy",
			"error":  "client not initialized",
		}
		allHealthy = false
	}

	systemMetrics := getSystemMetrics()
	checks["system"] = gin.H{
		"status":       "healthy",
		"memory_usage": systemMetrics.MemoryUsage,
		"goroutines":   systemMetrics.Goroutines,
		"gc_cycles":    systemMetrics.GCCycles,
		"heap_objects": systemMetrics.HeapObjects,
		"uptime":       time.Since(h.startedAt).Round(time.Second).String(),
	}

	response["metrics"] = gin.H{
		"response_time_ms": time.Since(startTime).Milliseconds(),
	}

	if !allHealthy {
		response["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SystemMetrics holds system runtime metrics
type SystemMetrics struct {
	MemoryUsage string `json:"memory_usage"`
	Goroutines  int    `json:"goroutines"`
	GCCycles    uint32 `json:"gc_cycles"`
	HeapObjects uint64 `json:"heap_objects"`
}

func getSystemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemMetrics{
		MemoryUsage: fmt.Sprintf("%.2f MB", float64(m.Alloc)/(1024*1024)),
		Goroutines:  runtime.NumGoroutine(),
		GCCycles:    m.NumGC,
		HeapObjects: m.HeapObjects,
	}
}
