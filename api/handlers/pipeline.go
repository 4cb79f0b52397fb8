package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"curately/pipeline"
)

// PipelineRunner executes one full curation run.
type PipelineRunner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// RunPipelineHandler triggers a manual curation run. Re-running within
// the same date only fills the newsletter's remaining slots.
func RunPipelineHandler(runner PipelineRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := runner.Run(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "completed", "stats": res})
	}
}
