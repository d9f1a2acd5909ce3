package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/tvremote-go/share"
	"github.com/moyoez/tvremote-go/tool"
	"github.com/moyoez/tvremote-go/types"
)

// CandidateLister runs one discovery run.
type CandidateLister interface {
	Run(ctx context.Context) ([]types.Candidate, error)
}

// KeySender delivers a key command to a device.
type KeySender interface {
	Send(ctx context.Context, address string, cmd types.KeyCommand) (int, error)
}

type RemoteController struct {
	Lister       CandidateLister
	Sender       KeySender
	Threshold    int
	Vendor       string
	DefaultCount int
	DefaultDelay time.Duration
}

func NewRemoteController(lister CandidateLister, sender KeySender, cfg types.AppConfig) *RemoteController {
	return &RemoteController{
		Lister:       lister,
		Sender:       sender,
		Threshold:    cfg.LikelyThreshold,
		Vendor:       cfg.Vendor,
		DefaultCount: cfg.RepeatCount,
		DefaultDelay: tool.Millis(cfg.InterSendDelayMs),
	}
}

type candidateView struct {
	types.Candidate
	Tag string `json:"tag"`
}

func (rc *RemoteController) views(cands []types.Candidate) []candidateView {
	out := make([]candidateView, 0, len(cands))
	for _, c := range cands {
		out = append(out, candidateView{Candidate: c, Tag: c.Tag(rc.Threshold, rc.Vendor)})
	}
	return out
}

// HandleCandidates runs discovery and returns the ranked list.
// GET /api/remote/v1/candidates
func (rc *RemoteController) HandleCandidates(c *gin.Context) {
	cands, err := rc.Lister.Run(c.Request.Context())
	if err != nil {
		promScans.WithLabelValues("error").Inc()
		tool.DefaultLogger.Errorf("[API] Discovery failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Discovery failed: "+err.Error()))
		return
	}
	promScans.WithLabelValues("ok").Inc()
	promCandidates.Set(float64(len(cands)))
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(rc.views(cands)))
}

// SendKeyRequest is the optional body of a key request.
type SendKeyRequest struct {
	Host    string `json:"host"`
	Count   int    `json:"count"`
	DelayMs *int   `json:"delayMs"`
}

type sendKeyResponse struct {
	Target    string `json:"target"`
	Key       string `json:"key"`
	Sent      int    `json:"sent"`
	Confident bool   `json:"confident"`
}

// HandleSendKey sends a volume or mute key, discovering the target when no host is given.
// POST /api/remote/v1/keys/:action
func (rc *RemoteController) HandleSendKey(c *gin.Context) {
	action, err := types.ParseKeyAction(c.Param("action"))
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}

	var req SendKeyRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
			return
		}
	}
	cmd := types.KeyCommand{
		Action:         action,
		RepeatCount:    rc.DefaultCount,
		InterSendDelay: rc.DefaultDelay,
	}
	if req.Count != 0 {
		cmd.RepeatCount = req.Count
	}
	if req.DelayMs != nil {
		cmd.InterSendDelay = tool.Millis(*req.DelayMs)
	}
	if err := cmd.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	target, confident := req.Host, true
	if target == "" {
		cands, err := rc.Lister.Run(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, tool.FastReturnError("Discovery failed: "+err.Error()))
			return
		}
		best, ok, err := share.SelectTarget(cands, rc.Threshold)
		if err != nil {
			c.JSON(http.StatusNotFound, tool.FastReturnError(err.Error()))
			return
		}
		if !ok {
			tool.DefaultLogger.Warnf("[API] %v; falling back to %s (score %d)", types.ErrNoConfidentCandidate, best.Address, best.Score)
		}
		target, confident = best.Address, ok
	}

	sent, err := rc.Sender.Send(ctx, target, cmd)
	promKeysSent.WithLabelValues(action.Code()).Add(float64(sent))
	if err != nil {
		var cerr *types.ConnectError
		if errors.As(err, &cerr) {
			promConnectFailures.Inc()
			c.JSON(http.StatusBadGateway, tool.FastReturnErrorWithData(cerr.Error(), map[string]any{
				"hints": cerr.Hints(),
			}))
			return
		}
		c.JSON(http.StatusBadGateway, tool.FastReturnErrorWithData(err.Error(), map[string]any{
			"sent": sent,
		}))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(sendKeyResponse{
		Target:    target,
		Key:       action.Code(),
		Sent:      sent,
		Confident: confident,
	}))
}
