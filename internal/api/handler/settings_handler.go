package handler

import (
	"context"
	"encoding/json"
	"errors"

	"interview-assistant/internal/ai"
	"interview-assistant/internal/settings"
	"interview-assistant/internal/validation"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type SettingsHandler struct {
	svc       *settings.Service
	assistant *ai.Assistant
}

func NewSettingsHandler(svc *settings.Service, assistant *ai.Assistant) *SettingsHandler {
	return &SettingsHandler{svc: svc, assistant: assistant}
}

func (h *SettingsHandler) Get(ctx context.Context, c *app.RequestContext) {
	st, err := h.svc.Get(ctx)
	if err != nil {
		fail(ctx, c, err, "", "Failed to fetch settings")
		return
	}
	c.JSON(consts.StatusOK, st)
}

// Update handles PUT /settings with a full or partial document.
func (h *SettingsHandler) Update(ctx context.Context, c *app.RequestContext) {
	st, err := h.svc.Update(ctx, c.Request.Body())
	if err != nil {
		fail(ctx, c, err, "", "Failed to update settings")
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"message":   "Settings updated successfully",
		"settings":  st,
		"timestamp": timestamp(),
	})
}

func (h *SettingsHandler) Export(ctx context.Context, c *app.RequestContext) {
	doc, err := h.svc.Export(ctx)
	if err != nil {
		fail(ctx, c, err, "", "Failed to export settings")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="interview-settings.json"`)
	c.JSON(consts.StatusOK, doc)
}

func (h *SettingsHandler) Import(ctx context.Context, c *app.RequestContext) {
	var req struct {
		Settings json.RawMessage `json:"settings"`
	}
	if body := c.Request.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			fail(ctx, c, validation.Newf("Valid settings object is required"), "", "")
			return
		}
	}
	n, err := h.svc.Import(ctx, req.Settings)
	var imp *settings.ImportError
	if errors.As(err, &imp) {
		c.JSON(consts.StatusBadRequest, utils.H{"error": imp.Error(), "missingSections": imp.MissingSections})
		return
	}
	if err != nil {
		fail(ctx, c, err, "", "Failed to import settings")
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"message":          "Settings imported successfully",
		"importDate":       timestamp(),
		"sectionsImported": n,
	})
}

// Reset handles DELETE /settings/reset?section=; no section resets all.
func (h *SettingsHandler) Reset(ctx context.Context, c *app.RequestContext) {
	section := c.Query("section")
	if _, err := h.svc.Reset(ctx, section); err != nil {
		fail(ctx, c, err, "", "Failed to reset settings")
		return
	}
	msg := "All settings reset to defaults"
	label := "all"
	if section != "" {
		msg = section + " settings reset to defaults"
		label = section
	}
	c.JSON(consts.StatusOK, utils.H{"message": msg, "section": label, "timestamp": timestamp()})
}

// TestAI handles POST /settings/test-ai with one round trip to the model.
func (h *SettingsHandler) TestAI(ctx context.Context, c *app.RequestContext) {
	if h.assistant == nil || !h.assistant.Configured() {
		c.JSON(consts.StatusBadRequest, utils.H{"error": ai.ErrNotConfigured.Error(), "configured": false})
		return
	}
	if err := h.assistant.Ping(ctx); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{
			"status":     "error",
			"message":    "AI configuration test failed",
			"error":      err.Error(),
			"configured": false,
		})
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"status":     "success",
		"message":    "AI configuration is working correctly",
		"configured": true,
		"model":      h.assistant.Model(),
		"timestamp":  timestamp(),
	})
}
