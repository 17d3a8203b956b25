package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"slideflow/internal/batch"
	"slideflow/internal/domain"
	"slideflow/internal/middleware"
)

type slideGenerateRequest struct {
	SlideID     string `json:"slide_id"`
	PageNum     int    `json:"page_num"`
	Title       string `json:"title"`
	StylePrompt string `json:"style_prompt"`
	VisualDesc  string `json:"visual_desc"`
	ContentText string `json:"content_text"`
	AspectRatio string `json:"aspect_ratio"`
	TextLocale  string `json:"text_locale"`
}

type slideGenerateResponse struct {
	ImageURL       string               `json:"image_url"`
	FinalPrompt    string               `json:"final_prompt"`
	RevisedPrompt  string               `json:"revised_prompt"`
	Status         domain.OutcomeStatus `json:"status"`
	GenerationTime float64              `json:"generation_time"`
}

// GenerateSlide renders one slide synchronously.
func (a *App) GenerateSlide(w http.ResponseWriter, r *http.Request) {
	a.renderSingle(w, r, "generate")
}

// RegenerateSlide renders a slide again, typically with an edited description.
func (a *App) RegenerateSlide(w http.ResponseWriter, r *http.Request) {
	a.renderSingle(w, r, "regenerate")
}

func (a *App) renderSingle(w http.ResponseWriter, r *http.Request, action string) {
	var body slideGenerateRequest
	if !a.decode(w, r, &body) {
		return
	}
	if body.AspectRatio == "" {
		body.AspectRatio = domain.DefaultAspectRatio
	}
	if err := domain.ValidateAspectRatio(body.AspectRatio); err != nil {
		a.fail(w, r, err)
		return
	}
	slide := domain.Slide{
		ID:          strings.TrimSpace(body.SlideID),
		PageNum:     body.PageNum,
		Title:       body.Title,
		ContentText: body.ContentText,
		VisualDesc:  body.VisualDesc,
	}
	if slide.ID == "" {
		slide.ID = uuid.NewString()
	}
	if slide.PageNum == 0 {
		slide.PageNum = 1
	}
	if err := slide.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	locale := body.TextLocale
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}

	out := a.Slides.Execute(r.Context(), batch.Job{
		Slide:       slide,
		StylePrompt: body.StylePrompt,
		AspectRatio: body.AspectRatio,
		TextLocale:  locale,
	})
	a.Logger.Info().
		Str("action", action).
		Str("slide_id", slide.ID).
		Str("status", string(out.Status)).
		Float64("generation_time", out.GenerationTime).
		Msg("slide: rendered")

	if !out.Succeeded() {
		code := "internal"
		if out.ErrorClass == domain.ErrorClassService {
			code = "provider_failure"
		}
		a.error(w, http.StatusBadGateway, code, out.ErrorMessage)
		return
	}
	a.json(w, http.StatusOK, slideGenerateResponse{
		ImageURL:       out.ImageURL,
		FinalPrompt:    out.FinalPrompt,
		RevisedPrompt:  out.FinalPrompt,
		Status:         out.Status,
		GenerationTime: out.GenerationTime,
	})
}
