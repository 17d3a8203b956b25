package batch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"slideflow/internal/domain"
)

type recordingRenderer struct {
	prompt        string
	width, height int
	data          []byte
	mime          string
	err           error
}

func (r *recordingRenderer) RenderImage(ctx context.Context, prompt string, width, height int) ([]byte, string, error) {
	r.prompt, r.width, r.height = prompt, width, height
	return r.data, r.mime, r.err
}

func TestExecutorSuccess(t *testing.T) {
	renderer := &recordingRenderer{data: []byte{0x89, 'P', 'N', 'G'}, mime: "image/png"}
	store := &memStore{}
	exec := NewExecutor(renderer, store, zerolog.Nop())

	out := exec.Execute(context.Background(), Job{
		Slide: domain.Slide{
			ID:          "s1",
			PageNum:     2,
			Title:       "Quarterly results",
			ContentText: "Revenue up 12%",
			VisualDesc:  "bar chart on white",
		},
		StylePrompt: "flat corporate",
		AspectRatio: "4:3",
		TextLocale:  "en",
	})

	if out.Status != domain.OutcomeDone || !out.Succeeded() {
		t.Fatalf("status = %s, want done", out.Status)
	}
	if out.ImageURL != "/assets/slide_002.png" {
		t.Fatalf("image url = %q", out.ImageURL)
	}
	if out.SlideID != "s1" || out.PageNum != 2 || out.Title != "Quarterly results" {
		t.Fatalf("identity not carried: %+v", out)
	}
	if out.FinalPrompt != renderer.prompt {
		t.Fatalf("final prompt differs from the rendered one")
	}
	for _, want := range []string{"flat corporate", "bar chart on white", "Quarterly results", "Revenue up 12%", "4:3"} {
		if !strings.Contains(out.FinalPrompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, out.FinalPrompt)
		}
	}
	if renderer.width != 1024 || renderer.height != 768 {
		t.Fatalf("dimensions = %dx%d, want 1024x768", renderer.width, renderer.height)
	}
	if out.ErrorMessage != "" || out.ErrorClass != "" {
		t.Fatalf("success outcome carries error fields: %+v", out)
	}
}

func TestExecutorClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		renderer  *recordingRenderer
		storeErr  error
		wantClass domain.ErrorClass
		wantMsg   string
	}{
		{
			name:      "provider failure",
			renderer:  &recordingRenderer{err: serviceErr{msg: "status 429"}},
			wantClass: domain.ErrorClassService,
			wantMsg:   "status 429",
		},
		{
			name:      "empty payload",
			renderer:  &recordingRenderer{mime: "image/png"},
			wantClass: domain.ErrorClassService,
			wantMsg:   "empty image payload",
		},
		{
			name:      "unclassified renderer error",
			renderer:  &recordingRenderer{err: errors.New("template broke")},
			wantClass: domain.ErrorClassInternal,
			wantMsg:   "template broke",
		},
		{
			name:      "store failure",
			renderer:  &recordingRenderer{data: []byte("x"), mime: "image/png"},
			storeErr:  errors.New("read-only file system"),
			wantClass: domain.ErrorClassInternal,
			wantMsg:   "persist asset",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := NewExecutor(tc.renderer, &memStore{err: tc.storeErr}, zerolog.Nop())
			out := exec.Execute(context.Background(), Job{
				Slide:       domain.Slide{ID: "s", PageNum: 1, VisualDesc: "v"},
				AspectRatio: "16:9",
			})
			if out.Status != domain.OutcomeError {
				t.Fatalf("status = %s, want error", out.Status)
			}
			if out.ErrorClass != tc.wantClass {
				t.Fatalf("class = %s, want %s", out.ErrorClass, tc.wantClass)
			}
			if !strings.Contains(out.ErrorMessage, tc.wantMsg) {
				t.Fatalf("message = %q, want it to contain %q", out.ErrorMessage, tc.wantMsg)
			}
			if out.ImageURL != "" {
				t.Fatalf("failed outcome has image url %q", out.ImageURL)
			}
			if out.FinalPrompt == "" {
				t.Fatalf("failed outcome should keep the prompt for debugging")
			}
		})
	}
}
