package handlers

import (
	"fmt"
	"net/http"
	"path"
	"sort"

	"github.com/go-chi/chi/v5"

	"slideflow/internal/domain"
	"slideflow/pkg/zip"
)

// DownloadBatch streams the successful slides of a finished batch as a zip
// ordered by page number.
func (a *App) DownloadBatch(w http.ResponseWriter, r *http.Request) {
	if a.Assets == nil {
		a.error(w, http.StatusNotImplemented, "download_disabled", "asset store is not configured")
		return
	}
	id, ok := a.parseBatchID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	snap, err := a.Batches.Status(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !snap.Status.Terminal() {
		a.error(w, http.StatusConflict, "batch_running", "batch has not finished yet")
		return
	}

	done := make([]domain.Outcome, 0, snap.Successful)
	for _, out := range snap.Results {
		if out.Succeeded() {
			done = append(done, out)
		}
	}
	sort.Slice(done, func(i, j int) bool { return done[i].PageNum < done[j].PageNum })

	assets := make([]zip.Asset, 0, len(done))
	for _, out := range done {
		data, err := a.Assets.Open(r.Context(), out.ImageURL)
		if err != nil {
			a.Logger.Warn().Err(err).Str("batch_id", id.String()).Str("image_url", out.ImageURL).Msg("download: asset missing")
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("slide_%03d%s", out.PageNum, path.Ext(out.ImageURL)),
			Data:     data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "batch has no downloadable slides")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="slides_%s.zip"`, id))
	modified := snap.StartedAt
	if snap.FinishedAt != nil {
		modified = *snap.FinishedAt
	}
	if err := zip.WriteAssets(w, assets, modified); err != nil {
		a.Logger.Error().Err(err).Str("batch_id", id.String()).Msg("download: write archive")
	}
}
