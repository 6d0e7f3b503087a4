package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/core"
	"github.com/kilupskalvis/folio/internal/editor"
	"github.com/kilupskalvis/folio/internal/models"
)

// pageState is the editor view returned by page endpoints.
type pageState struct {
	Result   *editor.Result   `json:"result,omitempty"`
	Document *models.Document `json:"document"`
	Selected string           `json:"selected,omitempty"`
	CanUndo  bool             `json:"can_undo"`
	CanRedo  bool             `json:"can_redo"`
}

func stateOf(sess *editor.Session, res *editor.Result) pageState {
	sel, _ := sess.Selected()
	return pageState{
		Result:   res,
		Document: sess.Document(),
		Selected: sel,
		CanUndo:  sess.CanUndo(),
		CanRedo:  sess.CanRedo(),
	}
}

func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, blocks.Search(r.URL.Query().Get("q")))
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.ws.Pages()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request, pageID string) {
	var state pageState
	err := s.view(pageID, func(sess *editor.Session) error {
		state = stateOf(sess, nil)
		return nil
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, pageID string) {
	format := r.URL.Query().Get("format")
	switch format {
	case "", core.FormatHTML, core.FormatMarkdown, core.FormatPage:
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "format must be html, markdown or page")
		return
	}

	var doc *models.Document
	if err := s.view(pageID, func(sess *editor.Session) error {
		doc = sess.Document()
		return nil
	}); err != nil {
		s.writeErr(w, r, err)
		return
	}
	out, err := s.ws.ExportDocument(doc, format)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	contentType := "text/html; charset=utf-8"
	if format == core.FormatMarkdown {
		contentType = "text/markdown; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

func (s *Server) handleGetPanel(w http.ResponseWriter, r *http.Request, pageID string) {
	var panel editor.Panel
	err := s.view(pageID, func(sess *editor.Session) error {
		panel = sess.Panel()
		return nil
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, panel)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request, pageID string) {
	var req core.CommandRequest
	if err := readJSON(r, s.cfg.MaxRequestBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var state pageState
	err := s.edit(pageID, func(sess *editor.Session) error {
		res, err := core.Dispatch(sess, req)
		if err != nil {
			return err
		}
		state = stateOf(sess, &res)
		return nil
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	if state.Result.Changed {
		s.hub.Publish(Event{
			Type:    EventDocumentChanged,
			Page:    pageID,
			Command: state.Result.Command,
			BlockID: state.Result.BlockID,
			Blocks:  state.Document.Len(),
		})
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request, pageID string) {
	s.step(w, r, pageID, "undo", (*editor.Session).Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request, pageID string) {
	s.step(w, r, pageID, "redo", (*editor.Session).Redo)
}

// step runs an undo or redo. Stepping past either end of history is not an
// error; the result reports no change.
func (s *Server) step(w http.ResponseWriter, r *http.Request, pageID, name string, fn func(*editor.Session) (bool, error)) {
	var state pageState
	err := s.edit(pageID, func(sess *editor.Session) error {
		changed, err := fn(sess)
		if err != nil {
			return err
		}
		state = stateOf(sess, &editor.Result{Command: name, Changed: changed})
		return nil
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if state.Result.Changed {
		s.hub.Publish(Event{Type: EventDocumentChanged, Page: pageID, Command: name, Blocks: state.Document.Len()})
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request, pageID string) {
	maxBytes := s.ws.Config.Media.MaxUploadBytes
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "multipart field 'file' is required: "+err.Error())
		return
	}
	defer file.Close()
	blockID := r.FormValue("block_id")

	asset, err := s.ws.ReadMedia(file)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	var state pageState
	err = s.edit(pageID, func(sess *editor.Session) error {
		res, err := core.PlaceMedia(sess, asset, blockID)
		if err != nil {
			return err
		}
		state = stateOf(sess, &res)
		return nil
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.hub.Publish(Event{Type: EventDocumentChanged, Page: pageID, Command: state.Result.Command, BlockID: state.Result.BlockID, Blocks: state.Document.Len()})
	writeJSON(w, http.StatusOK, mediaResponse{
		pageState: state,
		MIME:      asset.MIME,
		Width:     asset.Width,
		Height:    asset.Height,
		Resized:   asset.Resized,
	})
}

type mediaResponse struct {
	pageState
	MIME    string `json:"mime"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Resized bool   `json:"resized"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, pageID string) {
	var (
		rec   *models.PageRecord
		count int
	)
	err := s.view(pageID, func(sess *editor.Session) error {
		doc := sess.Document()
		count = doc.Len()
		var err error
		rec, err = s.ws.Gateway.SaveLocal(pageID, doc)
		return err
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.hub.Publish(Event{Type: EventPageSaved, Page: pageID, Blocks: count})
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request, pageID string) {
	var state pageState
	err := s.edit(pageID, func(sess *editor.Session) error {
		doc, _, err := s.ws.Gateway.LoadLocal(pageID)
		if err != nil {
			return err
		}
		res, err := sess.Apply(editor.Replace{Document: doc})
		if err != nil {
			return err
		}
		state = stateOf(sess, &res)
		return nil
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if state.Result.Changed {
		s.hub.Publish(Event{Type: EventDocumentChanged, Page: pageID, Command: state.Result.Command, Blocks: state.Document.Len()})
	}
	writeJSON(w, http.StatusOK, state)
}

type publishRequest struct {
	Message     string `json:"message"`
	IncludeData bool   `json:"include_data"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request, pageID string) {
	var req publishRequest
	if err := readJSON(r, s.cfg.MaxRequestBody, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	// The document is copied under the page lock; the remote calls run
	// without it so editing continues during a slow publish.
	var doc *models.Document
	if err := s.view(pageID, func(sess *editor.Session) error {
		doc = sess.Document()
		return nil
	}); err != nil {
		s.writeErr(w, r, err)
		return
	}

	res, err := s.publish(r.Context(), pageID, doc, core.PublishOptions{Message: req.Message, IncludeData: req.IncludeData})
	if err != nil {
		s.logger.Warn("publish failed", "page", pageID, "error", err)
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) publish(ctx context.Context, pageID string, doc *models.Document, opts core.PublishOptions) (*core.PublishResult, error) {
	res, err := s.ws.PublishDocument(ctx, pageID, doc, opts, nil)
	if err != nil {
		return res, err
	}
	s.hub.Publish(Event{Type: EventPagePublished, Page: pageID, Blocks: doc.Len()})
	s.webhooks.NotifyPublish(pageID, res.Page.Path, res.Page.CommitSHA, res.Page.URL)
	return res, nil
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request, pageID string) {
	s.hub.serve(w, r, pageID)
}
